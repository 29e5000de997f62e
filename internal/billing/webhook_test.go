package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// fakeAccounts records ledger mutations driven by billing events.
type fakeAccounts struct {
	accounts     map[string]*model.Account // by api key
	tierByCust   map[string]model.Tier
	attachedCust map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts:     make(map[string]*model.Account),
		tierByCust:   make(map[string]model.Tier),
		attachedCust: make(map[string]string),
	}
}

func (f *fakeAccounts) GetByAPIKey(_ context.Context, apiKey string) (*model.Account, error) {
	return f.accounts[apiKey], nil
}

func (f *fakeAccounts) Create(_ context.Context, apiKey string, email *string, period string) (*model.Account, error) {
	a := &model.Account{APIKey: apiKey, Email: email, Tier: model.TierFree, LastReset: period}
	f.accounts[apiKey] = a
	return a, nil
}

func (f *fakeAccounts) GetForUpdate(context.Context, *sqlx.Tx, string) (*model.Account, error) {
	panic("not used in billing tests")
}
func (f *fakeAccounts) ResetPeriod(context.Context, *sqlx.Tx, int64, string) error {
	panic("not used in billing tests")
}
func (f *fakeAccounts) IncrementUsage(context.Context, *sqlx.Tx, int64) error {
	panic("not used in billing tests")
}

func (f *fakeAccounts) SetTier(_ context.Context, apiKey string, tier model.Tier) error {
	if a, ok := f.accounts[apiKey]; ok {
		a.Tier = tier
	}
	return nil
}

func (f *fakeAccounts) SetTierByCustomer(_ context.Context, customerID string, tier model.Tier) error {
	f.tierByCust[customerID] = tier
	return nil
}

func (f *fakeAccounts) AttachStripeCustomer(_ context.Context, apiKey, customerID string) error {
	if _, done := f.attachedCust[apiKey]; !done {
		f.attachedCust[apiKey] = customerID
	}
	return nil
}

func subscriptionEvent(t *testing.T, eventType, customerID string, metadata map[string]string) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":       "sub_test",
		"customer": customerID,
		"metadata": metadata,
	})
	require.NoError(t, err)

	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestProcessEventSubscriptionCreated(t *testing.T) {
	accounts := newFakeAccounts()
	svc := New(accounts, config.StripeConfig{})

	ev := subscriptionEvent(t, "customer.subscription.created", "cus_42", map[string]string{"tier": "starter"})
	err := svc.ProcessEvent(context.Background(), ev, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.TierStarter, accounts.tierByCust["cus_42"])
}

func TestProcessEventSubscriptionDeletedDowngradesToFree(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.tierByCust["cus_42"] = model.TierPro
	svc := New(accounts, config.StripeConfig{})

	ev := subscriptionEvent(t, "customer.subscription.deleted", "cus_42", map[string]string{"tier": "pro"})
	err := svc.ProcessEvent(context.Background(), ev, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, accounts.tierByCust["cus_42"])
}

func TestProcessEventUnknownTypeIgnored(t *testing.T) {
	accounts := newFakeAccounts()
	svc := New(accounts, config.StripeConfig{})

	ev := stripe.Event{Type: "charge.refunded", Data: &stripe.EventData{Raw: []byte(`{}`)}}
	err := svc.ProcessEvent(context.Background(), ev, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, accounts.tierByCust)
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	svc := New(newFakeAccounts(), config.StripeConfig{WebhookSecret: "whsec_test"})

	_, err := svc.VerifyEvent([]byte(`{"id":"evt_1"}`), "t=123,v1=deadbeef")
	assert.Error(t, err)
}

func TestVerifyEventAcceptsValidSignature(t *testing.T) {
	const secret = "whsec_test"
	svc := New(newFakeAccounts(), config.StripeConfig{WebhookSecret: secret})

	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":"charge.refunded","data":{"object":{}}}`, stripe.APIVersion))

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	header := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	event, err := svc.VerifyEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
