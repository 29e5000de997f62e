package billing

import (
	"context"
	"testing"

	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

// stripeSub is a shorthand builder for subscription fixtures.
type stripeSub struct {
	meta    map[string]string
	priceID string
}

func (s *stripeSub) build() *stripe.Subscription {
	sub := &stripe.Subscription{Metadata: s.meta}
	if s.priceID != "" {
		sub.Items = &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: s.priceID}}},
		}
	}
	return sub
}

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: "whsec_test",
		SuccessURL:    "http://localhost:8080/success",
		CancelURL:     "http://localhost:8080/cancel",
		PriceIDs: map[string]string{
			"starter": "price_starter_monthly",
			"pro":     "price_pro_monthly",
		},
	}
}

func TestCreateCheckoutSessionRejectsInvalidTier(t *testing.T) {
	svc := New(newFakeAccounts(), testStripeConfig())

	for _, tier := range []string{"enterprise", "free", ""} {
		_, err := svc.CreateCheckoutSession(context.Background(), "botd_x", tier, "")
		assert.ErrorIs(t, err, ErrInvalidTier, "tier %q", tier)
	}
}

func TestCreateCheckoutSessionUnknownKey(t *testing.T) {
	svc := New(newFakeAccounts(), testStripeConfig())

	_, err := svc.CreateCheckoutSession(context.Background(), "botd_missing", "starter", "")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestPortalSessionRequiresBillingAccount(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.accounts["botd_x"] = &model.Account{APIKey: "botd_x", Tier: model.TierFree}
	svc := New(accounts, testStripeConfig())

	_, err := svc.CreatePortalSession(context.Background(), "botd_x")
	assert.ErrorIs(t, err, ErrNoBillingAccount)
}

func TestCancelSubscriptionRequiresBillingAccount(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.accounts["botd_x"] = &model.Account{APIKey: "botd_x", Tier: model.TierPro}
	svc := New(accounts, testStripeConfig())

	err := svc.CancelSubscription(context.Background(), "botd_x")
	assert.ErrorIs(t, err, ErrNoBillingAccount)
}

func TestTierFromSubscription(t *testing.T) {
	tests := []struct {
		name string
		sub  *stripeSub
		want model.Tier
		ok   bool
	}{
		{"metadata wins", &stripeSub{meta: map[string]string{"tier": "pro"}, priceID: "price_starter_monthly"}, model.TierPro, true},
		{"price id fallback starter", &stripeSub{priceID: "price_starter_monthly"}, model.TierStarter, true},
		{"price id fallback pro", &stripeSub{priceID: "price_pro_monthly"}, model.TierPro, true},
		{"nothing to go on", &stripeSub{}, model.TierFree, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tierFromSubscription(tt.sub.build())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
