package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmehdipour/botd-saas/internal/repository"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
)

var (
	ErrInvalidTier      = errors.New("invalid tier")
	ErrUnknownKey       = errors.New("unknown api key")
	ErrNoBillingAccount = errors.New("no billing customer attached")
	ErrNoSubscription   = errors.New("no active subscription")
)

// Service is the bridge to the payment provider. All calls are best-effort
// single attempts; provider failures surface to the caller unretried.
type Service struct {
	accounts repository.AccountsRepository
	cfg      config.StripeConfig
}

func New(accounts repository.AccountsRepository, cfg config.StripeConfig) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{accounts: accounts, cfg: cfg}
}

// CheckoutSession is the subset of the provider session returned to clients.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"checkout_url"`
}

// CreateCheckoutSession starts a hosted subscription checkout for apiKey
// upgrading to tier. The provider customer is created lazily: only when the
// account has none attached yet.
func (s *Service) CreateCheckoutSession(ctx context.Context, apiKey, tierRaw, email string) (*CheckoutSession, error) {
	tier, ok := model.ParseTier(tierRaw)
	if !ok || !tier.Paid() {
		return nil, ErrInvalidTier
	}
	priceID, err := s.cfg.PriceFor(tier.String())
	if err != nil {
		return nil, ErrInvalidTier
	}

	acct, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("account get: %w", err)
	}
	if acct == nil {
		return nil, ErrUnknownKey
	}

	customerID, err := s.ensureCustomer(ctx, acct, email)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"api_key": acct.APIKey,
				"tier":    tier.String(),
			},
		},
	}
	params.AddMetadata("api_key", acct.APIKey)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession opens the provider's billing portal for the account's
// customer; the account must have completed a checkout before.
func (s *Service) CreatePortalSession(ctx context.Context, apiKey string) (string, error) {
	acct, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("account get: %w", err)
	}
	if acct == nil {
		return "", ErrUnknownKey
	}
	if acct.StripeCustomerID == nil || *acct.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*acct.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.PortalReturnURL),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// CancelSubscription requests cancellation at period end for the account's
// active subscription and downgrades the local tier to free immediately,
// ahead of the provider's end-of-period enactment.
func (s *Service) CancelSubscription(ctx context.Context, apiKey string) error {
	acct, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("account get: %w", err)
	}
	if acct == nil {
		return ErrUnknownKey
	}
	if acct.StripeCustomerID == nil || *acct.StripeCustomerID == "" {
		return ErrNoBillingAccount
	}

	iter := subscription.List(&stripe.SubscriptionListParams{
		Customer: stripe.String(*acct.StripeCustomerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	})
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return fmt.Errorf("list subscriptions: %w", err)
		}
		return ErrNoSubscription
	}
	sub := iter.Subscription()

	_, err = subscription.Update(sub.ID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	if err := s.accounts.SetTier(ctx, acct.APIKey, model.TierFree); err != nil {
		return fmt.Errorf("downgrade tier: %w", err)
	}
	return nil
}

// ensureCustomer returns the provider customer id for acct, creating and
// attaching one when the account has none.
func (s *Service) ensureCustomer(ctx context.Context, acct *model.Account, email string) (string, error) {
	if acct.StripeCustomerID != nil && *acct.StripeCustomerID != "" {
		return *acct.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{}
	if email == "" && acct.Email != nil {
		email = *acct.Email
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("api_key", acct.APIKey)

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}

	if err := s.accounts.AttachStripeCustomer(ctx, acct.APIKey, cust.ID); err != nil {
		return "", fmt.Errorf("attach customer: %w", err)
	}
	return cust.ID, nil
}

// tierFromSubscription resolves the target tier of a subscription event,
// preferring explicit metadata and falling back to the price id.
func tierFromSubscription(sub *stripe.Subscription) (model.Tier, bool) {
	if raw, ok := sub.Metadata["tier"]; ok {
		if tier, valid := model.ParseTier(raw); valid && tier.Paid() {
			return tier, true
		}
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		if strings.Contains(sub.Items.Data[0].Price.ID, "starter") {
			return model.TierStarter, true
		}
		return model.TierPro, true
	}
	return model.TierFree, false
}
