package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/botd-saas/internal/metrics"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// VerifyEvent checks the payload signature against the shared webhook secret
// and parses the event. Verification and processing are separate steps so an
// unverifiable payload can never reach the ledger.
func (s *Service) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
}

// ProcessEvent applies one verified provider event to the entitlement ledger.
// Unknown event types are ignored; they are not an error.
func (s *Service) ProcessEvent(ctx context.Context, event stripe.Event, log *zap.Logger) error {
	switch event.Type {

	case "customer.subscription.created":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription.created: %w", err)
		}
		tier, ok := tierFromSubscription(&sub)
		if !ok {
			return fmt.Errorf("subscription %s: cannot resolve tier", sub.ID)
		}
		if err := s.accounts.SetTierByCustomer(ctx, sub.Customer.ID, tier); err != nil {
			return fmt.Errorf("set tier: %w", err)
		}
		metrics.BillingEventsTotal.WithLabelValues("subscription_created").Inc()
		log.Info("subscription created",
			zap.String("customer", sub.Customer.ID),
			zap.String("tier", tier.String()),
		)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("parse subscription.deleted: %w", err)
		}
		if err := s.accounts.SetTierByCustomer(ctx, sub.Customer.ID, model.TierFree); err != nil {
			return fmt.Errorf("downgrade tier: %w", err)
		}
		metrics.BillingEventsTotal.WithLabelValues("subscription_deleted").Inc()
		log.Info("subscription deleted", zap.String("customer", sub.Customer.ID))

	case "invoice.payment_succeeded":
		// Entitlement already follows the subscription lifecycle; payments are
		// acknowledged for visibility only.
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("parse invoice.payment_succeeded: %w", err)
		}
		metrics.BillingEventsTotal.WithLabelValues("payment_succeeded").Inc()
		log.Info("payment succeeded", zap.String("invoice", inv.ID))

	default:
		log.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}

	return nil
}
