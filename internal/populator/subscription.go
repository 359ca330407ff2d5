package populator

import (
	"github.com/shopspring/decimal"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// Subscription copies a provider subscription payload onto a subscription
// mirror. Plan, payer and discount are relations the caller manages; they are
// preserved across re-population.
func Subscription(subscription *domain.Subscription, payload map[string]interface{}) error {
	providerID, err := stringField(payload, "subscription", "id")
	if err != nil {
		return err
	}
	quantity, err := intField(payload, "subscription", "quantity")
	if err != nil {
		return err
	}
	periodStart, err := timeField(payload, "subscription", "current_period_start")
	if err != nil {
		return err
	}
	periodEnd, err := timeField(payload, "subscription", "current_period_end")
	if err != nil {
		return err
	}
	status, err := stringField(payload, "subscription", "status")
	if err != nil {
		return err
	}

	subscription.ProviderID = providerID
	subscription.Quantity = quantity
	subscription.CurrentPeriodStart = periodStart
	subscription.CurrentPeriodEnd = periodEnd
	subscription.Status = domain.SubscriptionStatus(status)

	if taxPercent := optionalDecimal(payload, "tax_percent"); taxPercent != nil {
		subscription.TaxPercent = *taxPercent
	} else {
		subscription.TaxPercent = decimal.Zero
	}

	if trialStart := optionalTime(payload, "trial_start"); trialStart != nil {
		subscription.TrialStart = trialStart
		subscription.TrialEnd = optionalTime(payload, "trial_end")
	}
	if endedAt := optionalTime(payload, "ended_at"); endedAt != nil {
		subscription.EndedAt = endedAt
	}
	if cancelledAt := optionalTime(payload, "canceled_at"); cancelledAt != nil {
		subscription.CancelledAt = cancelledAt
	}

	return nil
}
