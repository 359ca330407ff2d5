package populator

import (
	"github.com/google/uuid"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// Plan copies a provider plan payload onto a plan mirror, including the
// metadata reconciliation. The active flag and feature tags are local
// concerns and are never touched.
func Plan(plan *domain.Plan, payload map[string]interface{}) error {
	providerID, err := stringField(payload, "plan", "id")
	if err != nil {
		return err
	}
	name, err := stringField(payload, "plan", "name")
	if err != nil {
		return err
	}
	amount, err := int64Field(payload, "plan", "amount")
	if err != nil {
		return err
	}
	currency, err := stringField(payload, "plan", "currency")
	if err != nil {
		return err
	}
	rawInterval, err := stringField(payload, "plan", "interval")
	if err != nil {
		return err
	}
	interval, err := domain.ParseBillingInterval(rawInterval)
	if err != nil {
		return err
	}
	intervalCount, err := intField(payload, "plan", "interval_count")
	if err != nil {
		return err
	}
	createdAt, err := timeField(payload, "plan", "created")
	if err != nil {
		return err
	}

	plan.ProviderID = providerID
	plan.Name = name
	plan.Amount = amount
	plan.Currency = currency
	plan.Interval = interval
	plan.IntervalCount = intervalCount
	plan.TrialPeriodDays = optionalInt(payload, "trial_period_days")
	plan.CreatedAt = createdAt

	mergePlanMetadata(plan, stringMap(payload, "metadata"))

	return nil
}

// mergePlanMetadata reconciles the plan's metadata entries against the remote
// mapping: update values for keys present on both sides, remove entries whose
// key is gone remotely, create entries for remote keys we do not have yet
func mergePlanMetadata(plan *domain.Plan, remote map[string]string) {
	for _, metadatum := range append([]*domain.PlanMetadata(nil), plan.Metadata...) {
		value, ok := remote[metadatum.Key]
		if ok {
			metadatum.Value = value
			delete(remote, metadatum.Key)
		} else {
			plan.RemoveMetadata(metadatum)
		}
	}

	for key, value := range remote {
		plan.AddMetadata(&domain.PlanMetadata{ID: uuid.New(), Key: key, Value: value})
	}
}
