package populator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/billing-sync/internal/domain"
)

func planPayload(metadata map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"id":             "plan_basic",
		"name":           "Team Plan",
		"amount":         float64(2900),
		"currency":       "usd",
		"interval":       "month",
		"interval_count": float64(1),
		"created":        float64(1709294400),
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}
	return payload
}

func TestPlan_CopiesFields(t *testing.T) {
	plan := domain.NewPlan()

	payload := planPayload(nil)
	payload["trial_period_days"] = float64(14)

	require.NoError(t, Plan(plan, payload))

	assert.Equal(t, "plan_basic", plan.ProviderID)
	assert.Equal(t, "Team Plan", plan.Name)
	assert.Equal(t, int64(2900), plan.Amount)
	assert.Equal(t, "usd", plan.Currency)
	assert.Equal(t, domain.BillingIntervalMonth, plan.Interval)
	assert.Equal(t, 1, plan.IntervalCount)
	require.NotNil(t, plan.TrialPeriodDays)
	assert.Equal(t, 14, *plan.TrialPeriodDays)
	assert.Equal(t, time.Unix(1709294400, 0).UTC(), plan.CreatedAt)
}

func TestPlan_DoesNotTouchLocalConcerns(t *testing.T) {
	plan := domain.NewPlan()
	plan.Features = []string{"sso"}
	plan.Active = false

	require.NoError(t, Plan(plan, planPayload(nil)))

	assert.Equal(t, []string{"sso"}, plan.Features)
	assert.False(t, plan.Active)
}

func TestPlan_RejectsUnknownInterval(t *testing.T) {
	payload := planPayload(nil)
	payload["interval"] = "fortnight"

	err := Plan(domain.NewPlan(), payload)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeValidationBadInterval))
}

func TestPlan_MissingRequiredKey(t *testing.T) {
	payload := planPayload(nil)
	delete(payload, "amount")

	err := Plan(domain.NewPlan(), payload)

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestPlan_MetadataMerge(t *testing.T) {
	plan := domain.NewPlan()
	kept := &domain.PlanMetadata{Key: "tier", Value: "old"}
	stale := &domain.PlanMetadata{Key: "legacy", Value: "yes"}
	plan.AddMetadata(kept)
	plan.AddMetadata(stale)

	require.NoError(t, Plan(plan, planPayload(map[string]interface{}{
		"tier":  "team",
		"seats": "25",
	})))

	// existing entry updated in place, stale entry removed, new entry added
	require.Len(t, plan.Metadata, 2)
	value, ok := plan.MetadataValue("tier")
	assert.True(t, ok)
	assert.Equal(t, "team", value)
	assert.Same(t, kept, plan.Metadata[0])

	_, ok = plan.MetadataValue("legacy")
	assert.False(t, ok)
	assert.Nil(t, stale.Plan)

	value, ok = plan.MetadataValue("seats")
	assert.True(t, ok)
	assert.Equal(t, "25", value)
	for _, metadatum := range plan.Metadata {
		assert.Same(t, plan, metadatum.Plan)
	}
}

func TestPlan_MetadataClearedWhenAbsentRemotely(t *testing.T) {
	plan := domain.NewPlan()
	plan.AddMetadata(&domain.PlanMetadata{Key: "tier", Value: "team"})

	require.NoError(t, Plan(plan, planPayload(nil)))

	assert.Empty(t, plan.Metadata)
}
