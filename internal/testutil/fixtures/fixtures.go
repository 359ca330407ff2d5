// Package fixtures builds provider payloads for tests. Values mimic what the
// provider actually delivers: unix timestamps as JSON numbers, amounts in
// minor currency units, nested data objects.
package fixtures

import (
	"encoding/json"
	"fmt"
	"time"
)

// Unix timestamps used across fixtures
var (
	PlanCreatedAt   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	PeriodStart     = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	PeriodEnd       = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	DiscountStarted = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
)

// PlanPayload returns a provider plan resource
func PlanPayload(id string, metadata map[string]string) map[string]interface{} {
	payload := map[string]interface{}{
		"id":             id,
		"name":           "Team Plan",
		"amount":         float64(2900),
		"currency":       "usd",
		"interval":       "month",
		"interval_count": float64(1),
		"created":        float64(PlanCreatedAt.Unix()),
	}
	if metadata != nil {
		meta := map[string]interface{}{}
		for k, v := range metadata {
			meta[k] = v
		}
		payload["metadata"] = meta
	}
	return payload
}

// CardPayload returns a provider card resource
func CardPayload(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"brand":     "Visa",
		"exp_month": float64(12),
		"exp_year":  float64(2030),
		"last4":     "4242",
		"country":   "US",
	}
}

// DiscountPayload returns a provider discount resource attached to the given
// owners; empty ids are omitted
func DiscountPayload(customerID, subscriptionID string) map[string]interface{} {
	payload := map[string]interface{}{
		"coupon": map[string]interface{}{
			"id":          "SPRING20",
			"percent_off": float64(20),
		},
		"start": float64(DiscountStarted.Unix()),
	}
	if customerID != "" {
		payload["customer"] = customerID
	}
	if subscriptionID != "" {
		payload["subscription"] = subscriptionID
	}
	return payload
}

// SubscriptionPayload returns a provider subscription resource
func SubscriptionPayload(id string) map[string]interface{} {
	return map[string]interface{}{
		"id":                   id,
		"quantity":             float64(3),
		"tax_percent":          float64(21),
		"current_period_start": float64(PeriodStart.Unix()),
		"current_period_end":   float64(PeriodEnd.Unix()),
		"status":               "active",
	}
}

// InvoicePayload returns a provider invoice resource. With closed the payload
// carries two line items.
func InvoicePayload(id, customerID string, closed bool) map[string]interface{} {
	payload := map[string]interface{}{
		"id":            id,
		"customer":      customerID,
		"date":          float64(PeriodStart.Unix()),
		"period_start":  float64(PeriodStart.Unix()),
		"period_end":    float64(PeriodEnd.Unix()),
		"subtotal":      float64(8700),
		"total":         float64(8700),
		"amount_due":    float64(8700),
		"currency":      "usd",
		"closed":        closed,
		"paid":          closed,
		"attempt_count": float64(1),
	}
	if closed {
		payload["lines"] = map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{
					"amount":      float64(2900),
					"currency":    "usd",
					"description": "Team Plan",
				},
				map[string]interface{}{
					"amount":      float64(5800),
					"currency":    "usd",
					"description": "Extra seats",
				},
			},
		}
	}
	return payload
}

// EventBody serializes a webhook envelope the way the provider posts it
func EventBody(id, eventType string, live bool, object map[string]interface{}) []byte {
	body, err := json.Marshal(map[string]interface{}{
		"id":       id,
		"type":     eventType,
		"livemode": live,
		"data":     map[string]interface{}{"object": object},
	})
	if err != nil {
		panic(fmt.Sprintf("marshal event fixture: %v", err))
	}
	return body
}
