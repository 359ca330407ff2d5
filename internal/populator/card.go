package populator

import (
	"github.com/kevin07696/billing-sync/internal/domain"
)

// Card copies a provider card payload onto a card mirror. The owning customer
// is a relation the caller manages; it is preserved across re-population.
func Card(card *domain.Card, payload map[string]interface{}) error {
	providerID, err := stringField(payload, "card", "id")
	if err != nil {
		return err
	}
	brand, err := stringField(payload, "card", "brand")
	if err != nil {
		return err
	}
	expMonth, err := intField(payload, "card", "exp_month")
	if err != nil {
		return err
	}
	expYear, err := intField(payload, "card", "exp_year")
	if err != nil {
		return err
	}
	last4, err := stringField(payload, "card", "last4")
	if err != nil {
		return err
	}

	card.ProviderID = providerID
	card.Brand = brand
	card.ExpMonth = expMonth
	card.ExpYear = expYear
	card.Last4 = last4
	card.Country = optionalString(payload, "country")

	return nil
}
