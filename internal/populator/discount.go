package populator

import (
	"github.com/kevin07696/billing-sync/internal/domain"
)

// Discount copies a provider discount payload, including its embedded coupon,
// onto a discount mirror. The owning customer or subscription is a relation
// the caller manages; it is preserved across re-population.
func Discount(discount *domain.Discount, payload map[string]interface{}) error {
	coupon, err := objectField(payload, "discount", "coupon")
	if err != nil {
		return err
	}
	code, err := stringField(coupon, "coupon", "id")
	if err != nil {
		return err
	}
	startedAt, err := timeField(payload, "discount", "start")
	if err != nil {
		return err
	}

	discount.Coupon.Code = code
	discount.Coupon.AmountOff = optionalInt64(coupon, "amount_off")
	discount.Coupon.Currency = optionalString(coupon, "currency")
	discount.Coupon.PercentOff = optionalDecimal(coupon, "percent_off")

	discount.StartedAt = startedAt
	discount.EndAt = optionalTime(payload, "end")

	return nil
}
