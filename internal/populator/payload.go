// Package populator maps raw provider resource payloads onto local mirror
// entities. Populators are pure field copies: they never touch relations they
// were not handed and never call out to persistence. A payload missing a
// required key is a contract violation and fails fast.
package populator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/billing-sync/internal/domain"
)

// stringField returns a required string key
func stringField(payload map[string]interface{}, object, key string) (string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", domain.MissingField(object, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.MissingField(object, key)
	}
	return s, nil
}

// optionalString returns a nullable string key, empty when absent or null
func optionalString(payload map[string]interface{}, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

// asInt64 coerces the numeric representations a JSON decoder may produce
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// int64Field returns a required integer key
func int64Field(payload map[string]interface{}, object, key string) (int64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0, domain.MissingField(object, key)
	}
	n, ok := asInt64(v)
	if !ok {
		return 0, domain.MissingField(object, key)
	}
	return n, nil
}

// intField returns a required integer key as int
func intField(payload map[string]interface{}, object, key string) (int, error) {
	n, err := int64Field(payload, object, key)
	return int(n), err
}

// optionalInt64 returns a nullable integer key, nil when absent or null
func optionalInt64(payload map[string]interface{}, key string) *int64 {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}
	if n, ok := asInt64(v); ok {
		return &n
	}
	return nil
}

// optionalInt returns a nullable integer key as *int
func optionalInt(payload map[string]interface{}, key string) *int {
	if n := optionalInt64(payload, key); n != nil {
		i := int(*n)
		return &i
	}
	return nil
}

// boolField returns a required boolean key
func boolField(payload map[string]interface{}, object, key string) (bool, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return false, domain.MissingField(object, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, domain.MissingField(object, key)
	}
	return b, nil
}

// timeField returns a required unix-timestamp key
func timeField(payload map[string]interface{}, object, key string) (time.Time, error) {
	n, err := int64Field(payload, object, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0).UTC(), nil
}

// optionalTime returns a nullable unix-timestamp key, nil when absent or null
func optionalTime(payload map[string]interface{}, key string) *time.Time {
	if n := optionalInt64(payload, key); n != nil {
		t := time.Unix(*n, 0).UTC()
		return &t
	}
	return nil
}

// optionalDecimal returns a nullable fractional key, nil when absent or null
func optionalDecimal(payload map[string]interface{}, key string) *decimal.Decimal {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		d := decimal.NewFromFloat(n)
		return &d
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return &d
		}
	}
	return nil
}

// objectField returns a required nested object key
func objectField(payload map[string]interface{}, object, key string) (map[string]interface{}, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return nil, domain.MissingField(object, key)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, domain.MissingField(object, key)
	}
	return m, nil
}

// stringMap returns a nullable string-to-string mapping, empty when absent
func stringMap(payload map[string]interface{}, key string) map[string]string {
	out := map[string]string{}
	m, ok := payload[key].(map[string]interface{})
	if !ok {
		return out
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// listData returns the entries of a provider list object ({"data": [...]}),
// nil when the key is absent
func listData(payload map[string]interface{}, key string) []map[string]interface{} {
	obj, ok := payload[key].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := obj["data"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
