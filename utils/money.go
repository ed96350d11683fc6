package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney accepts numbers and user-formatted strings such as
// "1,234.50", "$12", "USD -3.10".
func ParseMoney(i any) (decimal.Decimal, error) {
	switch v := i.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "USD"), "usd"))
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		var b strings.Builder
		b.Grow(len(s) + 1)
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		clean := b.String()
		if clean == "" {
			return decimal.Zero, ValidationError("invalid amount %q", v)
		}
		if neg {
			clean = "-" + clean
		}
		val, err := decimal.NewFromString(clean)
		if err != nil {
			return decimal.Zero, ValidationError("invalid amount %q", v)
		}
		return val, nil
	default:
		return decimal.Zero, ValidationError("invalid amount %v", fmt.Sprint(i))
	}
}
