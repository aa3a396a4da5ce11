package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WholeHours returns the number of whole hours between start and end,
// truncating partial hours. 90 minutes counts as 1 hour.
func WholeHours(start, end time.Time) int64 {
	diff := end.Unix() - start.Unix()
	if diff <= 0 {
		return 0
	}
	return diff / 3600
}

// ComputeAmount returns whole hours between start and end multiplied by the
// hourly rate. Zero or negative durations price to zero; callers must treat a
// zero amount as an invalid booking.
func ComputeAmount(start, end time.Time, ratePerHour decimal.Decimal) decimal.Decimal {
	hours := WholeHours(start, end)
	if hours <= 0 {
		return decimal.Zero
	}
	return ratePerHour.Mul(decimal.NewFromInt(hours))
}

// FormatLeones renders an amount as Sierra Leone Leones: two decimal places,
// thousands separators, "Le" prefix. Display only; stored amounts keep the
// exact decimal value.
func FormatLeones(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	if neg {
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)

	return "Le " + b.String()
}
