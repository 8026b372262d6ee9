package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Property: FormatPnL always carries a sign prefix for gains, keeps the
// minus for losses, and renders exactly two decimal places.
func TestProperty_PnLFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPnL renders sign and two decimals", prop.ForAll(
		func(units int64) bool {
			amount := decimal.New(units, -2)
			formatted := FormatPnL(amount)

			switch {
			case amount.IsPositive():
				if !strings.HasPrefix(formatted, "+") {
					t.Logf("Expected + prefix for %s, got %s", amount, formatted)
					return false
				}
			case amount.IsNegative():
				if !strings.HasPrefix(formatted, "-") {
					t.Logf("Expected - prefix for %s, got %s", amount, formatted)
					return false
				}
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected two decimal places for %s, got %s", amount, formatted)
				return false
			}

			// The formatted value parses back to the original.
			parsed, err := decimal.NewFromString(strings.TrimPrefix(formatted, "+"))
			if err != nil || !parsed.Equal(amount) {
				t.Logf("Round trip failed for %s: got %s (%v)", amount, formatted, err)
				return false
			}
			return true
		},
		gen.Int64Range(-1_000_000_00, 1_000_000_00),
	))

	properties.TestingRun(t)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{5*time.Minute + 30*time.Second, "5m 30s"},
		{3*time.Hour + 15*time.Minute, "3h 15m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatBuckets(t *testing.T) {
	if got := FormatHour(9); got != "09:00" {
		t.Errorf("FormatHour(9) = %q", got)
	}
	if got := FormatWeekday(1); got != "Mon" {
		t.Errorf("FormatWeekday(1) = %q", got)
	}
	if got := FormatWeekday(9); got != "9" {
		t.Errorf("Out-of-range weekday should fall back to the number: %q", got)
	}
}
