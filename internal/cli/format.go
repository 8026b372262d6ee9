// Package cli provides the command-line interface for the trade ledger.
package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a decimal amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatPnL formats a signed P&L amount.
func FormatPnL(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// FormatPercent formats a percentage.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// FormatDate formats a date.
func FormatDate(t time.Time) string {
	return t.Format("02-Jan-2006")
}

// FormatDateTime formats a datetime.
func FormatDateTime(t time.Time) string {
	return t.Format("02-Jan-2006 15:04:05")
}

// FormatDuration formats a hold duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// weekdayNames maps day-of-week buckets (0=Sunday) to short names.
var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FormatWeekday formats a day-of-week bucket.
func FormatWeekday(bucket int) string {
	if bucket < 0 || bucket >= len(weekdayNames) {
		return fmt.Sprintf("%d", bucket)
	}
	return weekdayNames[bucket]
}

// FormatHour formats an hour-of-day bucket.
func FormatHour(bucket int) string {
	return fmt.Sprintf("%02d:00", bucket)
}
