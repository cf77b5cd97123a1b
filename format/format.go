// Package format renders sizes and counts for logs and terminal output.
package format

import (
	"fmt"
	"time"
)

const (
	Byte     = 1
	KiloByte = Byte * 1000
	MegaByte = KiloByte * 1000
	GigaByte = MegaByte * 1000
)

// HumanBytes formats a byte count with decimal units.
func HumanBytes(b int64) string {
	switch {
	case b >= GigaByte:
		return fmt.Sprintf("%s GB", decimalPlace(float64(b)/GigaByte))
	case b >= MegaByte:
		return fmt.Sprintf("%s MB", decimalPlace(float64(b)/MegaByte))
	case b >= KiloByte:
		return fmt.Sprintf("%s KB", decimalPlace(float64(b)/KiloByte))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// HumanNumber abbreviates large counts, e.g. word occurrences or merges.
func HumanNumber(n uint64) string {
	const (
		Thousand = 1000
		Million  = Thousand * 1000
		Billion  = Million * 1000
	)

	switch {
	case n >= Billion:
		return decimalPlace(float64(n)/Billion) + "B"
	case n >= Million:
		return decimalPlace(float64(n)/Million) + "M"
	case n >= Thousand:
		return decimalPlace(float64(n)/Thousand) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func decimalPlace(number float64) string {
	switch {
	case number >= 100:
		return fmt.Sprintf("%.0f", number)
	case number >= 10:
		return fmt.Sprintf("%.1f", number)
	default:
		return fmt.Sprintf("%.2f", number)
	}
}

// HumanTime describes how long ago t was, or returns zeroValue for the zero
// time.
func HumanTime(t time.Time, zeroValue string) string {
	if t.IsZero() {
		return zeroValue
	}

	d := time.Since(t)
	suffix := " ago"
	if d < 0 {
		d, suffix = -d, " from now"
	}

	switch {
	case d < time.Second:
		return "Less than a second" + suffix
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds())) + suffix
	case d < 2*time.Minute:
		return "About a minute" + suffix
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes())) + suffix
	case d < 2*time.Hour:
		return "About an hour" + suffix
	case d < 48*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours())) + suffix
	default:
		return fmt.Sprintf("%d days", int(d.Hours())/24) + suffix
	}
}
