// Package format renders sizes and dates for display.
package format

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultDateLayout is used when no layout is configured.
const DefaultDateLayout = "2006-01-02"

// DateOptions controls how dates are rendered. It mirrors the date fields of
// the user's display preferences.
type DateOptions struct {
	Layout   string // time.Format layout; DefaultDateLayout when empty
	Relative bool   // "3 days ago" instead of an absolute date
}

// FileSize renders a byte count the way file browsers do ("2.0 kB").
func FileSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.Bytes(uint64(bytes))
}

// Date renders t according to opts. The zero time renders as "—".
func Date(t time.Time, opts DateOptions) string {
	return DateAt(t, opts, time.Now())
}

// DateAt is Date with an explicit reference time for relative output.
func DateAt(t time.Time, opts DateOptions, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	if opts.Relative {
		return Relative(t, now)
	}
	layout := opts.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// Relative renders t relative to now ("2 hours ago", "3 days from now").
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Count renders an integer with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}
