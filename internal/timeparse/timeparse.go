// Package timeparse reads and formats the durations and due dates used on
// the command line.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Unset is the value stored for an absent time.
const Unset int64 = -1

// ErrInvalidTime indicates an unparseable duration or date.
var ErrInvalidTime = errors.New("invalid time")

var durationPattern = regexp.MustCompile(`^(\d+)(ms|s|min|m|h)$`)

var unitMs = map[string]int64{
	"ms":  1,
	"s":   1000,
	"m":   60 * 1000,
	"min": 60 * 1000,
	"h":   60 * 60 * 1000,
}

// ParseDuration reads values like "500ms", "90s", "30min" or "2h" into
// milliseconds. An empty string or "none" is Unset.
func ParseDuration(s string) (int64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "none" {
		return Unset, nil
	}
	m := durationPattern.FindStringSubmatch(v)
	if m == nil {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidTime, s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrInvalidTime, s)
	}
	return n * unitMs[m[2]], nil
}

const (
	dateLayout     = "20060102"
	dateTimeLayout = "20060102-150405"
)

var dateTimePattern = regexp.MustCompile(`^(\d{8}-\d{6})\+(\d{3})$`)

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDue reads a due date relative to now, in now's location. Accepted
// forms are yyyymmdd, yyyymmdd-hhmmss+mmm (which must lie in the future) and
// natural language such as "next friday" or "in 3 days". An empty string or
// "none" is Unset.
func ParseDue(s string, now time.Time) (int64, error) {
	v := strings.TrimSpace(s)
	if v == "" || strings.EqualFold(v, "none") {
		return Unset, nil
	}

	if m := dateTimePattern.FindStringSubmatch(v); m != nil {
		t, err := time.ParseInLocation(dateTimeLayout, m[1], now.Location())
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTime, s, err)
		}
		ms, _ := strconv.ParseInt(m[2], 10, 64)
		due := t.UnixMilli() + ms
		if due <= now.UnixMilli() {
			return 0, fmt.Errorf("%w: %q is in the past", ErrInvalidTime, s)
		}
		return due, nil
	}

	if len(v) == len(dateLayout) {
		if t, err := time.ParseInLocation(dateLayout, v, now.Location()); err == nil {
			return t.UnixMilli(), nil
		}
	}

	r, err := parser.Parse(v, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTime, s, err)
	}
	if r == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return r.Time.UnixMilli(), nil
}

// FormatDuration renders milliseconds as "1h2min3s". Sub-second remainders
// are dropped; zero and Unset render as "0s" and "none".
func FormatDuration(ms int64) string {
	if ms == Unset {
		return "none"
	}
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, m, s := total/3600, total/60%60, total%60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dmin", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

// FormatTime renders epoch milliseconds in loc, or "none" when unset.
func FormatTime(ms int64, loc *time.Location) string {
	if ms == Unset {
		return "none"
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04:05")
}
