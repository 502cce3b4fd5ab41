package folio

import (
	"fmt"
	"time"
)

// Window identifies a PnL aggregation time range: rolling windows measured
// back from "now", or all-time from the first transaction.
type Window string

const (
	Window7D  Window = "7d"
	Window30D Window = "30d"
	Window1Y  Window = "1y"
	WindowAll Window = "all"
)

// Windows lists every supported window, in reporting order.
var Windows = []Window{Window7D, Window30D, Window1Y, WindowAll}

// ParseWindow parses a string into a Window.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Window7D, Window30D, Window1Y, WindowAll:
		return Window(s), nil
	default:
		return "", fmt.Errorf("unknown window: %q, want one of 7d, 30d, 1y, all", s)
	}
}

func (w Window) String() string { return string(w) }

// Span is a closed time range: both boundaries are included, so a transaction
// timestamped exactly at From is in, and one a microsecond earlier is out.
type Span struct{ From, To time.Time }

// Contains reports whether t falls within the span, boundaries included.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.From) && !t.After(s.To)
}

// Span resolves the window boundaries: rolling windows end at now and reach
// back their nominal length; the all-time window starts at first (the earliest
// transaction; zero when the ledger is empty).
func (w Window) Span(now, first time.Time) Span {
	now = now.UTC()
	switch w {
	case Window7D:
		return Span{From: now.AddDate(0, 0, -7), To: now}
	case Window30D:
		return Span{From: now.AddDate(0, 0, -30), To: now}
	case Window1Y:
		return Span{From: now.AddDate(-1, 0, 0), To: now}
	case WindowAll:
		return Span{From: first.UTC(), To: now}
	default:
		panic("unknown window")
	}
}
