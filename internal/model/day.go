package model

import (
	"fmt"
	"time"
)

// Day is a calendar date with day granularity. It is a small comparable
// value type so it can be used directly as a map key by the aggregation
// stage, independent of time zones and display formats.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// dayLayouts are the input date formats accepted, tried in order. The first
// is the canonical one; the others appear in real exports of the upstream
// systems.
var dayLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2 January 2006",
}

// ParseDay parses a date trying each accepted layout in order. The result is
// normalized (e.g. "32/01/2019" fails rather than rolling over).
func ParseDay(s string) (Day, error) {
	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return Day{Year: t.Year(), Month: t.Month(), Dom: t.Day()}, nil
	}
	return Day{}, fmt.Errorf("cannot parse date %q", s)
}

// ISO renders the day in ISO 8601 ("2006-01-02"). This is the only output
// format the pipeline emits, regardless of which input layout matched.
func (d Day) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Dom)
}

// Before reports whether d sorts before other in calendar order.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Dom < other.Dom
}

func (d Day) String() string { return d.ISO() }
