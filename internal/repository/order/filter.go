package order

import (
	"strings"
	"time"
)

// Filter narrows order queries. Name matches the customer's full name as a
// case-insensitive substring; DueAfter keeps orders due strictly after the
// given date.
type Filter struct {
	Name     string
	DueAfter *time.Time
}

type filterMode int

const (
	filterModeNone filterMode = iota
	filterModeName
	filterModeDueAfter
	filterModeNameAndDueAfter
)

// normalize trims the name so a blank filter behaves exactly like an absent
// one, for Find and Count alike.
func (f Filter) normalize() Filter {
	f.Name = strings.TrimSpace(f.Name)
	return f
}

func (f Filter) mode() filterMode {
	switch {
	case f.Name != "" && f.DueAfter != nil:
		return filterModeNameAndDueAfter
	case f.Name != "":
		return filterModeName
	case f.DueAfter != nil:
		return filterModeDueAfter
	default:
		return filterModeNone
	}
}
