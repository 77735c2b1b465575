package catalog

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// FeedLocation is the zone upstream timestamps are expressed in.
// Korea observes no daylight saving, so a fixed offset is exact.
var FeedLocation = time.FixedZone("KST", 9*60*60)

// searchTimeLayouts are tried in order when parsing a search bound
var searchTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102150405",
}

// SearchCriteria narrows a catalog listing. Zero values mean "no filter".
type SearchCriteria struct {
	// Title matches case-insensitively anywhere in the title
	Title string
	// IssuingMethod matches exactly
	IssuingMethod string
	// Region parts (province, district, neighbourhood) must each appear
	// in the address, case-insensitively
	Region []string
	// PriceFrom and PriceTo bound the upstream initial floor, inclusive
	PriceFrom *int64
	PriceTo   *int64
	// AppraisedFrom and AppraisedTo bound the appraised value, inclusive
	AppraisedFrom *int64
	AppraisedTo   *int64
	// AnnouncementFrom keeps items announced at or after the bound
	AnnouncementFrom *time.Time
	// ClosesUntil keeps items closing at or before the bound
	ClosesUntil *time.Time
}

// Normalized returns a copy with trimmed, NFC-normalised text filters
func (c SearchCriteria) Normalized() SearchCriteria {
	c.Title = NormalizeText(c.Title)
	c.IssuingMethod = NormalizeText(c.IssuingMethod)
	var region []string
	for _, part := range c.Region {
		if part = NormalizeText(part); part != "" {
			region = append(region, part)
		}
	}
	c.Region = region
	return c
}

// IsEmpty reports whether no filter is set
func (c SearchCriteria) IsEmpty() bool {
	return c.Title == "" && c.IssuingMethod == "" && len(c.Region) == 0 &&
		c.PriceFrom == nil && c.PriceTo == nil &&
		c.AppraisedFrom == nil && c.AppraisedTo == nil &&
		c.AnnouncementFrom == nil && c.ClosesUntil == nil
}

// NormalizeText trims surrounding space and applies Unicode NFC so that
// decomposed Hangul from one source matches precomposed text from another.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseSearchTime parses a user supplied date bound.
// It accepts "2006-01-02T15:04:05", "2006-01-02 15:04:05" and "20060102150405"
// in the feed zone. ok is false for empty or unrecognised input.
func ParseSearchTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range searchTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, FeedLocation); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
