package catalog

import "time"

// ListingLess reports whether a sorts before b in catalog listings at now.
//
// Items whose window has started come first, most recently announced first.
// Items not yet started follow, soonest first. Items without an announcement
// time come last. Ties fall back to the natural key so that paging is stable.
func ListingLess(a, b *CatalogItem, now time.Time) bool {
	ga, gb := listingGroup(a, now), listingGroup(b, now)
	if ga != gb {
		return ga < gb
	}
	switch ga {
	case 0:
		if !a.AnnouncementAt.Equal(*b.AnnouncementAt) {
			return a.AnnouncementAt.After(*b.AnnouncementAt)
		}
	case 1:
		if !a.AnnouncementAt.Equal(*b.AnnouncementAt) {
			return a.AnnouncementAt.Before(*b.AnnouncementAt)
		}
	}
	return a.NaturalKey < b.NaturalKey
}

func listingGroup(i *CatalogItem, now time.Time) int {
	switch {
	case i.AnnouncementAt == nil:
		return 2
	case !i.AnnouncementAt.After(now):
		return 0
	default:
		return 1
	}
}
