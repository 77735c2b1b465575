package catalog

import "time"

// WindowStatus is the bidding window state of an item at a point in time.
// It is derived on every read and never stored.
type WindowStatus string

const (
	WindowStatusUnknown  WindowStatus = "unknown"
	WindowStatusUpcoming WindowStatus = "upcoming"
	WindowStatusOpen     WindowStatus = "open"
	WindowStatusClosed   WindowStatus = "closed"
)

// DeriveStatus computes the window status from the two window bounds.
// Both bounds are inclusive: an item is open at exactly announcementAt and at exactly closesAt.
func DeriveStatus(now time.Time, announcementAt, closesAt *time.Time) WindowStatus {
	if announcementAt == nil || closesAt == nil {
		return WindowStatusUnknown
	}
	if now.Before(*announcementAt) {
		return WindowStatusUpcoming
	}
	if now.After(*closesAt) {
		return WindowStatusClosed
	}
	return WindowStatusOpen
}

// String returns the string representation
func (s WindowStatus) String() string {
	return string(s)
}

// IsOpen reports whether bids may be placed
func (s WindowStatus) IsOpen() bool {
	return s == WindowStatusOpen
}
