package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedRecord is one upstream listing after parsing.
// Optional upstream values that were absent or unparsable are nil.
type FeedRecord struct {
	NaturalKey       string
	LotID            string
	CaseID           string
	HistoryID        string
	Title            string
	IssuingMethod    string
	BidReference     string
	GoodsDescription string
	Category         string
	Address          string
	InitialFloorFrom *int64
	AppraisedValue   *int64
	FeeRate          decimal.NullDecimal
	AnnouncementAt   *time.Time
	ClosesAt         *time.Time
}

// HasNaturalKey reports whether the record can be reconciled at all
func (r FeedRecord) HasNaturalKey() bool {
	return r.NaturalKey != ""
}
