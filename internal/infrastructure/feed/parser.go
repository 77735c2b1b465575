package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/htmlindex"
)

// feedTimeLayout is the upstream date-time format (yyyyMMddHHmmss)
const feedTimeLayout = "20060102150405"

// ResultCodeOK is the header result code of a normal response
const ResultCodeOK = "00"

// ParsedPage is the decoded content of one page
type ParsedPage struct {
	PageNumber    int
	TotalCount    int
	ResultCode    string
	ResultMessage string
	Records       []catalog.FeedRecord
	// InvalidFields counts values that were present but could not be converted
	InvalidFields int
}

// Parse decodes one page. Unconvertible fields become nil on their record;
// only a document that cannot be read at all is an error.
func Parse(raw *RawPage) (*ParsedPage, error) {
	var env envelope
	decoder := xml.NewDecoder(bytes.NewReader(raw.Body))
	decoder.CharsetReader = charsetReader
	if err := decoder.Decode(&env); err != nil {
		return nil, fmt.Errorf("feed: page %d: decode xml: %w", raw.PageNumber, err)
	}

	page := &ParsedPage{
		PageNumber:    raw.PageNumber,
		ResultCode:    strings.TrimSpace(env.ResultCode),
		ResultMessage: strings.TrimSpace(env.ResultMsg),
		Records:       make([]catalog.FeedRecord, 0, len(env.Items)),
	}
	if page.ResultCode == "" && env.ReturnReasonCode != "" {
		page.ResultCode = strings.TrimSpace(env.ReturnReasonCode)
		page.ResultMessage = strings.TrimSpace(env.ReturnAuthMsg)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(env.TotalCount)); err == nil && n > 0 {
		page.TotalCount = n
	}

	for i := range env.Items {
		rec, invalid := toRecord(&env.Items[i])
		page.Records = append(page.Records, rec)
		page.InvalidFields += invalid
	}
	return page, nil
}

func toRecord(it *feedItem) (catalog.FeedRecord, int) {
	c := converter{}
	rec := catalog.FeedRecord{
		NaturalKey:       strings.TrimSpace(it.CollateralMgmtNo),
		LotID:            strings.TrimSpace(it.PlanNo),
		CaseID:           strings.TrimSpace(it.PublicSaleNo),
		HistoryID:        strings.TrimSpace(it.CollateralHistNo),
		Title:            catalog.NormalizeText(it.CollateralName),
		IssuingMethod:    catalog.NormalizeText(it.DisposalMethodName),
		BidReference:     strings.TrimSpace(it.BidManagementNo),
		GoodsDescription: catalog.NormalizeText(it.GoodsName),
		Category:         catalog.NormalizeText(it.CategoryFullName),
		Address:          catalog.NormalizeText(firstNonEmpty(it.RoadAddress, it.LotAddress)),
		InitialFloorFrom: c.amount(it.MinBidPrice),
		AppraisedValue:   c.amount(it.AppraisalAvgAmount),
		FeeRate:          c.rate(it.FeeRate),
		AnnouncementAt:   c.timestamp(it.BeginAt),
		ClosesAt:         c.timestamp(it.CloseAt),
	}
	return rec, c.invalid
}

// converter turns upstream strings into optional values and counts failures
type converter struct {
	invalid int
}

func (c *converter) timestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(feedTimeLayout, s, catalog.FeedLocation)
	if err != nil {
		c.invalid++
		return nil
	}
	return &t
}

func (c *converter) amount(s string) *int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		c.invalid++
		return nil
	}
	v := d.IntPart()
	return &v
}

func (c *converter) rate(s string) decimal.NullDecimal {
	s = strings.Trim(strings.TrimSpace(s), "()%")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		c.invalid++
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// charsetReader handles documents declared in a legacy Korean encoding
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
