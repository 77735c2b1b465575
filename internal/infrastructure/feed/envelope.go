package feed

// envelope mirrors the upstream XML document:
//
//	<response>
//	  <header><resultCode/><resultMsg/></header>
//	  <body><pageNo/><numOfRows/><totalCount/><items><item>...</item></items></body>
//	</response>
//
// Every leaf is decoded as a string and converted afterwards so that one
// malformed value cannot fail the whole document.
type envelope struct {
	ResultCode string     `xml:"header>resultCode"`
	ResultMsg  string     `xml:"header>resultMsg"`
	PageNo     string     `xml:"body>pageNo"`
	NumOfRows  string     `xml:"body>numOfRows"`
	TotalCount string     `xml:"body>totalCount"`
	Items      []feedItem `xml:"body>items>item"`

	// Gateway-level failures use a different root with these fields
	ReturnReasonCode string `xml:"cmmMsgHeader>returnReasonCode"`
	ReturnAuthMsg    string `xml:"cmmMsgHeader>returnAuthMsg"`
}

type feedItem struct {
	RowNumber          string `xml:"RNUM"`
	PlanNo             string `xml:"PLNM_NO"`
	PublicSaleNo       string `xml:"PBCT_NO"`
	PublicSaleCondNo   string `xml:"PBCT_CDTN_NO"`
	CollateralNo       string `xml:"CLTR_NO"`
	CollateralHistNo   string `xml:"CLTR_HSTR_NO"`
	ScreenGroupCode    string `xml:"SCRN_GRP_CD"`
	CategoryFullName   string `xml:"CTGR_FULL_NM"`
	BidManagementNo    string `xml:"BID_MNMT_NO"`
	CollateralName     string `xml:"CLTR_NM"`
	CollateralMgmtNo   string `xml:"CLTR_MNMT_NO"`
	LotAddress         string `xml:"LDNM_ADRS"`
	RoadAddress        string `xml:"NMRD_ADRS"`
	LotPNU             string `xml:"LDNM_PNU"`
	DisposalMethodCode string `xml:"DPSL_MTD_CD"`
	DisposalMethodName string `xml:"DPSL_MTD_NM"`
	BidMethodName      string `xml:"BID_MTD_NM"`
	MinBidPrice        string `xml:"MIN_BID_PRC"`
	AppraisalAvgAmount string `xml:"APSL_ASES_AVG_AMT"`
	FeeRate            string `xml:"FEE_RATE"`
	BeginAt            string `xml:"PBCT_BEGN_DTM"`
	CloseAt            string `xml:"PBCT_CLS_DTM"`
	StatusName         string `xml:"PBCT_CLTR_STAT_NM"`
	FailedBidCount     string `xml:"USCBD_CNT"`
	InquiryCount       string `xml:"IQRY_CNT"`
	GoodsName          string `xml:"GOODS_NM"`
	Manufacturer       string `xml:"MANF"`
	Model              string `xml:"MDL"`
	RegistrationYear   string `xml:"NRGT"`
	Gearbox            string `xml:"GRBX"`
	Displacement       string `xml:"ENDPC"`
	Mileage            string `xml:"VHCL_MLGE"`
	Fuel               string `xml:"FUEL"`
	SecurityName       string `xml:"SCRT_NM"`
	BusinessType       string `xml:"TPBZ"`
	ItemName           string `xml:"ITM_NM"`
	MembershipName     string `xml:"MMB_RGT_NM"`
	ImageFiles         string `xml:"CLTR_IMG_FILES"`
}
