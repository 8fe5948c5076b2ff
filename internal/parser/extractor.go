package parser

import (
	"regexp"
	"strings"
	"time"

	"TickerSync/internal/model"
	"TickerSync/internal/utils/textnorm"

	"github.com/google/uuid"
)

// tradeLine 匹配形如：
// 2025-08-20 | NVIDIA Corporation | NVDA | BUY | $50k-$100k
var tradeLine = regexp.MustCompile(
	`(?i)(?P<date>\d{4}-\d{2}-\d{2})\s+\|\s+(?P<issuer>[^|]+)\|\s*(?P<ticker>[A-Z.\-]{1,10})?\s*\|\s*(?P<type>BUY|SELL|Other)\s*\|\s*(?P<band>\$[\dk\-\$]+)`,
)

const (
	confidenceWithTicker    = 0.95
	confidenceWithoutTicker = 0.75
)

// IDFunc 交易ID生成器
type IDFunc func() string

// Extractor 从申报纯文本中抽取交易行；不匹配的行直接忽略
type Extractor struct {
	newID IDFunc
}

// NewExtractor 创建 Extractor，默认使用 uuid 作为交易ID
func NewExtractor() *Extractor {
	return &Extractor{newID: uuid.NewString}
}

// NewExtractorWithIDs 使用自定义ID生成器
func NewExtractorWithIDs(fn IDFunc) *Extractor {
	return &Extractor{newID: fn}
}

// Extract 解析 text 中所有不重叠的交易行，归属 filingID
func (e *Extractor) Extract(text, filingID string) []*model.Trade {
	if text == "" {
		return nil
	}
	idx := groupIndexes()
	var trades []*model.Trade
	for _, m := range tradeLine.FindAllStringSubmatch(text, -1) {
		d, err := time.Parse(model.DateLayout, m[idx.date])
		if err != nil {
			// 形如 2024-13-45 的非法日期按不匹配处理
			continue
		}
		issuer := textnorm.NormalizeIssuer(strings.TrimSpace(m[idx.issuer]))
		ticker := strings.TrimSpace(m[idx.ticker])
		band := strings.ReplaceAll(m[idx.band], " ", "")

		t := &model.Trade{
			TradeID:      e.newID(),
			FilingID:     filingID,
			TxnDate:      d,
			IssuerRaw:    issuer,
			SecurityType: "stock",
			TxnType:      strings.ToLower(m[idx.txnType]),
			AmountBand:   band,
			Confidence:   confidenceWithoutTicker,
		}
		if ticker != "" {
			method := model.MapMethodExtracted
			t.Ticker = &ticker
			t.Confidence = confidenceWithTicker
			t.MapMethod = &method
		}
		trades = append(trades, t)
	}
	return trades
}

type tradeLineGroups struct {
	date, issuer, ticker, txnType, band int
}

func groupIndexes() tradeLineGroups {
	return tradeLineGroups{
		date:    tradeLine.SubexpIndex("date"),
		issuer:  tradeLine.SubexpIndex("issuer"),
		ticker:  tradeLine.SubexpIndex("ticker"),
		txnType: tradeLine.SubexpIndex("type"),
		band:    tradeLine.SubexpIndex("band"),
	}
}
