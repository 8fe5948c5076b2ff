package model

import (
	"time"

	"gorm.io/datatypes"
)

// SourceType 申报来源
type SourceType string

const (
	SourceHouse  SourceType = "house"
	SourceSenate SourceType = "senate"
)

// 申报状态（对原始生命周期的简化）
const (
	FilingStatusFetched = "fetched"
	FilingStatusParsed  = "parsed"
)

// DefaultDocType 默认文档类型：定期交易报告
const DefaultDocType = "PTR"

// 交易方向
const (
	TxnBuy   = "buy"
	TxnSell  = "sell"
	TxnOther = "other"
)

// MapMethod 证券代码来源
type MapMethod string

const (
	MapMethodExact     MapMethod = "exact"
	MapMethodFuzzy     MapMethod = "fuzzy"
	MapMethodExtracted MapMethod = "extracted"
	MapMethodNone      MapMethod = "none"
)

// Filing 申报记录，filing_id 为去重键，创建后不再刷新字段（先写者胜）
type Filing struct {
	FilingID      string     `gorm:"column:filing_id;primaryKey;type:varchar(64)" json:"filing_id"`
	Source        SourceType `gorm:"column:source;type:varchar(16);index;not null" json:"source"`
	FilerMemberID *string    `gorm:"column:filer_member_id;type:varchar(32);index" json:"filer_member_id,omitempty"`
	FilerNameRaw  string     `gorm:"column:filer_name_raw;type:varchar(256);not null" json:"filer_name_raw"`
	FiledDate     time.Time  `gorm:"column:filed_date;type:date;not null" json:"filed_date"`
	URL           *string    `gorm:"column:url;type:varchar(512)" json:"url,omitempty"`
	FileLocalPath *string    `gorm:"column:file_local_path;type:varchar(512)" json:"file_local_path,omitempty"`
	DocType       string     `gorm:"column:doc_type;type:varchar(16);default:PTR" json:"doc_type"`
	Status        string     `gorm:"column:status;type:varchar(16);default:fetched" json:"status"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Filing) TableName() string { return "filings" }

// Trade 从申报文本中解析出的单笔交易；同一申报重新解析时整体替换
type Trade struct {
	TradeID      string     `gorm:"column:trade_id;primaryKey;type:varchar(64)" json:"trade_id"`
	FilingID     string     `gorm:"column:filing_id;type:varchar(64);index;not null" json:"filing_id"`
	TxnDate      time.Time  `gorm:"column:txn_date;type:date;not null" json:"txn_date"`
	IssuerRaw    string     `gorm:"column:issuer_raw;type:varchar(256);not null" json:"issuer_raw"`
	Ticker       *string    `gorm:"column:ticker;type:varchar(16);index" json:"ticker,omitempty"`
	SecurityType string     `gorm:"column:security_type;type:varchar(16);default:stock" json:"security_type"`
	TxnType      string     `gorm:"column:txn_type;type:varchar(8)" json:"txn_type"`
	AmountBand   string     `gorm:"column:amount_band;type:varchar(32)" json:"amount_band"`
	CommentsRaw  *string    `gorm:"column:comments_raw;type:text" json:"comments_raw,omitempty"`
	Confidence   float64    `gorm:"column:confidence;default:1" json:"confidence"`
	MapMethod    *MapMethod `gorm:"column:map_method;type:varchar(16)" json:"map_method,omitempty"`
}

func (Trade) TableName() string { return "trades" }

// HasTicker 是否已有证券代码
func (t *Trade) HasTicker() bool {
	return t.Ticker != nil && *t.Ticker != ""
}

// SignalIDFor 信号ID由交易ID确定性派生，保证每笔交易最多一个信号
func SignalIDFor(tradeID string) string {
	return "S-" + tradeID
}

// Signal 单笔交易的打分结果，每次打分运行整体替换
type Signal struct {
	SignalID  string         `gorm:"column:signal_id;primaryKey;type:varchar(80)" json:"signal_id"`
	TradeID   string         `gorm:"column:trade_id;type:varchar(64);index;not null" json:"trade_id"`
	Score     float64        `gorm:"column:score;not null" json:"score"` // 0-5
	Tags      string         `gorm:"column:tags;type:varchar(256)" json:"tags"`
	Reason    string         `gorm:"column:reason;type:text" json:"reason"`
	Factors   datatypes.JSON `gorm:"column:factors" json:"factors,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Signal) TableName() string { return "signals" }

// RawFiling 数据源返回的原始申报记录
type RawFiling struct {
	FilingID      string  `json:"filing_id"`
	FilerMemberID *string `json:"filer_member_id,omitempty"`
	FilerNameRaw  string  `json:"filer_name_raw"`
	FiledDate     string  `json:"filed_date"` // YYYY-MM-DD
	URL           *string `json:"url,omitempty"`
	FileLocalPath *string `json:"file_local_path,omitempty"`
	DocType       *string `json:"doc_type,omitempty"`
}

// DateLayout 申报及交易日期格式
const DateLayout = "2006-01-02"

// DateOnly 取 t 在 loc 时区下的日历日期，统一表示为 UTC 零点
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween 两个日历日期之间的天数（to - from）
func DaysBetween(from, to time.Time) int {
	f := DateOnly(from, nil)
	t := DateOnly(to, nil)
	return int(t.Sub(f).Hours() / 24)
}
