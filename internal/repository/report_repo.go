package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SignalRow 报表行：交易 + 信号 + 申报人
type SignalRow struct {
	TradeID      string    `json:"trade_id"`
	FilingID     string    `json:"filing_id"`
	TxnDate      time.Time `json:"txn_date"`
	IssuerRaw    string    `json:"issuer"`
	Ticker       *string   `json:"ticker,omitempty"`
	TxnType      string    `json:"txn_type"`
	AmountBand   string    `json:"amount_band"`
	Score        float64   `json:"score"`
	Tags         string    `json:"tags"`
	MemberID     *string   `json:"member_id,omitempty"`
	FilerNameRaw string    `json:"filer_name_raw"`
	First        *string   `json:"-"`
	Last         *string   `json:"-"`
}

// ReportRepository 报表查询
type ReportRepository interface {
	// TopSignals txn_date >= since 的交易按信号分倒序取前 limit 条，未打分的交易按 0 分参与排序
	TopSignals(ctx context.Context, since time.Time, limit int) ([]SignalRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建 ReportRepository 实例
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) TopSignals(ctx context.Context, since time.Time, limit int) ([]SignalRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []SignalRow
	err := r.db.WithContext(ctx).
		Table("trades").
		Select(`trades.trade_id, trades.filing_id, trades.txn_date, trades.issuer_raw, trades.ticker,
			trades.txn_type, trades.amount_band, COALESCE(signals.score, 0) AS score, COALESCE(signals.tags, '') AS tags,
			filings.filer_member_id AS member_id, filings.filer_name_raw,
			members.first, members.last`).
		Joins("LEFT JOIN signals ON signals.trade_id = trades.trade_id").
		Joins("JOIN filings ON filings.filing_id = trades.filing_id").
		Joins("LEFT JOIN members ON members.member_id = filings.filer_member_id").
		Where("trades.txn_date >= ?", since).
		Order("score DESC, trades.txn_date DESC, trades.trade_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
