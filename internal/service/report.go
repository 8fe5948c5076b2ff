package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	reportWindowDays = 30
	reportTopN       = 10
	reportSheet      = "Signals"
)

// ReportItem 日报中的一条信号
type ReportItem struct {
	Rank       int      `json:"rank"`
	TradeID    string   `json:"trade_id"`
	Member     string   `json:"member"`
	MemberID   *string  `json:"member_id,omitempty"`
	TxnDate    string   `json:"txn_date"`
	Issuer     string   `json:"issuer"`
	Ticker     string   `json:"ticker"`
	TxnType    string   `json:"txn_type"`
	AmountBand string   `json:"amount_band"`
	Score      float64  `json:"score"`
	Tags       []string `json:"tags"`
}

// DailyReport 近 30 天信号分最高的交易
type DailyReport struct {
	AsOf  string        `json:"as_of"`
	Since string        `json:"since"`
	Items []*ReportItem `json:"items"`
}

// ReportService 日报生成与导出
type ReportService struct {
	db    *gorm.DB
	clock Clock
}

// NewReportService 创建日报服务
func NewReportService(db *gorm.DB, clock Clock) *ReportService {
	return &ReportService{db: db, clock: clock}
}

// Daily 生成日报
func (s *ReportService) Daily(ctx context.Context) (*DailyReport, error) {
	today := s.clock.Today()
	since := today.AddDate(0, 0, -reportWindowDays)
	rows, err := repository.NewReportRepository(s.db).TopSignals(ctx, since, reportTopN)
	if err != nil {
		return nil, fmt.Errorf("查询信号失败: %w", err)
	}

	report := &DailyReport{
		AsOf:  today.Format(model.DateLayout),
		Since: since.Format(model.DateLayout),
		Items: make([]*ReportItem, 0, len(rows)),
	}
	for i, row := range rows {
		item := &ReportItem{
			Rank:       i + 1,
			TradeID:    row.TradeID,
			Member:     memberName(row),
			MemberID:   row.MemberID,
			TxnDate:    row.TxnDate.Format(model.DateLayout),
			Issuer:     row.IssuerRaw,
			TxnType:    row.TxnType,
			AmountBand: row.AmountBand,
			Score:      row.Score,
			Tags:       []string{},
		}
		if row.Ticker != nil {
			item.Ticker = *row.Ticker
		}
		if row.Tags != "" {
			item.Tags = strings.Split(row.Tags, ",")
		}
		report.Items = append(report.Items, item)
	}
	return report, nil
}

func memberName(row repository.SignalRow) string {
	if row.First != nil && row.Last != nil {
		return strings.TrimSpace(*row.First + " " + *row.Last)
	}
	return row.FilerNameRaw
}

var reportHeader = []interface{}{"Rank", "Member", "Txn Date", "Issuer", "Ticker", "Type", "Amount", "Score", "Tags"}

// ExportXLSX 把日报写成单工作表 xlsx
func ExportXLSX(w io.Writer, report *DailyReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("设置工作表失败: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("创建样式失败: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, "A1", "I1", style); err != nil {
		return fmt.Errorf("设置样式失败: %w", err)
	}

	for i, item := range report.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			item.Rank, item.Member, item.TxnDate, item.Issuer, item.Ticker,
			item.TxnType, item.AmountBand, item.Score, strings.Join(item.Tags, ","),
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("写入第%d行失败: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(reportSheet, "B", "B", 24)
	_ = f.SetColWidth(reportSheet, "D", "D", 32)

	return f.Write(w)
}
