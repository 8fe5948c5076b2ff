package repository

import (
	"context"

	"TickerSync/internal/model"

	"gorm.io/gorm"
)

const tradeBatchSize = 200

// TradeRepository 交易仓储
type TradeRepository interface {
	// ReplaceForFiling 删除申报下全部交易后插入新集合（须在阶段事务内调用）
	ReplaceForFiling(ctx context.Context, filingID string, trades []*model.Trade) error
	// ListUnmapped 尚无证券代码的交易
	ListUnmapped(ctx context.Context) ([]*model.Trade, error)
	// UpdateMapping 写入解析出的证券代码、置信度与来源
	UpdateMapping(ctx context.Context, tradeID, ticker string, confidence float64, method model.MapMethod) error
	// ListAll 全部交易
	ListAll(ctx context.Context) ([]*model.Trade, error)
	// ListByFiling 申报下的交易
	ListByFiling(ctx context.Context, filingID string) ([]*model.Trade, error)
	// ListByMember 议员名下的交易（经 filings.filer_member_id 关联）
	ListByMember(ctx context.Context, memberID string) ([]*model.Trade, error)
}

type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository 创建 TradeRepository 实例
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) ReplaceForFiling(ctx context.Context, filingID string, trades []*model.Trade) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("filing_id = ?", filingID).Delete(&model.Trade{}).Error; err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	return db.CreateInBatches(trades, tradeBatchSize).Error
}

func (r *tradeRepository) ListUnmapped(ctx context.Context) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Where("ticker IS NULL OR ticker = ''").
		Order("filing_id ASC, txn_date ASC, trade_id ASC").
		Find(&trades).Error
	return trades, err
}

func (r *tradeRepository) UpdateMapping(ctx context.Context, tradeID, ticker string, confidence float64, method model.MapMethod) error {
	return r.db.WithContext(ctx).Model(&model.Trade{}).
		Where("trade_id = ?", tradeID).
		Updates(map[string]interface{}{
			"ticker":     ticker,
			"confidence": confidence,
			"map_method": string(method),
		}).Error
}

func (r *tradeRepository) ListAll(ctx context.Context) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Order("filing_id ASC, txn_date ASC, trade_id ASC").
		Find(&trades).Error
	return trades, err
}

func (r *tradeRepository) ListByFiling(ctx context.Context, filingID string) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Where("filing_id = ?", filingID).
		Order("txn_date ASC, trade_id ASC").
		Find(&trades).Error
	return trades, err
}

func (r *tradeRepository) ListByMember(ctx context.Context, memberID string) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Joins("JOIN filings ON filings.filing_id = trades.filing_id").
		Where("filings.filer_member_id = ?", memberID).
		Order("trades.txn_date ASC, trades.trade_id ASC").
		Find(&trades).Error
	return trades, err
}
