package repository

import (
	"context"

	"TickerSync/internal/model"

	"gorm.io/gorm"
)

// SignalRepository 交易信号仓储
type SignalRepository interface {
	// Replace 删除同 signal_id 的旧信号后插入（每笔交易至多一个信号）
	Replace(ctx context.Context, sig *model.Signal) error
	// ScoresByTradeIDs trade_id -> score，缺信号的交易不出现在结果中
	ScoresByTradeIDs(ctx context.Context, tradeIDs []string) (map[string]float64, error)
	// GetByTradeID 获取交易的信号
	GetByTradeID(ctx context.Context, tradeID string) (*model.Signal, error)
	// DeleteOrphans 删除交易已不存在的信号，返回删除数
	DeleteOrphans(ctx context.Context) (int64, error)
}

type signalRepository struct {
	db *gorm.DB
}

// NewSignalRepository 创建 SignalRepository 实例
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) Replace(ctx context.Context, sig *model.Signal) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("signal_id = ?", sig.SignalID).Delete(&model.Signal{}).Error; err != nil {
		return err
	}
	return db.Create(sig).Error
}

func (r *signalRepository) ScoresByTradeIDs(ctx context.Context, tradeIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(tradeIDs))
	if len(tradeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TradeID string
		Score   float64
	}
	if err := r.db.WithContext(ctx).Model(&model.Signal{}).
		Select("trade_id, score").
		Where("trade_id IN ?", tradeIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TradeID] = row.Score
	}
	return out, nil
}

func (r *signalRepository) GetByTradeID(ctx context.Context, tradeID string) (*model.Signal, error) {
	var sig model.Signal
	if err := r.db.WithContext(ctx).Where("signal_id = ?", model.SignalIDFor(tradeID)).Take(&sig).Error; err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *signalRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("trade_id NOT IN (?)", r.db.Model(&model.Trade{}).Select("trade_id")).
		Delete(&model.Signal{})
	return res.RowsAffected, res.Error
}
