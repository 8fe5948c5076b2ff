package service

import (
	"context"
	"fmt"

	"TickerSync/internal/issuer"
	"TickerSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MappingService 为缺少证券代码的交易解析代码；已有代码（文本中直接给出）的交易不再解析
type MappingService struct {
	db        *gorm.DB
	loader    issuer.Loader
	threshold float64
	logger    *logrus.Logger
}

// NewMappingService 创建映射服务；threshold<=0 时使用默认阈值
func NewMappingService(db *gorm.DB, loader issuer.Loader, threshold float64, logger *logrus.Logger) *MappingService {
	return &MappingService{db: db, loader: loader, threshold: threshold, logger: logger}
}

// MapAll 返回本次新映射的交易数。参考表每次调用加载一次
func (s *MappingService) MapAll(ctx context.Context, allowFuzzy bool) (int, error) {
	ref, err := s.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("加载发行人参考表失败: %w", err)
	}
	resolver := issuer.NewResolver(ref, issuer.WithThreshold(s.threshold))

	mapped := 0
	err = repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		trades, err := r.Trades.ListUnmapped(ctx)
		if err != nil {
			return fmt.Errorf("查询未映射交易失败: %w", err)
		}
		for _, t := range trades {
			res := resolver.Resolve(t.IssuerRaw, allowFuzzy)
			if !res.Found() {
				s.logger.WithFields(logrus.Fields{
					"trade_id": t.TradeID,
					"issuer":   t.IssuerRaw,
				}).Debug("Map: 未解析到证券代码")
				continue
			}
			if err := r.Trades.UpdateMapping(ctx, t.TradeID, res.Ticker, res.Confidence, res.Method); err != nil {
				return fmt.Errorf("更新交易%s映射失败: %w", t.TradeID, err)
			}
			mapped++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Map: 映射 %d 笔交易（参考表 %d 条）", mapped, ref.Len())
	return mapped, nil
}
