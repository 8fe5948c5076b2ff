package service

import (
	"context"
	"fmt"

	"TickerSync/internal/interfaces"
	"TickerSync/internal/parser"
	"TickerSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ParseService 解析全部申报为交易；每个申报的交易整体替换，可安全重复运行
type ParseService struct {
	db        *gorm.DB
	text      interfaces.TextExtractor
	extractor *parser.Extractor
	logger    *logrus.Logger
}

// NewParseService 创建解析服务
func NewParseService(db *gorm.DB, text interfaces.TextExtractor, extractor *parser.Extractor, logger *logrus.Logger) *ParseService {
	if extractor == nil {
		extractor = parser.NewExtractor()
	}
	return &ParseService{db: db, text: text, extractor: extractor, logger: logger}
}

// ParseAll 不区分状态地解析所有申报，返回产出的交易数
func (s *ParseService) ParseAll(ctx context.Context) (int, error) {
	total := 0
	err := repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		filings, err := r.Filings.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("查询申报列表失败: %w", err)
		}
		for _, f := range filings {
			path := ""
			if f.FileLocalPath != nil {
				path = *f.FileLocalPath
			}
			// 取不到文本按空文本处理：该申报的旧交易同样被清空
			text, ok := s.text.ExtractText(ctx, path)
			if !ok {
				s.logger.WithField("filing_id", f.FilingID).Debug("Parse: 申报无可用文本")
			}

			trades := s.extractor.Extract(text, f.FilingID)
			if err := r.Trades.ReplaceForFiling(ctx, f.FilingID, trades); err != nil {
				return fmt.Errorf("替换申报%s的交易失败: %w", f.FilingID, err)
			}
			if err := r.Filings.MarkParsed(ctx, f.FilingID); err != nil {
				return fmt.Errorf("更新申报%s状态失败: %w", f.FilingID, err)
			}
			total += len(trades)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Parse: 解析出 %d 笔交易", total)
	return total, nil
}
