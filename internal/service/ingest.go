package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TickerSync/internal/adapter"
	"TickerSync/internal/interfaces"
	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngestService 申报入库：按 filing_id 去重，已存在的申报不刷新任何字段
type IngestService struct {
	db           *gorm.DB
	sources      *adapter.SourceRegistry
	stageTimeout time.Duration
	logger       *logrus.Logger
}

// NewIngestService 创建入库服务；stageTimeout<=0 表示数据源拉取不设超时
func NewIngestService(db *gorm.DB, sources *adapter.SourceRegistry, stageTimeout time.Duration, logger *logrus.Logger) *IngestService {
	return &IngestService{db: db, sources: sources, stageTimeout: stageTimeout, logger: logger}
}

type sourceBatch struct {
	source model.SourceType
	rows   []model.RawFiling
}

// IngestSince 从 names 指定的数据源（为空则全部）拉取 filed_date >= cutoff 的申报，返回新建数量。
// 拉取在事务外进行，写入在一个事务内完成
func (s *IngestService) IngestSince(ctx context.Context, cutoff time.Time, names []string) (int, error) {
	sources, err := s.sources.Select(names)
	if err != nil {
		return 0, err
	}

	batches := make([]sourceBatch, 0, len(sources))
	for _, src := range sources {
		rows, err := s.fetch(ctx, src, cutoff)
		if err != nil {
			return 0, err
		}
		batches = append(batches, sourceBatch{source: model.SourceType(src.Name()), rows: rows})
	}

	created := 0
	err = repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		for _, b := range batches {
			for i := range b.rows {
				ok, err := s.ingestOne(ctx, r, b.source, &b.rows[i])
				if err != nil {
					return err
				}
				if ok {
					created++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Ingest: 新增 %d 条申报", created)
	return created, nil
}

func (s *IngestService) fetch(ctx context.Context, src interfaces.FilingSource, cutoff time.Time) ([]model.RawFiling, error) {
	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}
	rows, err := src.ListNewFilings(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("数据源%s拉取申报失败: %w", src.Name(), err)
	}
	return rows, nil
}

func (s *IngestService) ingestOne(ctx context.Context, r *repository.Repos, source model.SourceType, row *model.RawFiling) (bool, error) {
	if row.FilingID == "" {
		s.logger.WithField("source", source).Warn("Ingest: 申报缺少filing_id，跳过")
		return false, nil
	}
	exists, err := r.Filings.Exists(ctx, row.FilingID)
	if err != nil {
		return false, fmt.Errorf("查询申报%s失败: %w", row.FilingID, err)
	}
	if exists {
		return false, nil
	}

	filed, err := time.Parse(model.DateLayout, strings.TrimSpace(row.FiledDate))
	if err != nil {
		return false, fmt.Errorf("申报%s的filed_date格式错误: %w", row.FilingID, err)
	}
	docType := model.DefaultDocType
	if row.DocType != nil && *row.DocType != "" {
		docType = *row.DocType
	}
	f := &model.Filing{
		FilingID:      row.FilingID,
		Source:        source,
		FilerMemberID: row.FilerMemberID,
		FilerNameRaw:  row.FilerNameRaw,
		FiledDate:     filed,
		URL:           row.URL,
		FileLocalPath: row.FileLocalPath,
		DocType:       docType,
		Status:        model.FilingStatusFetched,
	}
	if err := r.Filings.Create(ctx, f); err != nil {
		return false, fmt.Errorf("保存申报%s失败: %w", row.FilingID, err)
	}
	return true, nil
}
