package repository

import (
	"context"

	"TickerSync/internal/model"

	"gorm.io/gorm"
)

// RunMetricRepository 流水线运行指标仓储
type RunMetricRepository interface {
	Create(ctx context.Context, m *model.RunMetric) error
	// ListByRun 某次运行的各阶段指标，按开始时间排序
	ListByRun(ctx context.Context, runID string) ([]*model.RunMetric, error)
	// ListRecent 最近的指标记录
	ListRecent(ctx context.Context, limit int) ([]*model.RunMetric, error)
}

type runMetricRepository struct {
	db *gorm.DB
}

// NewRunMetricRepository 创建 RunMetricRepository 实例
func NewRunMetricRepository(db *gorm.DB) RunMetricRepository {
	return &runMetricRepository{db: db}
}

func (r *runMetricRepository) Create(ctx context.Context, m *model.RunMetric) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *runMetricRepository) ListByRun(ctx context.Context, runID string) ([]*model.RunMetric, error) {
	var metrics []*model.RunMetric
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("started_at ASC, id ASC").
		Find(&metrics).Error
	return metrics, err
}

func (r *runMetricRepository) ListRecent(ctx context.Context, limit int) ([]*model.RunMetric, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var metrics []*model.RunMetric
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&metrics).Error
	return metrics, err
}
