package repository

import (
	"context"
	"errors"

	"TickerSync/internal/model"

	"gorm.io/gorm"
)

// FilingFilter 申报列表筛选条件
type FilingFilter struct {
	Source   string // house / senate
	Status   string // fetched / parsed
	MemberID string // 申报人
}

// FilingRepository 申报仓储
type FilingRepository interface {
	// Exists 申报是否已存在（filing_id 为去重键）
	Exists(ctx context.Context, filingID string) (bool, error)
	// Create 新建申报
	Create(ctx context.Context, f *model.Filing) error
	// ListAll 全部申报，按 filing_id 排序
	ListAll(ctx context.Context) ([]*model.Filing, error)
	// MarkParsed 标记为已解析
	MarkParsed(ctx context.Context, filingID string) error
	// Get 通过 filing_id 获取申报
	Get(ctx context.Context, filingID string) (*model.Filing, error)
	// List 按条件分页查询，按 filed_date 倒序
	List(ctx context.Context, filter FilingFilter, page, pageSize int) ([]*model.Filing, int64, error)
	// Count 申报总数
	Count(ctx context.Context) (int64, error)
}

type filingRepository struct {
	db *gorm.DB
}

// NewFilingRepository 创建 FilingRepository 实例
func NewFilingRepository(db *gorm.DB) FilingRepository {
	return &filingRepository{db: db}
}

func (r *filingRepository) Exists(ctx context.Context, filingID string) (bool, error) {
	var f model.Filing
	err := r.db.WithContext(ctx).Select("filing_id").Where("filing_id = ?", filingID).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *filingRepository) Create(ctx context.Context, f *model.Filing) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *filingRepository) ListAll(ctx context.Context) ([]*model.Filing, error) {
	var filings []*model.Filing
	if err := r.db.WithContext(ctx).Order("filing_id ASC").Find(&filings).Error; err != nil {
		return nil, err
	}
	return filings, nil
}

func (r *filingRepository) MarkParsed(ctx context.Context, filingID string) error {
	return r.db.WithContext(ctx).Model(&model.Filing{}).
		Where("filing_id = ?", filingID).
		Update("status", model.FilingStatusParsed).Error
}

func (r *filingRepository) Get(ctx context.Context, filingID string) (*model.Filing, error) {
	var f model.Filing
	if err := r.db.WithContext(ctx).Where("filing_id = ?", filingID).Take(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *filingRepository) List(ctx context.Context, filter FilingFilter, page, pageSize int) ([]*model.Filing, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Filing{})
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.MemberID != "" {
		db = db.Where("filer_member_id = ?", filter.MemberID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var filings []*model.Filing
	if err := db.Order("filed_date DESC, filing_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&filings).Error; err != nil {
		return nil, 0, err
	}
	return filings, total, nil
}

func (r *filingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Filing{}).Count(&n).Error
	return n, err
}
