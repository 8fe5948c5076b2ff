package repository

import (
	"context"
	"time"

	"TickerSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository 议员、委员会及每日快照仓储
type MemberRepository interface {
	// UpsertMembers 按 member_id 新建或更新议员基础信息（不触碰 follow_score）
	UpsertMembers(ctx context.Context, members []*model.Member) error
	// UpsertCommittees 按 committee_id 新建或更新委员会
	UpsertCommittees(ctx context.Context, committees []*model.Committee) error
	// UpsertMemberCommittees 按 (member_id, committee_id) 新建或更新关联
	UpsertMemberCommittees(ctx context.Context, links []*model.MemberCommittee) error
	// ListAll 全部议员，按 member_id 排序
	ListAll(ctx context.Context) ([]*model.Member, error)
	// Get 通过 member_id 获取议员
	Get(ctx context.Context, memberID string) (*model.Member, error)
	// GetMany 批量获取议员，返回 member_id -> 议员
	GetMany(ctx context.Context, memberIDs []string) (map[string]*model.Member, error)
	// ListRanked 按 follow_score 倒序
	ListRanked(ctx context.Context, limit int) ([]*model.Member, error)
	// UpdateFollowScore 写入 follow_score 与更新时间
	UpdateFollowScore(ctx context.Context, memberID string, score float64, at time.Time) error
	// ReplaceSnapshot 删除同日快照后插入（每个议员每天一条）
	ReplaceSnapshot(ctx context.Context, snap *model.MemberSnapshot) error
	// ListSnapshots 议员的快照，按日期倒序
	ListSnapshots(ctx context.Context, memberID string, limit int) ([]*model.MemberSnapshot, error)
	// ListCommittees 议员所属委员会
	ListCommittees(ctx context.Context, memberID string) ([]*model.Committee, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建 MemberRepository 实例
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) UpsertMembers(ctx context.Context, members []*model.Member) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first", "last", "chamber", "state", "district", "party", "active"}),
	}).Create(members).Error
}

func (r *memberRepository) UpsertCommittees(ctx context.Context, committees []*model.Committee) error {
	if len(committees) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "committee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "chamber"}),
	}).Create(committees).Error
}

func (r *memberRepository) UpsertMemberCommittees(ctx context.Context, links []*model.MemberCommittee) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "committee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(links).Error
}

func (r *memberRepository) ListAll(ctx context.Context) ([]*model.Member, error) {
	var members []*model.Member
	err := r.db.WithContext(ctx).Order("member_id ASC").Find(&members).Error
	return members, err
}

func (r *memberRepository) Get(ctx context.Context, memberID string) (*model.Member, error) {
	var m model.Member
	if err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepository) GetMany(ctx context.Context, memberIDs []string) (map[string]*model.Member, error) {
	out := make(map[string]*model.Member, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	var members []*model.Member
	if err := r.db.WithContext(ctx).Where("member_id IN ?", memberIDs).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.MemberID] = m
	}
	return out, nil
}

func (r *memberRepository) ListRanked(ctx context.Context, limit int) ([]*model.Member, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var members []*model.Member
	err := r.db.WithContext(ctx).
		Order("follow_score DESC, member_id ASC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) UpdateFollowScore(ctx context.Context, memberID string, score float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Member{}).
		Where("member_id = ?", memberID).
		Updates(map[string]interface{}{
			"follow_score":            score,
			"follow_score_updated_at": at,
		}).Error
}

func (r *memberRepository) ReplaceSnapshot(ctx context.Context, snap *model.MemberSnapshot) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("member_id = ? AND as_of_date = ?", snap.MemberID, snap.AsOfDate).
		Delete(&model.MemberSnapshot{}).Error; err != nil {
		return err
	}
	return db.Create(snap).Error
}

func (r *memberRepository) ListSnapshots(ctx context.Context, memberID string, limit int) ([]*model.MemberSnapshot, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}
	var snaps []*model.MemberSnapshot
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("as_of_date DESC").
		Limit(limit).
		Find(&snaps).Error
	return snaps, err
}

func (r *memberRepository) ListCommittees(ctx context.Context, memberID string) ([]*model.Committee, error) {
	var committees []*model.Committee
	err := r.db.WithContext(ctx).
		Joins("JOIN member_committees ON member_committees.committee_id = committees.committee_id").
		Where("member_committees.member_id = ?", memberID).
		Order("committees.committee_id ASC").
		Find(&committees).Error
	return committees, err
}
