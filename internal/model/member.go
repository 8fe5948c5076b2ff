package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Member 议员（申报主体），follow_score 仅由打分聚合阶段修改
type Member struct {
	MemberID             string     `gorm:"column:member_id;primaryKey;type:varchar(32)" json:"member_id"`
	First                string     `gorm:"column:first;type:varchar(64);not null" json:"first"`
	Last                 string     `gorm:"column:last;type:varchar(64);not null" json:"last"`
	Chamber              string     `gorm:"column:chamber;type:varchar(16);not null" json:"chamber"` // house|senate
	State                string     `gorm:"column:state;type:varchar(8);not null" json:"state"`
	District             *string    `gorm:"column:district;type:varchar(8)" json:"district,omitempty"`
	Party                *string    `gorm:"column:party;type:varchar(8)" json:"party,omitempty"`
	Active               bool       `gorm:"column:active;default:true" json:"active"`
	FollowScore          float64    `gorm:"column:follow_score;default:0" json:"follow_score"` // 0-100，一位小数
	FollowScoreUpdatedAt *time.Time `gorm:"column:follow_score_updated_at" json:"follow_score_updated_at,omitempty"`
}

func (Member) TableName() string { return "members" }

// FullName 展示用姓名
func (m *Member) FullName() string {
	return fmt.Sprintf("%s %s", m.First, m.Last)
}

// HasBinaryParty 是否属于两党之一（D/R），打分时作为影响力的粗略代理
func (m *Member) HasBinaryParty() bool {
	if m == nil || m.Party == nil {
		return false
	}
	return *m.Party == "D" || *m.Party == "R"
}

// Committee 委员会
type Committee struct {
	CommitteeID string `gorm:"column:committee_id;primaryKey;type:varchar(32)" json:"committee_id"`
	Name        string `gorm:"column:name;type:varchar(256);not null" json:"name"`
	Chamber     string `gorm:"column:chamber;type:varchar(16);not null" json:"chamber"`
}

func (Committee) TableName() string { return "committees" }

// MemberCommittee 议员与委员会的关联
type MemberCommittee struct {
	MemberID    string  `gorm:"column:member_id;primaryKey;type:varchar(32)" json:"member_id"`
	CommitteeID string  `gorm:"column:committee_id;primaryKey;type:varchar(32)" json:"committee_id"`
	Role        *string `gorm:"column:role;type:varchar(64)" json:"role,omitempty"`
}

func (MemberCommittee) TableName() string { return "member_committees" }

// MemberSnapshot 议员每日 follow_score 快照，(member_id, as_of_date) 唯一，同日重复写入覆盖
type MemberSnapshot struct {
	MemberID    string         `gorm:"column:member_id;primaryKey;type:varchar(32)" json:"member_id"`
	AsOfDate    time.Time      `gorm:"column:as_of_date;primaryKey;type:date" json:"as_of_date"`
	FollowScore float64        `gorm:"column:follow_score;not null" json:"follow_score"`
	Metrics     datatypes.JSON `gorm:"column:metrics_json" json:"metrics,omitempty"`
}

func (MemberSnapshot) TableName() string { return "member_snapshots" }
