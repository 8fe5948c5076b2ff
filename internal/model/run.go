package model

import "time"

// Stage 流水线阶段
type Stage string

const (
	StageReference Stage = "reference"
	StageIngest    Stage = "ingest"
	StageParse     Stage = "parse"
	StageMap       Stage = "map"
	StageScore     Stage = "score"
	StageFollow    Stage = "follow"
	StageAlert     Stage = "alert"
)

// RunMetric 记录每次运行中各阶段的耗时与结果
type RunMetric struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID      string    `gorm:"column:run_id;type:varchar(64);index;not null" json:"run_id"`
	Stage      Stage     `gorm:"column:stage;type:varchar(16);not null" json:"stage"`
	StartedAt  time.Time `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt time.Time `gorm:"column:finished_at;not null" json:"finished_at"`
	Success    bool      `gorm:"column:success;not null" json:"success"`
	Count      int       `gorm:"column:count;default:0" json:"count"`
	Details    *string   `gorm:"column:details;type:text" json:"details,omitempty"`
}

func (RunMetric) TableName() string { return "run_metrics" }

// IssuerRef 发行人参考表条目（规范化公司名 -> 代码 + 注册号）
type IssuerRef struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Ticker string `json:"ticker"`
	CIK    int64  `json:"cik"`
}
