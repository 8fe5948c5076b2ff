package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repos 同一连接（或同一事务）上的仓储集合
type Repos struct {
	Filings FilingRepository
	Trades  TradeRepository
	Signals SignalRepository
	Members MemberRepository
	Metrics RunMetricRepository
	Reports ReportRepository
}

// NewRepos 基于 db 创建仓储集合
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Filings: NewFilingRepository(db),
		Trades:  NewTradeRepository(db),
		Signals: NewSignalRepository(db),
		Members: NewMemberRepository(db),
		Metrics: NewRunMetricRepository(db),
		Reports: NewReportRepository(db),
	}
}

// Transaction 在一个事务内执行 fn：fn 返回错误或 panic 时回滚，否则提交。
// 流水线每个阶段整体作为一个提交范围
func Transaction(ctx context.Context, db *gorm.DB, fn func(r *Repos) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepos(tx)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
