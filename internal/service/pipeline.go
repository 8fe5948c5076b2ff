package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TickerSync/internal/interfaces"
	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrRunInProgress 已有流水线运行（本进程或持有运行锁的其他实例）
var ErrRunInProgress = errors.New("流水线正在运行")

// AlertMessage 运行完成告警的标题
const AlertMessage = "New filings processed and scored"

// RunSummary 一次运行的各阶段产出
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	NewFilings int       `json:"new_filings"`
	Trades     int       `json:"trades"`
	Mapped     int       `json:"mapped"`
	Signals    int       `json:"signals"`
	Members    int       `json:"members"`
	Scored     bool      `json:"scored"`
	Alerted    bool      `json:"alerted"`
}

// PipelineOptions 流水线参数
type PipelineOptions struct {
	LookbackDays     int      // 入库回看天数
	EnableFuzzy      bool     // 映射阶段是否启用模糊匹配
	RefreshReference bool     // 每次运行前重新加载议员/委员会
	Sources          []string // 参与入库的数据源，为空表示全部
}

// Pipeline 按顺序执行 入库 -> 解析 -> 映射 -> 打分 -> 告警；任一阶段失败立即返回错误
type Pipeline struct {
	db        *gorm.DB
	reference *ReferenceService
	ingest    *IngestService
	parse     *ParseService
	mapping   *MappingService
	scoring   *ScoringService
	notifier  interfaces.Notifier
	lock      interfaces.RunLock
	clock     Clock
	opts      PipelineOptions
	logger    *logrus.Logger

	mu sync.Mutex
}

// NewPipeline 创建流水线；reference 为 nil 时不刷新参考数据，lock 为 nil 时仅做进程内互斥
func NewPipeline(
	db *gorm.DB,
	reference *ReferenceService,
	ingest *IngestService,
	parse *ParseService,
	mapping *MappingService,
	scoring *ScoringService,
	notifier interfaces.Notifier,
	lock interfaces.RunLock,
	clock Clock,
	opts PipelineOptions,
	logger *logrus.Logger,
) *Pipeline {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 60
	}
	return &Pipeline{
		db:        db,
		reference: reference,
		ingest:    ingest,
		parse:     parse,
		mapping:   mapping,
		scoring:   scoring,
		notifier:  notifier,
		lock:      lock,
		clock:     clock,
		opts:      opts,
		logger:    logger,
	}
}

// RunOnce 执行一次完整流水线。score=false 跳过打分与聚合，alerts=true 时运行结束后发送告警。
// 同一时刻至多一次运行，否则返回 ErrRunInProgress
func (p *Pipeline) RunOnce(ctx context.Context, score, alerts bool) (*RunSummary, error) {
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.mu.Unlock()

	if p.lock != nil {
		ok, err := p.lock.TryAcquire(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			// ctx 可能已取消，释放锁使用独立超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.lock.Release(releaseCtx); err != nil {
				p.logger.WithError(err).Warn("释放运行锁失败")
			}
		}()
	}

	sum := &RunSummary{RunID: uuid.NewString(), StartedAt: p.clock.Now().UTC()}
	log := p.logger.WithField("run_id", sum.RunID)
	log.Info("流水线开始运行")

	if p.reference != nil && p.opts.RefreshReference {
		if err := p.stage(ctx, sum.RunID, model.StageReference, func() (int, error) {
			c, err := p.reference.LoadAll(ctx)
			return c.Total(), err
		}); err != nil {
			return nil, err
		}
	}

	cutoff := p.clock.Today().AddDate(0, 0, -p.opts.LookbackDays)
	if err := p.stage(ctx, sum.RunID, model.StageIngest, func() (n int, err error) {
		sum.NewFilings, err = p.ingest.IngestSince(ctx, cutoff, p.opts.Sources)
		return sum.NewFilings, err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, sum.RunID, model.StageParse, func() (n int, err error) {
		sum.Trades, err = p.parse.ParseAll(ctx)
		return sum.Trades, err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, sum.RunID, model.StageMap, func() (n int, err error) {
		sum.Mapped, err = p.mapping.MapAll(ctx, p.opts.EnableFuzzy)
		return sum.Mapped, err
	}); err != nil {
		return nil, err
	}

	if score {
		if err := p.stage(ctx, sum.RunID, model.StageScore, func() (n int, err error) {
			sum.Signals, err = p.scoring.ScoreAllTrades(ctx)
			return sum.Signals, err
		}); err != nil {
			return nil, err
		}
		if err := p.stage(ctx, sum.RunID, model.StageFollow, func() (n int, err error) {
			sum.Members, err = p.scoring.ComputeFollowScores(ctx)
			return sum.Members, err
		}); err != nil {
			return nil, err
		}
		sum.Scored = true
	}

	if alerts && p.notifier != nil {
		messages := []string{
			AlertMessage,
			fmt.Sprintf("run %s: %d new filings, %d trades, %d mapped, %d signals",
				sum.RunID, sum.NewFilings, sum.Trades, sum.Mapped, sum.Signals),
		}
		if err := p.stage(ctx, sum.RunID, model.StageAlert, func() (int, error) {
			return len(messages), p.notifier.Send(ctx, messages)
		}); err != nil {
			return nil, err
		}
		sum.Alerted = true
	}

	sum.FinishedAt = p.clock.Now().UTC()
	log.WithFields(logrus.Fields{
		"new_filings": sum.NewFilings,
		"trades":      sum.Trades,
		"mapped":      sum.Mapped,
		"signals":     sum.Signals,
		"members":     sum.Members,
	}).Info("流水线运行完成")
	return sum, nil
}

// stage 执行单个阶段并记录 RunMetric；指标写入失败只记日志
func (p *Pipeline) stage(ctx context.Context, runID string, stage model.Stage, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := p.clock.Now().UTC()
	count, err := fn()
	metric := &model.RunMetric{
		RunID:      runID,
		Stage:      stage,
		StartedAt:  started,
		FinishedAt: p.clock.Now().UTC(),
		Success:    err == nil,
		Count:      count,
	}
	if err != nil {
		details := err.Error()
		metric.Details = &details
	}
	// 阶段失败时 ctx 可能已取消，指标仍需落库
	if mErr := repository.NewRepos(p.db).Metrics.Create(context.WithoutCancel(ctx), metric); mErr != nil {
		p.logger.WithError(mErr).WithField("stage", stage).Warn("写入运行指标失败")
	}
	if err != nil {
		return fmt.Errorf("阶段%s失败: %w", stage, err)
	}
	return nil
}
