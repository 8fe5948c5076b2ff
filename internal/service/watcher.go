package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"TickerSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// minSleepFloor 两次轮询之间的最短间隔，配置值低于此值时取此值
const minSleepFloor = 5 * time.Second

// AlwaysChanged 默认变化探测：每次轮询都视为有新申报
type AlwaysChanged struct{}

func (AlwaysChanged) Changed(ctx context.Context) (bool, error) { return true, nil }

// Runner 一次流水线运行
type Runner interface {
	RunOnce(ctx context.Context, score, alerts bool) (*RunSummary, error)
}

// WatchStatus 轮询状态，供 /watch/status 展示
type WatchStatus struct {
	LastPoll   *time.Time `json:"last_poll"`
	LastChange *time.Time `json:"last_change"`
}

// WatchOptions 轮询参数
type WatchOptions struct {
	Interval time.Duration
	Jitter   time.Duration
	MinSleep time.Duration
	Score    bool
	Alerts   bool
}

// Watcher 定时轮询数据源，有变化时触发流水线；单次失败或 panic 不终止循环
type Watcher struct {
	runner   Runner
	detector interfaces.ChangeDetector
	opts     WatchOptions
	logger   *logrus.Logger

	now  func() time.Time
	rand func() float64

	mu     sync.RWMutex
	status WatchStatus
}

// NewWatcher 创建轮询器；detector 为 nil 时使用 AlwaysChanged
func NewWatcher(runner Runner, detector interfaces.ChangeDetector, opts WatchOptions, logger *logrus.Logger) *Watcher {
	if detector == nil {
		detector = AlwaysChanged{}
	}
	if opts.Interval <= 0 {
		opts.Interval = 75 * time.Second
	}
	if opts.Jitter < 0 {
		opts.Jitter = 0
	}
	if opts.MinSleep < minSleepFloor {
		opts.MinSleep = minSleepFloor
	}
	return &Watcher{
		runner:   runner,
		detector: detector,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		rand:     rand.Float64,
	}
}

// Status 返回当前状态副本
func (w *Watcher) Status() WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	st := WatchStatus{}
	if w.status.LastPoll != nil {
		t := *w.status.LastPoll
		st.LastPoll = &t
	}
	if w.status.LastChange != nil {
		t := *w.status.LastChange
		st.LastChange = &t
	}
	return st
}

// Run 阻塞轮询直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Infof("Watch: 开始轮询，间隔 %s，抖动 ±%s", w.opts.Interval, w.opts.Jitter)
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("Watch: 轮询已停止")
			return nil
		}

		started := w.now()
		w.poll(ctx)
		sleep := w.nextSleep(w.now().Sub(started))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("Watch: 轮询已停止")
			return nil
		case <-timer.C:
		}
	}
}

// poll 单次轮询，panic 被恢复并记录；无论成败都更新 last_poll
func (w *Watcher) poll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("panic", fmt.Sprint(r)).Error("Watch: 轮询发生panic，继续下一轮")
		}
		w.markPoll()
	}()

	changed, err := w.detector.Changed(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("Watch: 变化探测失败")
		return
	}
	if !changed {
		w.logger.Debug("Watch: 无新申报")
		return
	}
	w.markChange()

	sum, err := w.runner.RunOnce(ctx, w.opts.Score, w.opts.Alerts)
	switch {
	case errors.Is(err, ErrRunInProgress):
		w.logger.Info("Watch: 已有运行在进行，跳过本轮")
	case err != nil:
		w.logger.WithError(err).Error("Watch: 流水线运行失败")
	default:
		w.logger.WithFields(logrus.Fields{
			"run_id":      sum.RunID,
			"new_filings": sum.NewFilings,
		}).Info("Watch: 流水线运行完成")
	}
}

func (w *Watcher) markPoll() {
	now := w.now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.LastPoll = &now
}

func (w *Watcher) markChange() {
	now := w.now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.LastChange = &now
}

// nextSleep max(MinSleep, Interval + U(-Jitter, +Jitter) - elapsed)
func (w *Watcher) nextSleep(elapsed time.Duration) time.Duration {
	jitter := time.Duration(0)
	if w.opts.Jitter > 0 {
		jitter = time.Duration((w.rand()*2 - 1) * float64(w.opts.Jitter))
	}
	sleep := w.opts.Interval + jitter - elapsed
	if sleep < w.opts.MinSleep {
		return w.opts.MinSleep
	}
	return sleep
}
