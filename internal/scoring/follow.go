package scoring

import (
	"math"
	"time"

	"TickerSync/internal/model"
)

const (
	followRecentDays  = 90
	followGroupSize   = 3
	followBoostStep   = 0.05
	followBoostCap    = 0.2
	followScoreMaxPct = 100.0
)

// FollowTrade 参与聚合的单笔交易：交易日期及其信号分（无信号时 HasSignal=false）
type FollowTrade struct {
	TxnDate   time.Time
	Score     float64
	HasSignal bool
}

// FollowMetrics 聚合明细，写入快照的 metrics_json
type FollowMetrics struct {
	Trades       int     `json:"trades"`
	Scored       int     `json:"scored"`
	AvgScore     float64 `json:"avg_score"`
	Base         float64 `json:"base"`
	RecentTrades int     `json:"recent_trades"`
	RecencyBoost float64 `json:"recency_boost"`
}

// FollowScore 计算议员 follow score（0-100，保留一位小数）。无交易时返回 0
func FollowScore(trades []FollowTrade, today time.Time) (float64, FollowMetrics) {
	m := FollowMetrics{Trades: len(trades)}
	if len(trades) == 0 {
		return 0, m
	}

	total := 0.0
	for _, t := range trades {
		if t.HasSignal {
			total += t.Score
			m.Scored++
		}
		if model.DaysBetween(t.TxnDate, today) <= followRecentDays {
			m.RecentTrades++
		}
	}
	// 全部缺信号时分母取 1
	m.AvgScore = total / float64(max(1, m.Scored))
	m.Base = m.AvgScore / MaxScore
	m.RecencyBoost = math.Min(followBoostCap, followBoostStep*float64(m.RecentTrades/followGroupSize))

	score := math.Min(1.0, m.Base+m.RecencyBoost) * followScoreMaxPct
	return math.Round(score*10) / 10, m
}
