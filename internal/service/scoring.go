package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TickerSync/internal/model"
	"TickerSync/internal/repository"
	"TickerSync/internal/scoring"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScoringService 交易打分与议员 follow score 聚合
type ScoringService struct {
	db     *gorm.DB
	clock  Clock
	logger *logrus.Logger
}

// NewScoringService 创建打分服务
func NewScoringService(db *gorm.DB, clock Clock, logger *logrus.Logger) *ScoringService {
	return &ScoringService{db: db, clock: clock, logger: logger}
}

// ScoreAllTrades 为每笔交易重算信号（旧信号先删后插），返回信号数
func (s *ScoringService) ScoreAllTrades(ctx context.Context) (int, error) {
	today := s.clock.Today()
	now := s.clock.Now().UTC()
	n := 0
	err := repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		trades, err := r.Trades.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("查询交易失败: %w", err)
		}
		members, err := s.filerMembers(ctx, r)
		if err != nil {
			return err
		}

		for _, t := range trades {
			res := scoring.ComputeTradeSignal(t, members[t.FilingID], today)
			factors, err := json.Marshal(res.Factors)
			if err != nil {
				return fmt.Errorf("序列化打分因子失败: %w", err)
			}
			sig := &model.Signal{
				SignalID:  model.SignalIDFor(t.TradeID),
				TradeID:   t.TradeID,
				Score:     res.Score,
				Tags:      res.TagString(),
				Reason:    res.Reason(),
				Factors:   datatypes.JSON(factors),
				CreatedAt: now,
			}
			if err := r.Signals.Replace(ctx, sig); err != nil {
				return fmt.Errorf("保存交易%s信号失败: %w", t.TradeID, err)
			}
			n++
		}

		// 重新解析后旧交易ID失效，对应信号一并清理
		removed, err := r.Signals.DeleteOrphans(ctx)
		if err != nil {
			return fmt.Errorf("清理失效信号失败: %w", err)
		}
		if removed > 0 {
			s.logger.WithField("removed", removed).Debug("Score: 已清理失效信号")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Score: 计算 %d 个交易信号", n)
	return n, nil
}

// filerMembers filing_id -> 申报人（无关联议员的申报不出现在结果中）
func (s *ScoringService) filerMembers(ctx context.Context, r *repository.Repos) (map[string]*model.Member, error) {
	filings, err := r.Filings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询申报失败: %w", err)
	}
	ids := make([]string, 0, len(filings))
	for _, f := range filings {
		if f.FilerMemberID != nil && *f.FilerMemberID != "" {
			ids = append(ids, *f.FilerMemberID)
		}
	}
	byID, err := r.Members.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询议员失败: %w", err)
	}
	out := make(map[string]*model.Member, len(filings))
	for _, f := range filings {
		if f.FilerMemberID == nil {
			continue
		}
		if m, ok := byID[*f.FilerMemberID]; ok {
			out[f.FilingID] = m
		}
	}
	return out, nil
}

// ComputeFollowScores 为全部议员计算 follow score 并写入当日快照（无交易的议员同样写快照），返回处理的议员数
func (s *ScoringService) ComputeFollowScores(ctx context.Context) (int, error) {
	today := s.clock.Today()
	now := s.clock.Now().UTC()
	n := 0
	err := repository.Transaction(ctx, s.db, func(r *repository.Repos) error {
		members, err := r.Members.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("查询议员失败: %w", err)
		}
		for _, m := range members {
			if err := s.followOne(ctx, r, m, today, now); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("Follow: 更新 %d 位议员的 follow score", n)
	return n, nil
}

func (s *ScoringService) followOne(ctx context.Context, r *repository.Repos, m *model.Member, today, now time.Time) error {
	trades, err := r.Trades.ListByMember(ctx, m.MemberID)
	if err != nil {
		return fmt.Errorf("查询议员%s交易失败: %w", m.MemberID, err)
	}
	ids := make([]string, len(trades))
	for i, t := range trades {
		ids[i] = t.TradeID
	}
	scores, err := r.Signals.ScoresByTradeIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("查询议员%s信号失败: %w", m.MemberID, err)
	}

	inputs := make([]scoring.FollowTrade, len(trades))
	for i, t := range trades {
		sc, ok := scores[t.TradeID]
		inputs[i] = scoring.FollowTrade{TxnDate: t.TxnDate, Score: sc, HasSignal: ok}
	}
	score, metrics := scoring.FollowScore(inputs, today)

	if err := r.Members.UpdateFollowScore(ctx, m.MemberID, score, now); err != nil {
		return fmt.Errorf("更新议员%s follow score失败: %w", m.MemberID, err)
	}
	blob, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("序列化快照指标失败: %w", err)
	}
	snap := &model.MemberSnapshot{
		MemberID:    m.MemberID,
		AsOfDate:    today,
		FollowScore: score,
		Metrics:     datatypes.JSON(blob),
	}
	if err := r.Members.ReplaceSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("写入议员%s快照失败: %w", m.MemberID, err)
	}
	return nil
}
