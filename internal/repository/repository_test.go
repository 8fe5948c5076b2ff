package repository

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"TickerSync/internal/database"
	"TickerSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), l)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedFiling(t *testing.T, repos *Repos, id, memberID string) {
	t.Helper()
	f := &model.Filing{
		FilingID:      id,
		Source:        model.SourceHouse,
		FilerMemberID: strPtr(memberID),
		FilerNameRaw:  "Jane Doe",
		FiledDate:     day(2024, 1, 20),
		DocType:       model.DefaultDocType,
		Status:        model.FilingStatusFetched,
	}
	if err := repos.Filings.Create(context.Background(), f); err != nil {
		t.Fatalf("create filing: %v", err)
	}
}

func TestFilingExistsAndMarkParsed(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))

	ok, err := repos.Filings.Exists(ctx, "F1")
	if err != nil || ok {
		t.Fatalf("expected missing filing, got %v %v", ok, err)
	}
	seedFiling(t, repos, "F1", "H001")
	if ok, _ := repos.Filings.Exists(ctx, "F1"); !ok {
		t.Fatal("filing should exist")
	}
	if err := repos.Filings.MarkParsed(ctx, "F1"); err != nil {
		t.Fatal(err)
	}
	f, err := repos.Filings.Get(ctx, "F1")
	if err != nil || f.Status != model.FilingStatusParsed {
		t.Fatalf("expected parsed filing, got %+v %v", f, err)
	}
	if _, err := repos.Filings.Get(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceTradesForFiling(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	seedFiling(t, repos, "F1", "H001")
	seedFiling(t, repos, "F2", "H001")

	mk := func(id, filing string) *model.Trade {
		return &model.Trade{TradeID: id, FilingID: filing, TxnDate: day(2024, 1, 15), IssuerRaw: "Apple", TxnType: model.TxnBuy, AmountBand: "$1k-$15k", Confidence: 0.75}
	}
	if err := repos.Trades.ReplaceForFiling(ctx, "F1", []*model.Trade{mk("a", "F1"), mk("b", "F1")}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Trades.ReplaceForFiling(ctx, "F2", []*model.Trade{mk("c", "F2")}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Trades.ReplaceForFiling(ctx, "F1", []*model.Trade{mk("d", "F1")}); err != nil {
		t.Fatal(err)
	}

	f1, _ := repos.Trades.ListByFiling(ctx, "F1")
	if len(f1) != 1 || f1[0].TradeID != "d" {
		t.Fatalf("F1 trades should be replaced, got %d", len(f1))
	}
	f2, _ := repos.Trades.ListByFiling(ctx, "F2")
	if len(f2) != 1 {
		t.Fatalf("F2 trades should be untouched, got %d", len(f2))
	}

	if err := repos.Trades.ReplaceForFiling(ctx, "F1", nil); err != nil {
		t.Fatal(err)
	}
	if f1, _ := repos.Trades.ListByFiling(ctx, "F1"); len(f1) != 0 {
		t.Fatalf("empty replace should clear trades, got %d", len(f1))
	}

	byMember, err := repos.Trades.ListByMember(ctx, "H001")
	if err != nil || len(byMember) != 1 || byMember[0].TradeID != "c" {
		t.Fatalf("unexpected member trades %v %v", byMember, err)
	}
}

func TestUnmappedAndUpdateMapping(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	seedFiling(t, repos, "F1", "H001")
	method := model.MapMethodExtracted
	trades := []*model.Trade{
		{TradeID: "a", FilingID: "F1", TxnDate: day(2024, 1, 15), IssuerRaw: "Apple", Ticker: strPtr("AAPL"), Confidence: 0.95, MapMethod: &method},
		{TradeID: "b", FilingID: "F1", TxnDate: day(2024, 1, 16), IssuerRaw: "Microsoft", Confidence: 0.75},
	}
	if err := repos.Trades.ReplaceForFiling(ctx, "F1", trades); err != nil {
		t.Fatal(err)
	}
	unmapped, err := repos.Trades.ListUnmapped(ctx)
	if err != nil || len(unmapped) != 1 || unmapped[0].TradeID != "b" {
		t.Fatalf("unexpected unmapped %v %v", unmapped, err)
	}
	if err := repos.Trades.UpdateMapping(ctx, "b", "MSFT", 0.99, model.MapMethodExact); err != nil {
		t.Fatal(err)
	}
	if unmapped, _ := repos.Trades.ListUnmapped(ctx); len(unmapped) != 0 {
		t.Fatalf("expected no unmapped trades, got %d", len(unmapped))
	}
	got, _ := repos.Trades.ListByFiling(ctx, "F1")
	if *got[1].Ticker != "MSFT" || *got[1].MapMethod != model.MapMethodExact || got[1].Confidence != 0.99 {
		t.Fatalf("mapping not stored: %+v", got[1])
	}
}

func TestSignalReplaceKeepsOnePerTrade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repos := NewRepos(db)

	for _, score := range []float64{1.0, 2.5} {
		sig := &model.Signal{SignalID: model.SignalIDFor("a"), TradeID: "a", Score: score, CreatedAt: time.Now()}
		if err := repos.Signals.Replace(ctx, sig); err != nil {
			t.Fatal(err)
		}
	}
	var n int64
	db.Model(&model.Signal{}).Where("trade_id = ?", "a").Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 signal, got %d", n)
	}
	scores, err := repos.Signals.ScoresByTradeIDs(ctx, []string{"a", "missing"})
	if err != nil || len(scores) != 1 || scores["a"] != 2.5 {
		t.Fatalf("unexpected scores %v %v", scores, err)
	}
}

func TestSignalDeleteOrphans(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	seedFiling(t, repos, "F1", "H001")
	if err := repos.Trades.ReplaceForFiling(ctx, "F1", []*model.Trade{{TradeID: "a", FilingID: "F1", TxnDate: day(2024, 1, 1), IssuerRaw: "x", Confidence: 1}}); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "gone"} {
		if err := repos.Signals.Replace(ctx, &model.Signal{SignalID: model.SignalIDFor(id), TradeID: id, Score: 1}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := repos.Signals.DeleteOrphans(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 orphan deleted, got %d %v", n, err)
	}
	if _, err := repos.Signals.GetByTradeID(ctx, "a"); err != nil {
		t.Fatalf("live signal removed: %v", err)
	}
}

func TestSnapshotReplaceIsIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repos := NewRepos(db)

	for _, score := range []float64{10, 42.5} {
		snap := &model.MemberSnapshot{MemberID: "H001", AsOfDate: day(2024, 2, 1), FollowScore: score}
		if err := repos.Members.ReplaceSnapshot(ctx, snap); err != nil {
			t.Fatal(err)
		}
	}
	if err := repos.Members.ReplaceSnapshot(ctx, &model.MemberSnapshot{MemberID: "H001", AsOfDate: day(2024, 2, 2), FollowScore: 50}); err != nil {
		t.Fatal(err)
	}

	snaps, err := repos.Members.ListSnapshots(ctx, "H001", 10)
	if err != nil || len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d %v", len(snaps), err)
	}
	if snaps[1].FollowScore != 42.5 {
		t.Fatalf("same-day snapshot should hold the latest value, got %v", snaps[1].FollowScore)
	}
}

func TestUpsertMembersKeepsFollowScore(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))

	m := &model.Member{MemberID: "H001", First: "Jane", Last: "Doe", Chamber: "house", State: "CA", Party: strPtr("D"), Active: true}
	if err := repos.Members.UpsertMembers(ctx, []*model.Member{m}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Members.UpdateFollowScore(ctx, "H001", 55.5, time.Now()); err != nil {
		t.Fatal(err)
	}
	updated := &model.Member{MemberID: "H001", First: "Janet", Last: "Doe", Chamber: "house", State: "CA", Party: strPtr("D"), Active: true}
	if err := repos.Members.UpsertMembers(ctx, []*model.Member{updated}); err != nil {
		t.Fatal(err)
	}
	got, err := repos.Members.Get(ctx, "H001")
	if err != nil {
		t.Fatal(err)
	}
	if got.First != "Janet" || got.FollowScore != 55.5 || got.FollowScoreUpdatedAt == nil {
		t.Fatalf("unexpected member %+v", got)
	}
}

func TestCommitteesAndLinks(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	if err := repos.Members.UpsertCommittees(ctx, []*model.Committee{{CommitteeID: "HSAG", Name: "Agriculture", Chamber: "house"}}); err != nil {
		t.Fatal(err)
	}
	links := []*model.MemberCommittee{{MemberID: "H001", CommitteeID: "HSAG", Role: strPtr("Member")}}
	if err := repos.Members.UpsertMemberCommittees(ctx, links); err != nil {
		t.Fatal(err)
	}
	links[0].Role = strPtr("Chair")
	if err := repos.Members.UpsertMemberCommittees(ctx, links); err != nil {
		t.Fatal(err)
	}
	cs, err := repos.Members.ListCommittees(ctx, "H001")
	if err != nil || len(cs) != 1 || cs[0].Name != "Agriculture" {
		t.Fatalf("unexpected committees %v %v", cs, err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	boom := errors.New("boom")

	err := Transaction(ctx, db, func(r *Repos) error {
		seedFiling(t, r, "F1", "H001")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := NewRepos(db).Filings.Count(ctx); n != 0 {
		t.Fatalf("rollback expected, found %d filings", n)
	}

	if err := Transaction(ctx, db, func(r *Repos) error {
		seedFiling(t, r, "F2", "H001")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n, _ := NewRepos(db).Filings.Count(ctx); n != 1 {
		t.Fatalf("commit expected, found %d filings", n)
	}
}

func TestTopSignals(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	if err := repos.Members.UpsertMembers(ctx, []*model.Member{{MemberID: "H001", First: "Jane", Last: "Doe", Chamber: "house", State: "CA", Active: true}}); err != nil {
		t.Fatal(err)
	}
	seedFiling(t, repos, "F1", "H001")
	trades := []*model.Trade{
		{TradeID: "old", FilingID: "F1", TxnDate: day(2023, 1, 1), IssuerRaw: "Old", Confidence: 1},
		{TradeID: "low", FilingID: "F1", TxnDate: day(2024, 1, 20), IssuerRaw: "Low", Confidence: 1},
		{TradeID: "high", FilingID: "F1", TxnDate: day(2024, 1, 25), IssuerRaw: "High", Ticker: strPtr("HI"), Confidence: 1},
		{TradeID: "unscored", FilingID: "F1", TxnDate: day(2024, 1, 28), IssuerRaw: "Pending", Confidence: 1},
	}
	if err := repos.Trades.ReplaceForFiling(ctx, "F1", trades); err != nil {
		t.Fatal(err)
	}
	for id, score := range map[string]float64{"old": 5, "low": 1, "high": 3} {
		if err := repos.Signals.Replace(ctx, &model.Signal{SignalID: model.SignalIDFor(id), TradeID: id, Score: score}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := repos.Reports.TopSignals(ctx, day(2024, 1, 1), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].TradeID != "high" || rows[1].TradeID != "low" || rows[2].TradeID != "unscored" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if rows[2].Score != 0 || rows[2].Tags != "" {
		t.Fatalf("trade without a signal should rank with score 0, got %+v", rows[2])
	}
	if rows[0].First == nil || *rows[0].First != "Jane" || rows[0].Ticker == nil || *rows[0].Ticker != "HI" {
		t.Fatalf("member or ticker not joined: %+v", rows[0])
	}
}

func TestRunMetrics(t *testing.T) {
	ctx := context.Background()
	repos := NewRepos(openTestDB(t))
	start := time.Now()
	for i, stage := range []model.Stage{model.StageIngest, model.StageParse} {
		m := &model.RunMetric{RunID: "R1", Stage: stage, StartedAt: start.Add(time.Duration(i) * time.Second), FinishedAt: start, Success: true}
		if err := repos.Metrics.Create(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repos.Metrics.ListByRun(ctx, "R1")
	if err != nil || len(got) != 2 || got[0].Stage != model.StageIngest {
		t.Fatalf("unexpected metrics %v %v", got, err)
	}
}
