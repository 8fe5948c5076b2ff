package service

import (
	"bytes"
	"context"
	"testing"

	"TickerSync/internal/model"

	"github.com/xuri/excelize/v2"
)

func TestDailyReport(t *testing.T) {
	ctx := context.Background()
	src := houseSource(
		model.RawFiling{
			FilingID:      "H-1",
			FilerMemberID: strPtr("H001"),
			FilerNameRaw:  "Hon. Jane Doe",
			FiledDate:     "2024-01-20",
			FileLocalPath: strPtr("h1.txt"),
		},
		model.RawFiling{
			FilingID:      "H-2",
			FilerNameRaw:  "Rep. John Roe",
			FiledDate:     "2024-01-21",
			FileLocalPath: strPtr("h2.txt"),
		},
	)
	env := newEnv(t, src, stubText{
		"h1.txt": "2024-01-15 | Apple Inc. | AAPL | BUY | $50k-$100k\n2023-10-01 | Microsoft Corporation |  | SELL | $1k-$15k",
		"h2.txt": "2024-01-20 | NVIDIA Corporation | NVDA | BUY | $100k-$250k",
	})
	err := env.repos.Members.UpsertMembers(ctx, []*model.Member{
		{MemberID: "H001", First: "Jane", Last: "Doe", Chamber: "house", State: "CA", Active: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.pipeline.RunOnce(ctx, true, false); err != nil {
		t.Fatal(err)
	}

	report, err := NewReportService(env.db, env.clock).Daily(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.AsOf != "2024-02-01" || report.Since != "2024-01-02" {
		t.Fatalf("unexpected window %s..%s", report.Since, report.AsOf)
	}
	// 超出 30 天窗口的 Microsoft 交易不出现
	if len(report.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(report.Items))
	}
	first, second := report.Items[0], report.Items[1]
	// H-2 未关联议员，姓名回退为申报原文
	if first.Ticker != "NVDA" || first.Rank != 1 || first.Member != "Rep. John Roe" || first.Score <= second.Score {
		t.Fatalf("unexpected first item %+v", first)
	}
	if second.Ticker != "AAPL" || second.Member != "Jane Doe" || second.Rank != 2 {
		t.Fatalf("unexpected second item %+v", second)
	}

	var buf bytes.Buffer
	if err := ExportXLSX(&buf, report); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Rank" || rows[1][4] != "NVDA" {
		t.Fatalf("unexpected sheet rows %v", rows)
	}
}

func TestDailyReportEmpty(t *testing.T) {
	env := newEnv(t, houseSource(), stubText{})
	report, err := NewReportService(env.db, env.clock).Daily(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 0 {
		t.Fatalf("expected empty report, got %d items", len(report.Items))
	}
	var buf bytes.Buffer
	if err := ExportXLSX(&buf, report); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty report should still produce a workbook")
	}
}
