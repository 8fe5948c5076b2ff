package issuer

import (
	"os"
	"path/filepath"
	"testing"

	"TickerSync/internal/model"
)

func sampleReference() *Reference {
	return NewReference([]model.IssuerRef{
		{Title: "Apple Inc.", Ticker: "AAPL", CIK: 320193},
		{Title: "Microsoft Corp", Ticker: "MSFT", CIK: 789019},
		{Title: "NVIDIA Corporation", Ticker: "NVDA", CIK: 1045810},
	})
}

func TestResolveExact(t *testing.T) {
	r := NewResolver(sampleReference())
	got := r.Resolve("Apple Inc.", true)
	if got.Ticker != "AAPL" || got.Confidence != ExactConfidence || got.Method != model.MapMethodExact {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestResolveIsCaseAndSuffixInsensitive(t *testing.T) {
	r := NewResolver(sampleReference())
	a := r.Resolve("Apple Inc.", true)
	b := r.Resolve("apple inc", true)
	if a != b {
		t.Fatalf("resolutions differ: %+v vs %+v", a, b)
	}
}

func TestExactBeatsFuzzy(t *testing.T) {
	// scorer 对所有候选都给满分，精确匹配仍须优先
	r := NewResolver(sampleReference(), WithScorer(func(string, string) float64 { return 100 }))
	got := r.Resolve("Microsoft Corporation", true)
	if got.Method != model.MapMethodExact || got.Ticker != "MSFT" || got.Confidence != 0.99 {
		t.Fatalf("expected exact MSFT, got %+v", got)
	}
}

func TestFuzzyThresholdBoundary(t *testing.T) {
	fixed := func(score float64) Scorer {
		return func(string, string) float64 { return score }
	}

	below := NewResolver(sampleReference(), WithScorer(fixed(84))).Resolve("Appel", true)
	if below.Found() || below.Method != model.MapMethodNone || below.Confidence != 0 {
		t.Fatalf("score 84 should be rejected, got %+v", below)
	}

	at := NewResolver(sampleReference(), WithScorer(fixed(85))).Resolve("Appel", true)
	if at.Method != model.MapMethodFuzzy || at.Confidence != 0.85 {
		t.Fatalf("score 85 should be accepted with confidence 0.85, got %+v", at)
	}
}

func TestFuzzyTieKeepsFirstCandidate(t *testing.T) {
	r := NewResolver(sampleReference(), WithScorer(func(string, string) float64 { return 90 }))
	got := r.Resolve("Something Else", true)
	if got.Ticker != "AAPL" {
		t.Fatalf("tie should keep the first reference entry, got %+v", got)
	}
}

func TestFuzzyWithDefaultScorer(t *testing.T) {
	r := NewResolver(sampleReference())
	got := r.Resolve("Microsft", true)
	if got.Ticker != "MSFT" || got.Method != model.MapMethodFuzzy {
		t.Fatalf("expected fuzzy MSFT, got %+v", got)
	}
	if got.Confidence < 0.85 || got.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", got.Confidence)
	}
}

func TestFuzzyDisabled(t *testing.T) {
	r := NewResolver(sampleReference())
	got := r.Resolve("Microsft", false)
	if got.Found() || got.Method != model.MapMethodNone {
		t.Fatalf("fuzzy disabled should miss, got %+v", got)
	}
}

func TestResolveEmptyName(t *testing.T) {
	got := NewResolver(sampleReference()).Resolve("  Inc. ", true)
	if got.Found() {
		t.Fatalf("empty normalized name should not resolve, got %+v", got)
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company_tickers.json")
	body := `[{"title":"Apple Inc.","ticker":"AAPL","cik":320193},{"title":"APPLE INC","ticker":"DUP","cik":1}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	ref, err := NewFileLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ref.Len() != 1 {
		t.Fatalf("duplicate normalized key should be dropped, got %d entries", ref.Len())
	}
	e, ok := ref.Lookup("apple")
	if !ok || e.Ticker != "AAPL" || e.CIK != 320193 {
		t.Fatalf("unexpected entry %+v ok=%v", e, ok)
	}
}

func TestFileLoaderMissingFile(t *testing.T) {
	if _, err := NewFileLoader(filepath.Join(t.TempDir(), "nope.json")).Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
