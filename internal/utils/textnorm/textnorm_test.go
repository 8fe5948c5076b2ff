package textnorm

import (
	"math"
	"testing"
)

func TestNormalizeIssuer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Apple Inc.", "Apple"},
		{"apple inc", "apple"},
		{"NVIDIA Corporation", "NVIDIA"},
		{"Berkshire Hathaway Inc. Class B", "Berkshire Hathaway Class B"},
		{"Procter & Gamble Co", "Procter & Gamble Co"},
		{"Coca-Cola  Company", "Coca-Cola Company"},
		{"  Siemens AG  ", "Siemens"},
		{"Acme, LLC", "Acme"},
		{"Incline Corp.", "Incline"},
		{"AT&T (common)", "AT&T common"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeIssuer(c.in); got != c.want {
			t.Errorf("NormalizeIssuer(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIssuerKeyCaseFolds(t *testing.T) {
	if IssuerKey("Apple Inc.") != IssuerKey("apple inc") {
		t.Fatalf("keys differ: %q vs %q", IssuerKey("Apple Inc."), IssuerKey("apple inc"))
	}
}

func TestTokenSetRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"apple", "apple", 100},
		{"fuzzy was a bear", "fuzzy fuzzy was a bear", 100},
		{"microsoft", "microsoft windows", 100},
		{"apple", "apply", 80},
		{"microsft", "microsoft", 100 * (1 - 1.0/17)},
		{"abc", "xyz", 0},
		{"", "apple", 0},
		{"bank america", "america bank", 100},
	}
	for _, c := range cases {
		got := TokenSetRatio(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("TokenSetRatio(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestTokenSetRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"alphabet class a", "alphabet class c"},
		{"johnson johnson", "johnson controls"},
		{"meta platforms", "metal platforms"},
	}
	for _, p := range pairs {
		if TokenSetRatio(p[0], p[1]) != TokenSetRatio(p[1], p[0]) {
			t.Errorf("not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestRatioEmpty(t *testing.T) {
	if Ratio("", "") != 100 {
		t.Fatal("two empty strings should be identical")
	}
}
