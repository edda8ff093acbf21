package memory_test

import (
	"testing"

	"github.com/memcord/memcord/internal/memory"
)

func TestCoverageScore(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		content string
		want    float64
	}{
		{"identical", "use postgres", "use postgres", 1.0},
		{"full coverage in longer content", "postgres", "Use Postgres for analytics", 1.0},
		{"case insensitive", "POSTGRES", "use postgres", 1.0},
		{"partial coverage", "postgres redis kafka", "use postgres here", 1.0 / 3.0},
		{"word substring matches", "deploy", "redeploying the service", 1.0},
		{"no overlap", "kafka", "use postgres", 0},
		{"empty query", "", "use postgres", 0},
		{"empty content", "postgres", "", 0},
		{"both empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := memory.CoverageScore(tt.query, tt.content)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CoverageScore(%q, %q) = %v, want %v", tt.query, tt.content, got, tt.want)
			}
		})
	}
}

// Coverage is asymmetric: every query word appearing in a longer content
// scores 1.0, but not the other way around.
func TestCoverageScore_Asymmetric(t *testing.T) {
	short := "use postgres"
	long := "use postgres for the analytics workload"

	if got := memory.CoverageScore(short, long); got != 1.0 {
		t.Errorf("CoverageScore(short, long) = %v, want 1.0", got)
	}
	if got := memory.CoverageScore(long, short); got >= 1.0 {
		t.Errorf("CoverageScore(long, short) = %v, want < 1.0", got)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "a b c", "a b c", 1.0},
		{"disjoint", "a b", "c d", 0},
		{"half overlap", "a b c d", "a b e f", 2.0 / 6.0},
		{"both empty", "", "", 0},
		{"one empty", "a", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := memory.Jaccard(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
