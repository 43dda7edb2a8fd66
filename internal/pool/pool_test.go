package pool

import (
	"context"
	"testing"

	"github.com/napolitain/cropsolver/internal/bfs"
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/transition"
)

func shortlist() []*cropmodel.Crop {
	return []*cropmodel.Crop{
		{Name: "mikefruit", TimeToMaturity: 10, BuyPrice: 50, SellPrice: 150, Enabled: true},
		{Name: "cheapfruit", TimeToMaturity: 4, BuyPrice: 10, SellPrice: 25, Enabled: true},
	}
}

func testConfig() Config {
	return Config{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      shortlist(),
		StartingWallet: 300,
		StartingTiles:  10,
		UseCache:       true,
		CacheSigDigits: 2,
	}
}

func TestAvailableParallelismIsPositive(t *testing.T) {
	if n := AvailableParallelism(); n <= 0 {
		t.Errorf("AvailableParallelism() = %d, want > 0", n)
	}
}

func TestNewBuildsOneCachePerWorker(t *testing.T) {
	p := New(testConfig())
	if p.Workers() <= 0 {
		t.Fatalf("expected at least one worker")
	}
	if len(p.workers) != p.Workers() {
		t.Errorf("pool owns %d workers, Workers() reports %d", len(p.workers), p.Workers())
	}
	for _, w := range p.workers {
		if w.cache == nil {
			t.Errorf("worker %d has no cache despite UseCache=true", w.id)
		}
	}
}

func TestDispatchShallowExpandsOneLevel(t *testing.T) {
	p := New(testConfig())
	root := calendar.New(28, 300, 10)
	frontier := []bfs.Node{{Day: 1, Calendar: root}}

	outputs := p.DispatchShallow(context.Background(), frontier)
	if len(outputs) != 1 {
		t.Fatalf("expected one output chunk for a single-node frontier, got %d", len(outputs))
	}
	for _, n := range outputs[0].Nodes {
		if n.Day != 2 {
			t.Errorf("shallow-expanded node day = %d, want 2", n.Day)
		}
	}
}

func TestDispatchDeepReturnsOneResultPerNode(t *testing.T) {
	p := New(testConfig())
	root := calendar.New(28, 300, 10)
	frontier := []bfs.Node{
		{Day: 1, Calendar: root},
		{Day: 1, Calendar: root.Clone()},
	}

	results := p.DispatchDeep(context.Background(), frontier, nil)
	if len(results) != len(frontier) {
		t.Fatalf("DispatchDeep returned %d results, want %d", len(results), len(frontier))
	}
	for i, r := range results {
		if r.Wealth < 300 {
			t.Errorf("result %d wealth = %v, want >= starting wallet", i, r.Wealth)
		}
	}
}

func TestSortLPTOrdersHeaviestFirst(t *testing.T) {
	light := calendar.New(28, 300, 10)
	light.Day(25).DayOfInterest = true

	heavy := calendar.New(28, 300, 10)
	heavy.Day(5).DayOfInterest = true
	heavy.Day(10).DayOfInterest = true
	heavy.Day(15).DayOfInterest = true

	nodes := []bfs.Node{
		{Day: 1, Calendar: light},
		{Day: 1, Calendar: heavy},
	}
	sortLPT(nodes, 28)
	if nodes[0].Calendar != heavy {
		t.Errorf("expected the heavier subtree (more days of interest) to sort first")
	}
}
