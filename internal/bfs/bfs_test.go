package bfs

import (
	"context"
	"testing"

	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/transition"
	"github.com/napolitain/cropsolver/internal/yield"
)

func tileLimitedShortlist() []*cropmodel.Crop {
	return []*cropmodel.Crop{
		{Name: "mikefruit", TimeToMaturity: 10, BuyPrice: 50, SellPrice: 150, Enabled: true},
		{Name: "cheapfruit", TimeToMaturity: 4, BuyPrice: 10, SellPrice: 25, Enabled: true},
	}
}

// Scenario 2 from the spec: a single tile, two crops, 300 starting wallet.
func TestRunTileLimitedScenario(t *testing.T) {
	root := calendar.New(28, 300, 1)
	p := Params{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      tileLimitedShortlist(),
		StartingWallet: 300,
		StartingTiles:  1,
		UseCache:       true,
		CacheSigDigits: 2,
	}
	result := Run(context.Background(), root, 1, p)
	if result.Aborted {
		t.Fatalf("run aborted unexpectedly")
	}
	if result.Calendar.Day(29).FreeTiles != 1 {
		t.Errorf("final free tiles = %v, want 1 (the single tile should come back)", result.Calendar.Day(29).FreeTiles)
	}
	if result.Wealth <= 300 {
		t.Errorf("wealth = %v, want > 300 (at least one profitable planting should occur)", result.Wealth)
	}
}

// P1: invariants I1/I2 hold on the produced calendar.
func TestRunResultSatisfiesBasicInvariants(t *testing.T) {
	root := calendar.New(28, 300, 1)
	p := Params{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      tileLimitedShortlist(),
		StartingWallet: 300,
		StartingTiles:  1,
		UseCache:       true,
		CacheSigDigits: 2,
	}
	result := Run(context.Background(), root, 1, p)
	for d := 1; d <= 29; d++ {
		gs := result.Calendar.Day(d)
		if gs.Wallet < 0 {
			t.Errorf("day %d wallet = %v, want >= 0 (I2)", d, gs.Wallet)
		}
		if !gs.FreeTiles.IsInfinite() && gs.FreeTiles < 0 {
			t.Errorf("day %d free tiles = %v, want >= 0 (I1)", d, gs.FreeTiles)
		}
	}
}

// P8: cache correctness — same best wealth with and without the cache.
func TestCacheDoesNotChangeBestWealth(t *testing.T) {
	root := calendar.New(28, 300, 1)
	base := Params{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      tileLimitedShortlist(),
		StartingWallet: 300,
		StartingTiles:  1,
		CacheSigDigits: 2,
	}

	withCache := base
	withCache.UseCache = true
	withoutCache := base
	withoutCache.UseCache = false

	r1 := Run(context.Background(), root, 1, withCache)
	r2 := Run(context.Background(), root.Clone(), 1, withoutCache)

	if diff := r1.Wealth - r2.Wealth; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("cache changed best wealth: with=%v without=%v", r1.Wealth, r2.Wealth)
	}
}

func TestRunAbortsOnCancelledContext(t *testing.T) {
	root := calendar.New(28, 5000, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Params{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      tileLimitedShortlist(),
		StartingWallet: 5000,
		StartingTiles:  100,
	}
	result := Run(ctx, root, 1, p)
	if !result.Aborted {
		t.Errorf("expected Aborted=true for a pre-cancelled context")
	}
}

func TestRunRespectsMemoryMonitor(t *testing.T) {
	root := calendar.New(28, 5000, 100)
	monitor := yield.NewMonitor(1.38)
	// Probe once up front: a normal test-process heap is far below 1.38GB,
	// so the monitor stays un-aborted and the run must complete.
	monitor.ProbeAndCheck()

	p := Params{
		SeasonLength:   28,
		Rule:           transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:      tileLimitedShortlist(),
		StartingWallet: 5000,
		StartingTiles:  100,
		Monitor:        monitor,
	}
	result := Run(context.Background(), root, 1, p)
	if result.Aborted {
		t.Fatalf("run should not abort under a normal test-process heap size")
	}
}

func TestRunStopsAtFrontierSize(t *testing.T) {
	root := calendar.New(28, 5000, 100)
	p := Params{
		SeasonLength:       28,
		Rule:               transition.Rule{Policy: transition.PolicyReleaseOnPayday},
		Shortlist:          tileLimitedShortlist(),
		StartingWallet:     5000,
		StartingTiles:      100,
		StopAtFrontierSize: 2,
	}
	result := Run(context.Background(), root, 1, p)
	if !result.Stopped {
		t.Errorf("expected Stopped=true once the frontier reached StopAtFrontierSize")
	}
	if len(result.Frontier) < 2 {
		t.Errorf("expected at least 2 undrained frontier nodes, got %d", len(result.Frontier))
	}
}
