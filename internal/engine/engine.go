// Package engine implements C9, the orchestrator: validates input, runs
// the greedy heuristic twice for a floor and a shortlist, drains the BFS
// (sequentially, then via the worker pool once the frontier outgrows
// DeepSeeds), and returns the better of greedy vs. simulated, shifting days
// if the season did not start on day 1.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/napolitain/cropsolver/internal/bfs"
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/config"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/greedy"
	"github.com/napolitain/cropsolver/internal/pool"
	"github.com/napolitain/cropsolver/internal/progress"
	"github.com/napolitain/cropsolver/internal/telemetry"
	"github.com/napolitain/cropsolver/internal/yield"
)

// MemoryExceededSentinel is the (-2, empty_calendar) failure value §7
// mandates for a MemoryExceeded run.
const MemoryExceededSentinel = -2

// InvalidInputError is the InvalidInput error kind from §7.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Request is one query to the orchestrator.
type Request struct {
	SeasonLength int
	StartDay     int
	Tiles        cropmodel.Tiles
	Wallet       float64
}

// Result is the orchestrator's answer: the chosen value (wealth, or profit
// in infinite-gold mode) and the calendar that produced it. On
// MemoryExceeded, Value is MemoryExceededSentinel and Calendar is empty.
type Result struct {
	Value          float64
	Calendar       *calendar.Calendar
	MemoryExceeded bool
	UsedGreedy     bool
}

// Orchestrator is the engine's entry point, built once per process (or per
// test) with a read-only crop catalog and config.
type Orchestrator struct {
	Catalog []*cropmodel.Crop
	Config  config.Config
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
	// OnProgress, if set, receives a snapshot each time the BFS samples
	// progress — how a CLI --watch flag drives a live view without the
	// engine importing anything terminal-related itself.
	OnProgress func(progress.Update)
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Run executes one query per §4.6.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	log := o.logger()

	if req.StartDay < 1 || req.StartDay >= req.SeasonLength {
		return Result{}, &InvalidInputError{Reason: fmt.Sprintf("start day %d must satisfy 1 <= startDay < %d", req.StartDay, req.SeasonLength)}
	}
	enabled := make([]*cropmodel.Crop, 0, len(o.Catalog))
	for _, c := range o.Catalog {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return Result{}, &InvalidInputError{Reason: "no enabled crops in catalog"}
	}

	tiles := req.Tiles
	if !tiles.IsInfinite() && tiles <= 0 {
		tiles = cropmodel.TilesInfinite
	}
	wallet := req.Wallet
	infiniteGold := false
	const syntheticWallet = 1e8
	if wallet <= 0 {
		wallet = syntheticWallet
		infiniteGold = true
	}

	rule := o.Config.Rule()

	// The engine always searches a season starting at day 1; a late
	// startDay simply shortens the effective season (fewer days remain to
	// plant in), and the result is shifted back into the caller's day
	// numbering afterward (§4.6 step 7, §6 calendar shift).
	effectiveLength := req.SeasonLength - req.StartDay + 1

	greedyParams := greedy.Params{
		SeasonLength: effectiveLength,
		StartDay:     1,
		StartWallet:  wallet,
		StartTiles:   tiles,
		Rule:         rule,
		MultiCrop:    o.Config.MultiCrop,
		MaxCropTypes: o.Config.MaxNumCropTypes,
	}
	greedyResult := greedy.Run(enabled, greedyParams)
	log.Debug("greedy floor computed", "wealth", greedyResult.Wealth, "shortlist_size", len(greedyResult.Shortlist))

	monitor := yield.NewMonitor(o.Config.MemoryThresholdGB)
	root := calendar.New(effectiveLength, wallet, tiles)

	lastCacheHits := 0
	simParams := bfs.Params{
		SeasonLength:       effectiveLength,
		Rule:               rule,
		Shortlist:          greedyResult.Shortlist,
		StartingWallet:     wallet,
		StartingTiles:      tiles,
		UseCache:           o.Config.UseCache,
		CacheSigDigits:     o.Config.CacheSigDigits,
		Monitor:            monitor,
		Yielder:            yield.NewYielder(yield.FrameBudget),
		StopAtFrontierSize: o.Config.DeepSeeds,
		OnProgress: func(frontierSize, nodesExpanded, cacheHits int, bestWealth float64) {
			if o.Metrics != nil {
				o.Metrics.FrontierSize.Set(float64(frontierSize))
				o.Metrics.NodesExpanded.Add(1)
				o.Metrics.HeapBytes.Set(float64(monitor.LastHeapBytes()))
				// Every OnProgress call corresponds to one dequeued node
				// that missed the cache (a hit short-circuits before this
				// callback fires), so it's also one cache-miss insertion.
				o.Metrics.CacheMisses.Inc()
				if delta := cacheHits - lastCacheHits; delta > 0 {
					o.Metrics.CacheHits.Add(float64(delta))
					lastCacheHits = cacheHits
				}
			}
			if o.OnProgress != nil {
				o.OnProgress(progress.Update{
					FrontierSize:  frontierSize,
					NodesExpanded: nodesExpanded,
					CacheHits:     cacheHits,
					BestWealth:    bestWealth,
				})
			}
		},
	}

	simResult := bfs.Run(ctx, root, 1, simParams)
	simWealth, simCal, aborted := simResult.Wealth, simResult.Calendar, simResult.Aborted

	if simResult.Stopped && !aborted {
		poolCfg := pool.Config{
			SeasonLength:   effectiveLength,
			Rule:           rule,
			Shortlist:      greedyResult.Shortlist,
			StartingWallet: wallet,
			StartingTiles:  tiles,
			UseCache:       o.Config.UseCache,
			CacheSigDigits: o.Config.CacheSigDigits,
			YieldBudget:    yield.FrameBudget,
		}
		p := pool.New(poolCfg)

		if o.Config.DispatchMode == "shallow" {
			// Shallow mode: repeatedly slice the frontier across workers,
			// expanding one BFS level per pass, until every branch has
			// either produced a leaf or been pruned away. Kept selectable
			// for completeness alongside the default Sequential-then-Deep
			// progression (§4.5); nothing switches into it automatically.
			frontier := simResult.Frontier
			for len(frontier) > 0 && ctx.Err() == nil {
				outputs := p.DispatchShallow(ctx, frontier)
				var next []bfs.Node
				for _, out := range outputs {
					for _, leaf := range out.Leaves {
						if w := leaf.Wealth(); w > simWealth {
							simWealth = w
							simCal = leaf
						}
					}
					next = append(next, out.Nodes...)
				}
				frontier = next
			}
			if ctx.Err() != nil {
				aborted = true
			}
		} else {
			deepResults := p.DispatchDeep(ctx, simResult.Frontier, monitor)
			for _, r := range deepResults {
				if r.Wealth > simWealth {
					simWealth = r.Wealth
					simCal = r.Calendar
				}
				if r.Aborted {
					aborted = true
				}
			}
		}
	}

	if aborted || monitor.Aborted() {
		log.Warn("memory threshold exceeded, aborting run", "threshold_gb", o.Config.MemoryThresholdGB)
		if o.Metrics != nil {
			o.Metrics.RunsTotal.WithLabelValues("memory_exceeded").Inc()
			o.Metrics.RunDuration.Observe(time.Since(start).Seconds())
		}
		return Result{
			Value:          MemoryExceededSentinel,
			Calendar:       calendar.New(req.SeasonLength, 0, 0),
			MemoryExceeded: true,
		}, nil
	}

	value := simWealth
	usedGreedy := false
	cal := simCal
	if greedyResult.Wealth > simWealth {
		value = greedyResult.Wealth
		cal = greedyResult.Calendar
		usedGreedy = true
	}

	if infiniteGold {
		value -= syntheticWallet
	}

	if req.StartDay > 1 {
		cal = cal.Shift(req.StartDay - 1)
	}

	if o.Metrics != nil {
		o.Metrics.RunsTotal.WithLabelValues("ok").Inc()
		o.Metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
	log.Info("run complete", "value", value, "used_greedy", usedGreedy, "duration", time.Since(start))

	return Result{Value: value, Calendar: cal, UsedGreedy: usedGreedy}, nil
}
