// Package bfs implements C5: the full combinatorial search over crop
// choices, bounded by the greedy shortlist and gated by the cache, the
// memory monitor, and the two fixed pruning thresholds.
package bfs

import (
	"context"

	"github.com/napolitain/cropsolver/internal/cache"
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/transition"
	"github.com/napolitain/cropsolver/internal/yield"
)

// Gold-floor and tile-floor pruning fractions are fixed per §4.3: the spec
// requires exactly these values for test reproducibility, so they are not
// exposed as tunables even though other thresholds are (§6 config table
// still carries gold_floor_fraction/tile_floor_fraction for documentation
// parity with the original options list, but overriding them away from
// these values is intentionally not wired into the orchestrator).
const (
	GoldFloorFraction = 0.5
	TileFloorFraction = 0.07
)

// OpsSampleInterval is K from §4.3: every 500 dequeues the memory monitor
// is probed.
const OpsSampleInterval = 500

// Node is one frontier entry: a decision day and the calendar leading to it.
type Node struct {
	Day      int
	Calendar *calendar.Calendar
}

// Params bundles the run constants the BFS needs beyond the frontier
// itself.
type Params struct {
	SeasonLength      int
	Rule              transition.Rule
	Shortlist         []*cropmodel.Crop
	StartingWallet    float64
	StartingTiles     cropmodel.Tiles
	UseCache          bool
	CacheSigDigits    int
	// Cache, when non-nil, is reused across calls instead of allocating a
	// fresh one — how a worker pool gives each worker its own persistent
	// cache across the subtrees it is handed (§4.5).
	Cache             *cache.Cache
	Monitor           *yield.Monitor
	// Yielder, when non-nil, paces cooperative suspension points per §5/§9
	// so a host multiplexing this run with other work (e.g. the live
	// progress view) gets predictable handoffs. Nil is a valid, common
	// no-op for a host that parallelizes workers across OS threads instead.
	Yielder           *yield.Yielder
	OnProgress        func(frontierSize, nodesExpanded, cacheHits int, bestWealth float64)
	// StopAtFrontierSize, when non-zero, returns early once the frontier
	// reaches this depth instead of draining to completion — how the
	// orchestrator implements "sequential until S=120, then Deep" (§4.5
	// mode selection) on top of one drain loop.
	StopAtFrontierSize int
}

// Result is the outcome of draining the frontier.
type Result struct {
	Wealth   float64
	Calendar *calendar.Calendar
	Aborted  bool
	// Stopped is true when StopAtFrontierSize cut the drain short; Frontier
	// then holds the undrained remainder for a caller (e.g. a worker pool)
	// to take over.
	Stopped  bool
	Frontier []Node
}

func cheapestBuyPrice(crops []*cropmodel.Crop) float64 {
	best := -1.0
	for _, c := range crops {
		if best < 0 || c.BuyPrice < best {
			best = c.BuyPrice
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

// passesPruning implements the gold-floor and tile-floor checks gating
// whether a successor at day j is worth enqueueing at all.
func passesPruning(day *calendar.GameState, cheapestBuy, startingGold float64, startingTiles cropmodel.Tiles) bool {
	if day.Wallet < cheapestBuy {
		return false
	}
	if day.Wallet < startingGold*GoldFloorFraction {
		return false
	}
	if !day.FreeTiles.IsInfinite() {
		if day.FreeTiles <= 0 {
			return false
		}
		if !startingTiles.IsInfinite() && float64(day.FreeTiles) <= float64(startingTiles)*TileFloorFraction {
			return false
		}
	}
	return true
}

// Run drains a FIFO frontier seeded with a single root node, expanding each
// dequeued node through every shortlist crop via the transition rule. The
// first node in FIFO order wins ties on equal wealth, per §5's ordering
// rule.
func Run(ctx context.Context, root *calendar.Calendar, startDay int, p Params) Result {
	c := p.Cache
	if c == nil && p.UseCache {
		c = cache.New(p.CacheSigDigits)
	}
	cheapest := cheapestBuyPrice(p.Shortlist)

	frontier := []Node{{Day: startDay, Calendar: root}}
	best := root.Wealth()
	var bestCal = root
	ops := 0
	cacheHits := 0

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			return Result{Wealth: best, Calendar: bestCal, Aborted: true}
		}

		node := frontier[0]
		frontier = frontier[1:]
		p.Yielder.Yield()

		if c != nil {
			if c.SeenOrMark(node.Calendar, node.Day) {
				cacheHits++
				continue
			}
		}

		ops++
		if ops%OpsSampleInterval == 0 && p.Monitor != nil {
			if p.Monitor.ProbeAndCheck() {
				return Result{Wealth: best, Calendar: bestCal, Aborted: true}
			}
			p.Yielder.Yield()
		}
		if p.OnProgress != nil {
			p.OnProgress(len(frontier), ops, cacheHits, best)
		}

		anyExpanded := false
		for _, crop := range p.Shortlist {
			succ := p.Rule.Apply(node.Calendar, node.Day, crop)
			if succ == node.Calendar {
				continue // crop not plantable / not affordable: no-op
			}
			anyExpanded = true

			// The successor's next decision day is the first later day that
			// passes pruning; with none left in the season it is a leaf.
			nextDay := 0
			for j := node.Day + 1; j <= p.SeasonLength; j++ {
				if passesPruning(succ.Day(j), cheapest, p.StartingWallet, p.StartingTiles) {
					nextDay = j
					break
				}
			}
			if nextDay > 0 {
				frontier = append(frontier, Node{Day: nextDay, Calendar: succ})
			} else {
				if w := succ.Wealth(); w > best {
					best = w
					bestCal = succ
				}
			}
		}

		if !anyExpanded {
			if w := node.Calendar.Wealth(); w > best {
				best = w
				bestCal = node.Calendar
			}
		}

		if p.StopAtFrontierSize > 0 && len(frontier) >= p.StopAtFrontierSize {
			return Result{Wealth: best, Calendar: bestCal, Stopped: true, Frontier: frontier}
		}
	}

	return Result{Wealth: best, Calendar: bestCal}
}
