// Package greedy implements C4, the "PPI" heuristic: a day-by-day
// "plant the best per-tile crop" simulator run in two outer loops (TopCrop,
// AllCrop) that together produce a wealth floor and a crop shortlist for
// the BFS simulator. Grounded on the teacher's SolveAllStrategies
// (internal/solver/greedy.go), which iterates strategies and tracks a
// no-improvement cutoff the same way TopCrop/AllCrop strip-and-rerun until
// nothing new is learned.
package greedy

import (
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/transition"
)

// Params carries the run constants the heuristic needs.
type Params struct {
	SeasonLength int
	StartDay     int
	StartWallet  float64
	StartTiles   cropmodel.Tiles
	Rule         transition.Rule
	MultiCrop    bool
	MaxCropTypes int
}

// ShortlistSize implements §4.2's ρ table: the shortlist ceiling adapts to
// the tile-to-currency ratio, tighter as tiles become scarce relative to
// wallet (higher ρ explodes the branching factor).
func ShortlistSize(tiles cropmodel.Tiles, wallet float64) int {
	if tiles.IsInfinite() || wallet <= 0 {
		return 5
	}
	rho := float64(tiles) / wallet
	switch {
	case rho <= 0.1:
		return 5
	case rho <= 0.2:
		return 4
	case rho <= 0.4:
		return 3
	default:
		return 2
	}
}

// Result is the orchestrator-facing output of the two greedy loops.
type Result struct {
	Wealth    float64
	Calendar  *calendar.Calendar
	Shortlist []*cropmodel.Crop
}

// Run executes the TopCrop and AllCrop loops and returns the greedy floor
// plus the shortlist for C5.
func Run(candidates []*cropmodel.Crop, p Params) Result {
	maxN := p.MaxCropTypes
	if adaptive := ShortlistSize(p.StartTiles, p.StartWallet); adaptive < maxN {
		maxN = adaptive
	}

	best := Result{Wealth: -1}

	// TopCrop: strip the crop planted on day 1, re-run, repeat.
	remaining := append([]*cropmodel.Crop(nil), candidates...)
	for {
		run := simulate(remaining, p)
		if best.Wealth < 0 || run.wealth > best.Wealth {
			best.Wealth = run.wealth
			best.Calendar = run.cal
		}
		if run.firstCrop == nil {
			break
		}
		remaining = without(remaining, run.firstCrop)
		if len(remaining) == 0 {
			break
		}
	}

	// AllCrop: strip every crop visited by any greedy run, collecting the
	// first maxN distinct crops visited as the BFS shortlist.
	seen := make(map[string]bool)
	var shortlist []*cropmodel.Crop
	remaining = append([]*cropmodel.Crop(nil), candidates...)
	for {
		run := simulate(remaining, p)
		if best.Wealth < 0 || run.wealth > best.Wealth {
			best.Wealth = run.wealth
			best.Calendar = run.cal
		}
		if len(run.planted) == 0 {
			break
		}
		newlySeen := false
		for _, c := range run.planted {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			shortlist = append(shortlist, c)
			newlySeen = true
			if len(shortlist) >= maxN {
				break
			}
		}
		if len(shortlist) >= maxN || !newlySeen {
			break
		}
		remaining = withoutAll(remaining, run.planted)
		if len(remaining) == 0 {
			break
		}
	}

	best.Shortlist = shortlist
	return best
}

type simRun struct {
	wealth    float64
	cal       *calendar.Calendar
	firstCrop *cropmodel.Crop
	planted   []*cropmodel.Crop
}

// simulate runs one full greedy pass: on every day, repeatedly plant
// whichever affordable candidate maximizes units*profit_index until none
// remains profitable (when MultiCrop is set) or one crop has been planted
// (otherwise), then moves to the next day.
func simulate(candidates []*cropmodel.Crop, p Params) simRun {
	cal := calendar.New(p.SeasonLength, p.StartWallet, p.StartTiles)
	var firstCrop *cropmodel.Crop
	plantedSeen := make(map[string]bool)
	var planted []*cropmodel.Crop

	for d := p.StartDay; d <= p.SeasonLength; d++ {
		for {
			day := cal.Day(d)
			bestScore := 0.0
			var bestCrop *cropmodel.Crop
			for _, c := range candidates {
				if !c.Enabled || !c.Plantable(d, p.SeasonLength) {
					continue
				}
				u := cropmodel.UnitsPlantable(day.FreeTiles, day.Wallet, c.BuyPrice)
				if u <= 0 {
					continue
				}
				score := float64(u) * c.ProfitIndex(d, p.SeasonLength, p.Rule.PaydayDelay)
				if score > bestScore {
					bestScore = score
					bestCrop = c
				}
			}
			if bestCrop == nil {
				break
			}
			cal = p.Rule.Apply(cal, d, bestCrop)
			if firstCrop == nil {
				firstCrop = bestCrop
			}
			if !plantedSeen[bestCrop.Name] {
				plantedSeen[bestCrop.Name] = true
				planted = append(planted, bestCrop)
			}
			if !p.MultiCrop {
				break
			}
		}
	}

	return simRun{wealth: cal.Wealth(), cal: cal, firstCrop: firstCrop, planted: planted}
}

func without(crops []*cropmodel.Crop, drop *cropmodel.Crop) []*cropmodel.Crop {
	return withoutAll(crops, []*cropmodel.Crop{drop})
}

// withoutAll strips every crop in drop from crops, by name. AllCrop uses this
// to remove every crop a greedy run planted in one pass, not just the first —
// stripping only the first leaves most of the run's crops in `remaining`,
// so the next simulate() call tends to replant the same set and hits the
// !newlySeen break sooner than intended.
func withoutAll(crops []*cropmodel.Crop, drop []*cropmodel.Crop) []*cropmodel.Crop {
	dropNames := make(map[string]bool, len(drop))
	for _, d := range drop {
		dropNames[d.Name] = true
	}
	out := make([]*cropmodel.Crop, 0, len(crops))
	for _, c := range crops {
		if !dropNames[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
