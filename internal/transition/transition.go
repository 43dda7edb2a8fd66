// Package transition implements C3: given a calendar, a decision day, a
// crop, and the run's tile-release policy, produce the successor calendar
// through season end.
package transition

import (
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
)

// Policy selects how a non-persistent batch's tile is returned to the free
// pool: at harvest (Policy A) or at payday (Policy B, the recommended
// default per §4.1).
type Policy int

const (
	// PolicyReleaseOnPayday is Policy B: tiles stay occupied until the sale
	// settles. Recommended default.
	PolicyReleaseOnPayday Policy = iota
	// PolicyReleaseOnHarvest is Policy A: tiles free up immediately at
	// harvest, before the (possibly delayed) sale credits the wallet.
	PolicyReleaseOnHarvest
)

// Rule bundles the two process-wide constants §4.1 needs: the payday delay
// and the active release policy. Both are fixed for the lifetime of a run
// and passed explicitly rather than held in globals (§9).
type Rule struct {
	PaydayDelay int
	Policy      Policy
}

// Apply computes the successor calendar for planting u = UnitsPlantable
// units of crop on day d of cal. Returns cal unchanged (same pointer, no
// copy made) when §3 I6 forbids the planting or no units are affordable.
func (r Rule) Apply(cal *calendar.Calendar, d int, crop *cropmodel.Crop) *calendar.Calendar {
	L := cal.SeasonLength
	day := cal.Day(d)
	if !crop.Plantable(d, L) {
		return cal
	}
	u := cropmodel.UnitsPlantable(day.FreeTiles, day.Wallet, crop.BuyPrice)
	if u <= 0 {
		return cal
	}

	harvests := crop.HarvestDays(d, L)
	harvestSet := make(map[int]bool, len(harvests))
	for _, h := range harvests {
		harvestSet[h] = true
	}
	persistent := crop.IsPersistent(L)

	out := cal.RangeDeepCopy(d)
	batch := calendar.NewPlantBatch(crop, u, d, L)

	curUnits := u
	saleAccum := 0.0
	for j := d; j <= L+1; j++ {
		gs := out.Day(j)
		gs.Wallet -= float64(u) * crop.BuyPrice
		if j == d || j == L+1 {
			// L+1 is always a day of interest: it's where Wealth() is read,
			// and every batch's terminal accounting (final tile release,
			// final sale credit) has landed there by definition.
			gs.DayOfInterest = true
		}

		if !persistent && r.Policy == PolicyReleaseOnHarvest && harvestSet[j] {
			curUnits = 0
		}

		isPayday := harvestSet[j-r.PaydayDelay]
		if isPayday {
			saleAccum += float64(u) * crop.SellPrice
			gs.DayOfInterest = true
		}
		gs.Wallet += saleAccum
		if !persistent && r.Policy == PolicyReleaseOnPayday && isPayday {
			curUnits = 0
		}

		if curUnits > 0 {
			if !gs.FreeTiles.IsInfinite() {
				gs.FreeTiles -= cropmodel.Tiles(curUnits)
			}
			gs.Plants = append(gs.Plants, batch)
		}
	}
	return out
}
