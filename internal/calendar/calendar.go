// Package calendar models the per-day farm state the simulator searches
// over: GameState (one day), PlantBatch (an immutable planting), and
// Calendar (the full day-indexed timeline). It also owns the canonical
// serialization used both for the cross-worker wire format and, bucketed,
// for the cache key (§6).
package calendar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/napolitain/cropsolver/internal/cropmodel"
)

// PlantBatch is immutable once created. Its harvest-day set is cached at
// construction time so repeated transitions never recompute it.
type PlantBatch struct {
	ID           string
	Crop         *cropmodel.Crop
	Count        int
	PlantDay     int
	SeasonLength int
	Harvests     []int
}

// NewPlantBatch allocates a batch id via google/uuid: the id is never part
// of any serialized form (§6), so its randomness has no bearing on
// reproducibility — it exists solely so the BFS and CLI report can point
// back at "which planting produced this line" when reconstructing a
// sequence of decisions.
func NewPlantBatch(crop *cropmodel.Crop, count, plantDay, seasonLength int) *PlantBatch {
	return &PlantBatch{
		ID:           uuid.NewString(),
		Crop:         crop,
		Count:        count,
		PlantDay:     plantDay,
		SeasonLength: seasonLength,
		Harvests:     crop.HarvestDays(plantDay, seasonLength),
	}
}

// NumDays is the batch's footprint for shift purposes: the number of days
// from plant day to its last harvest (last harvest day minus plant day).
func (b *PlantBatch) NumDays() int {
	if len(b.Harvests) == 0 {
		return 0
	}
	return b.Harvests[len(b.Harvests)-1] - b.PlantDay
}

// GameState is one day's worth of farm state.
type GameState struct {
	Wallet        float64
	FreeTiles     cropmodel.Tiles
	Plants        []*PlantBatch
	DayOfInterest bool
}

// Calendar is a 1..L+1 mapping from day to GameState, stored 0-indexed
// internally (index i == day i+1).
type Calendar struct {
	SeasonLength int
	Days         []GameState
}

// New builds the flat root calendar: every day starts at the same wallet
// and tile count because nothing has been planted yet.
func New(seasonLength int, startWallet float64, startTiles cropmodel.Tiles) *Calendar {
	days := make([]GameState, seasonLength+1)
	for i := range days {
		days[i] = GameState{Wallet: startWallet, FreeTiles: startTiles}
	}
	return &Calendar{SeasonLength: seasonLength, Days: days}
}

// Day returns a pointer to the GameState for 1-indexed day d.
func (c *Calendar) Day(d int) *GameState {
	return &c.Days[d-1]
}

// Wealth is wallet[L+1], the calendar's defined wealth.
func (c *Calendar) Wealth() float64 {
	return c.Days[len(c.Days)-1].Wallet
}

// RangeDeepCopy shares the prefix [1, fromDay) by value (PlantBatch pointers
// are never mutated after construction, so aliasing them is safe) and deep
// copies only the per-day Plants slices from fromDay through L+1, per the
// "deep copies vs. range copies" design note.
func (c *Calendar) RangeDeepCopy(fromDay int) *Calendar {
	out := &Calendar{SeasonLength: c.SeasonLength, Days: make([]GameState, len(c.Days))}
	copy(out.Days, c.Days)
	start := fromDay - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(out.Days); i++ {
		src := c.Days[i]
		plants := make([]*PlantBatch, len(src.Plants))
		copy(plants, src.Plants)
		out.Days[i] = GameState{
			Wallet:        src.Wallet,
			FreeTiles:     src.FreeTiles,
			Plants:        plants,
			DayOfInterest: src.DayOfInterest,
		}
	}
	return out
}

// Clone is a full RangeDeepCopy from day 1.
func (c *Calendar) Clone() *Calendar {
	return c.RangeDeepCopy(1)
}

// Shift moves the calendar by k days (k may be negative), growing or
// shrinking the day range by k: the state that was at day d becomes the
// state at d+k, and every PlantBatch's PlantDay and harvest days move by k
// (so NumDays is unchanged). A k>0 keeps every source day and adds a
// prefix of length k that carries day 1's wallet and tile count with no
// plants and no day of interest; a k<0 drops the first -k days. This is
// how the orchestrator reproduces a late
// StartDay's "days 1..k are empty" output after searching an internally
// shorter, day-1-rooted season (§6 calendar shift).
func (c *Calendar) Shift(k int) *Calendar {
	if k == 0 {
		return c.Clone()
	}
	newLen := len(c.Days) + k
	if newLen < 1 {
		newLen = 1
	}
	out := &Calendar{SeasonLength: newLen - 1, Days: make([]GameState, newLen)}
	first := c.Days[0]
	last := c.Days[len(c.Days)-1]
	for i := 0; i < newLen; i++ {
		srcIdx := i - k
		switch {
		case srcIdx < 0:
			out.Days[i] = GameState{Wallet: first.Wallet, FreeTiles: first.FreeTiles}
		case srcIdx >= len(c.Days):
			out.Days[i] = GameState{Wallet: last.Wallet, FreeTiles: last.FreeTiles}
		default:
			src := c.Days[srcIdx]
			plants := make([]*PlantBatch, len(src.Plants))
			for j, b := range src.Plants {
				shifted := *b
				shifted.PlantDay += k
				shifted.Harvests = make([]int, len(b.Harvests))
				for hi, h := range b.Harvests {
					shifted.Harvests[hi] = h + k
				}
				plants[j] = &shifted
			}
			out.Days[i] = GameState{
				Wallet:        src.Wallet,
				FreeTiles:     src.FreeTiles,
				Plants:        plants,
				DayOfInterest: src.DayOfInterest,
			}
		}
	}
	return out
}

// --- serialization (§6) ---

func tilesString(t cropmodel.Tiles) string {
	if t.IsInfinite() {
		return "-1"
	}
	return strconv.Itoa(int(t))
}

func plantsWireString(plants []*PlantBatch) string {
	if len(plants) == 0 {
		return ""
	}
	parts := make([]string, len(plants))
	for i, b := range plants {
		parts[i] = fmt.Sprintf("%s;%d;%d;%d", b.Crop.Name, b.Count, b.PlantDay, b.NumDays())
	}
	return strings.Join(parts, "-")
}

// SerializeWire produces the cross-worker wire form: raw (unbucketed)
// wallet/tiles, plants appended, one line per day where DayOfInterest is
// true plus the first and last day of the range.
func (c *Calendar) SerializeWire(fromDay int) string {
	return c.serialize(fromDay, false)
}

// CacheKey produces the canonical cache-lookup key: 2-sig-fig bucketed
// wallet/tiles, plants never included, per §4.4.
func (c *Calendar) CacheKey(fromDay, sigDigits int) string {
	return c.serializeBucketed(fromDay, sigDigits)
}

func (c *Calendar) serialize(fromDay int, _ bool) string {
	var sb strings.Builder
	last := len(c.Days)
	start := fromDay
	if start < 1 {
		start = 1
	}
	for d := start; d <= last; d++ {
		gs := c.Days[d-1]
		if !gs.DayOfInterest && d != start && d != last {
			continue
		}
		sb.WriteString(strconv.Itoa(d))
		sb.WriteByte('_')
		sb.WriteString(strconv.FormatFloat(gs.Wallet, 'f', -1, 64))
		sb.WriteByte('_')
		sb.WriteString(tilesString(gs.FreeTiles))
		if p := plantsWireString(gs.Plants); p != "" {
			sb.WriteByte('_')
			sb.WriteString(p)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Deserialize parses the output of SerializeWire(1) back into a Calendar,
// satisfying P2 (serialize(deserialize(s)) == s). Days SerializeWire elided
// (not a day of interest, not the first or last day) are forward-filled from
// the nearest preceding parsed day, mirroring the flat-tail model transition
// already forward-fills with — their exact content never affects
// re-serialization since those days are skipped on the way back out too.
// Plant batches are reconstructed with just enough of a Crop (its Name) and
// a synthetic one-entry Harvests slice to reproduce the same wire text;
// Deserialize is meant for wire round-trips, not for resuming a search.
func Deserialize(s string) (*Calendar, error) {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return nil, fmt.Errorf("calendar: empty wire string")
	}
	lines := strings.Split(trimmed, "\n")

	type parsedDay struct {
		day    int
		wallet float64
		tiles  cropmodel.Tiles
		plants []*PlantBatch
	}
	parsed := make([]parsedDay, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "_", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("calendar: malformed wire line %q", line)
		}
		day, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("calendar: bad day in %q: %w", line, err)
		}
		wallet, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("calendar: bad wallet in %q: %w", line, err)
		}
		tilesRaw, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("calendar: bad tiles in %q: %w", line, err)
		}
		var plants []*PlantBatch
		if len(parts) == 4 && parts[3] != "" {
			plants, err = parsePlantsWire(parts[3])
			if err != nil {
				return nil, err
			}
		}
		parsed = append(parsed, parsedDay{day: day, wallet: wallet, tiles: cropmodel.Tiles(tilesRaw), plants: plants})
	}

	last := parsed[len(parsed)-1].day
	if last < 1 {
		return nil, fmt.Errorf("calendar: invalid final day %d", last)
	}
	out := New(last-1, 0, 0)

	idx := 0
	var wallet float64
	var tiles cropmodel.Tiles
	for d := 1; d <= last; d++ {
		gs := out.Day(d)
		if idx < len(parsed) && parsed[idx].day == d {
			p := parsed[idx]
			wallet, tiles = p.wallet, p.tiles
			gs.DayOfInterest = true
			gs.Plants = p.plants
			idx++
		}
		gs.Wallet = wallet
		gs.FreeTiles = tiles
	}
	return out, nil
}

func parsePlantsWire(s string) ([]*PlantBatch, error) {
	chunks := strings.Split(s, "-")
	batches := make([]*PlantBatch, 0, len(chunks))
	for _, chunk := range chunks {
		fields := strings.Split(chunk, ";")
		if len(fields) != 4 {
			return nil, fmt.Errorf("calendar: malformed plant batch %q", chunk)
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("calendar: bad plant count in %q: %w", chunk, err)
		}
		plantDay, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("calendar: bad plant day in %q: %w", chunk, err)
		}
		numDays, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("calendar: bad plant num days in %q: %w", chunk, err)
		}
		batches = append(batches, &PlantBatch{
			ID:       uuid.NewString(),
			Crop:     &cropmodel.Crop{Name: fields[0]},
			Count:    count,
			PlantDay: plantDay,
			Harvests: []int{plantDay + numDays},
		})
	}
	return batches, nil
}

func (c *Calendar) serializeBucketed(fromDay, sigDigits int) string {
	var sb strings.Builder
	last := len(c.Days)
	start := fromDay
	if start < 1 {
		start = 1
	}
	for d := start; d <= last; d++ {
		gs := c.Days[d-1]
		if !gs.DayOfInterest && d != start && d != last {
			continue
		}
		walletBucket := RoundSignificant(gs.Wallet, sigDigits)
		var tilesBucket float64
		if gs.FreeTiles.IsInfinite() {
			tilesBucket = -1
		} else {
			tilesBucket = RoundSignificant(float64(gs.FreeTiles), sigDigits)
		}
		sb.WriteString(strconv.Itoa(d))
		sb.WriteByte('_')
		sb.WriteString(strconv.FormatFloat(walletBucket, 'f', -1, 64))
		sb.WriteByte('_')
		sb.WriteString(strconv.FormatFloat(tilesBucket, 'f', -1, 64))
		sb.WriteByte('\n')
	}
	return sb.String()
}
