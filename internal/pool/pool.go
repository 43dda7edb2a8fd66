// Package pool implements C7: off-thread subtree evaluation with two
// dispatch modes (Shallow, Deep) and per-worker node caches. The teacher
// repo has no goroutines or channels anywhere in its tree, so this
// package's concurrency idiom is grounded instead on
// other_examples/wllclngn-muEmacs-extensions__concurrency.go's
// solveConcurrent/cloneForWorker pattern: a semaphore-style available
// channel bounding concurrent work, and a per-worker clone of otherwise
// read-only shared state.
package pool

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/napolitain/cropsolver/internal/bfs"
	"github.com/napolitain/cropsolver/internal/cache"
	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/transition"
	"github.com/napolitain/cropsolver/internal/yield"
)

// Mode selects how the pool distributes frontier work.
type Mode int

const (
	// Sequential processes the frontier without handing work to any
	// worker; used until the frontier grows past DeepSeeds (§4.5 mode
	// selection).
	Sequential Mode = iota
	// Shallow slices the frontier into W contiguous chunks and expands
	// each by exactly one level.
	Shallow
	// Deep hands each frontier node to one worker, which runs the full
	// BFS on that subtree locally with its own cache.
	Deep
)

// DefaultWorkers is the documented fallback when the parallelism probe
// fails (§4.5).
const DefaultWorkers = 4

// AvailableParallelism probes GOMAXPROCS capped by NumCPU, falling back to
// DefaultWorkers if either reports a non-positive value — the "positive
// integer or signals unavailable" contract from §6.
func AvailableParallelism() int {
	n := runtime.GOMAXPROCS(0)
	if cpu := runtime.NumCPU(); cpu > 0 && cpu < n {
		n = cpu
	}
	if n <= 0 {
		return DefaultWorkers
	}
	if n > DefaultWorkers {
		return DefaultWorkers
	}
	return n
}

// Config carries the read-only, configure-time-installed state every
// worker shares: the crop catalog subset (shortlist), the transition rule,
// and the cache bucketing digit count.
type Config struct {
	SeasonLength   int
	Rule           transition.Rule
	Shortlist      []*cropmodel.Crop
	StartingWallet float64
	StartingTiles  cropmodel.Tiles
	UseCache       bool
	CacheSigDigits int
	// YieldBudget paces each worker's cooperative suspension points between
	// groups of output nodes per §5/§9. Zero is the documented no-op for a
	// host that doesn't need pacing. Each worker gets its own *yield.Yielder
	// built from this budget rather than sharing one instance, since
	// Yielder's internal clock isn't safe for concurrent use.
	YieldBudget time.Duration
}

// worker owns exactly one private cache, reused across every subtree it is
// ever handed — installed once, never merged with any other worker's.
type worker struct {
	id      int
	cache   *cache.Cache
	yielder *yield.Yielder
}

// Pool owns W worker instances and the available-worker channel the Deep
// dispatcher back-pressures on.
type Pool struct {
	cfg     Config
	workers []*worker
	avail   chan *worker
}

// New builds a pool of min(AvailableParallelism(), 4) workers, each with
// its own cache pre-built from cfg.
func New(cfg Config) *Pool {
	n := AvailableParallelism()
	p := &Pool{cfg: cfg, avail: make(chan *worker, n)}
	for i := 0; i < n; i++ {
		var c *cache.Cache
		if cfg.UseCache {
			c = cache.New(cfg.CacheSigDigits)
		}
		w := &worker{id: i, cache: c, yielder: yield.NewYielder(cfg.YieldBudget)}
		p.workers = append(p.workers, w)
		p.avail <- w
	}
	return p
}

// Workers reports how many worker instances the pool owns.
func (p *Pool) Workers() int {
	return len(p.workers)
}

// lptKey computes the two-level Longest-Processing-Time-first cost
// estimate for a frontier node: primary is the count of remaining days of
// interest, secondary is their (L-d+1)-weighted sum (earlier -> larger).
// Heavier subtrees sort first so the dispatcher's last few dispatches
// don't dominate wall-clock.
func lptKey(n bfs.Node, seasonLength int) (int, int) {
	primary := 0
	secondary := 0
	for d := n.Day; d <= seasonLength+1; d++ {
		if n.Calendar.Day(d).DayOfInterest {
			primary++
			secondary += seasonLength - d + 1
		}
	}
	return primary, secondary
}

// sortLPT orders nodes heaviest-subtree-first for Deep dispatch.
func sortLPT(nodes []bfs.Node, seasonLength int) {
	primaries := make([]int, len(nodes))
	secondaries := make([]int, len(nodes))
	for i, n := range nodes {
		primaries[i], secondaries[i] = lptKey(n, seasonLength)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if primaries[i] != primaries[j] {
			return primaries[i] > primaries[j]
		}
		return secondaries[i] > secondaries[j]
	})
}

// DispatchShallow slices the frontier into contiguous chunks (one per
// worker) and expands each chunk by exactly one BFS level. Output nodes
// retain their input-chunk offset (ChunkIndex) so the caller can
// reconstruct per-input groupings, per §4.5.
type ShallowOutput struct {
	ChunkIndex int
	Nodes      []bfs.Node
	Leaves     []*calendar.Calendar
}

func (p *Pool) DispatchShallow(ctx context.Context, frontier []bfs.Node) []ShallowOutput {
	n := len(p.workers)
	if n == 0 || len(frontier) == 0 {
		return nil
	}
	chunkSize := (len(frontier) + n - 1) / n
	outputs := make([]ShallowOutput, 0, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < len(frontier); i += chunkSize {
		end := i + chunkSize
		if end > len(frontier) {
			end = len(frontier)
		}
		chunk := frontier[i:end]
		chunkIdx := i / chunkSize
		wg.Add(1)
		go func(chunkIdx int, chunk []bfs.Node) {
			defer wg.Done()
			w := <-p.avail
			defer func() { p.avail <- w }()

			out := ShallowOutput{ChunkIndex: chunkIdx}
			for _, node := range chunk {
				if ctx.Err() != nil {
					break
				}
				for _, crop := range p.cfg.Shortlist {
					succ := p.cfg.Rule.Apply(node.Calendar, node.Day, crop)
					if succ == node.Calendar {
						continue
					}
					nextDay := node.Day + 1
					if nextDay > p.cfg.SeasonLength+1 {
						out.Leaves = append(out.Leaves, succ)
						continue
					}
					out.Nodes = append(out.Nodes, bfs.Node{Day: nextDay, Calendar: succ})
				}
				w.yielder.Yield()
			}
			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
		}(chunkIdx, chunk)
	}
	wg.Wait()
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].ChunkIndex < outputs[j].ChunkIndex })
	return outputs
}

// DeepResult is one worker's best leaf for the subtree it was handed.
type DeepResult struct {
	Wealth   float64
	Calendar *calendar.Calendar
	Aborted  bool
}

// DispatchDeep sorts the frontier by LPT, then hands one subtree per free
// worker, back-pressured on the available-worker channel. Each worker runs
// a full local BFS (bfs.Run) reusing its own persistent cache and returns
// the single best leaf it found.
func (p *Pool) DispatchDeep(ctx context.Context, frontier []bfs.Node, monitor *yield.Monitor) []DeepResult {
	sortLPT(frontier, p.cfg.SeasonLength)

	results := make([]DeepResult, len(frontier))
	var wg sync.WaitGroup
	for i, node := range frontier {
		wg.Add(1)
		go func(i int, node bfs.Node) {
			defer wg.Done()
			w := <-p.avail
			defer func() { p.avail <- w }()

			params := bfs.Params{
				SeasonLength:   p.cfg.SeasonLength,
				Rule:           p.cfg.Rule,
				Shortlist:      p.cfg.Shortlist,
				StartingWallet: p.cfg.StartingWallet,
				StartingTiles:  p.cfg.StartingTiles,
				UseCache:       p.cfg.UseCache,
				CacheSigDigits: p.cfg.CacheSigDigits,
				Cache:          w.cache,
				Monitor:        monitor,
				Yielder:        w.yielder,
			}
			res := bfs.Run(ctx, node.Calendar, node.Day, params)
			results[i] = DeepResult{Wealth: res.Wealth, Calendar: res.Calendar, Aborted: res.Aborted}
		}(i, node)
	}
	wg.Wait()
	return results
}
