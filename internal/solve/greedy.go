package solve

import (
	"fmt"
	"math/rand"

	"daynav/internal/model"
)

// Stats counts solver work for reporting; it never influences results.
type Stats struct {
	Insertions    int `json:"insertions"`
	Evaluations   int `json:"evaluations"`
	TwoOptMoves   int `json:"twoOptMoves"`
	RelocateMoves int `json:"relocateMoves"`
}

// Construction is the output of the greedy constructor: a feasible order,
// the locked region bounds, and per-store exclusion reasons for candidates
// that could not be inserted anywhere.
type Construction struct {
	Order        []string
	PrefixLen    int
	SuffixLen    int
	Timeline     *Timeline
	Exclusions   map[string]*Reason
	DroppedLocks []string
	Stats        Stats
}

// InfeasibleError reports that the required skeleton (locks plus mandatory
// visits) cannot fit the day window. It carries the advisor's ranked
// relaxations so callers never surface a bare failure.
type InfeasibleError struct {
	DayID       string
	Reason      *Reason
	Suggestions []model.Suggestion
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("day %s infeasible: %s (%d suggestions)", e.DayID, e.Reason, len(e.Suggestions))
}

// Construct builds an initial feasible order in three phases: lock
// placement, mandatory-visit seeding, then greedy insertion of the best
// remaining candidate at its best feasible position until none fits. The
// rng breaks exact ties only; identical seeds reproduce identical orders.
func Construct(ctx *Context, rng *rand.Rand) (*Construction, error) {
	prefix, suffix, dropped := placeLocks(ctx)
	order := make([]string, 0, len(prefix)+len(suffix))
	order = append(order, prefix...)
	order = append(order, suffix...)

	c := &Construction{
		PrefixLen:    len(prefix),
		SuffixLen:    len(suffix),
		Exclusions:   map[string]*Reason{},
		DroppedLocks: dropped,
	}

	var err error
	for _, id := range ctx.MustVisit {
		if containsID(order, id) {
			continue
		}
		order, err = insertBestETA(order, id, c.PrefixLen, c.SuffixLen, ctx)
		if err != nil {
			return nil, err
		}
	}
	if ctx.Break != nil {
		order, err = insertBestETA(order, BreakID, c.PrefixLen, c.SuffixLen, ctx)
		if err != nil {
			return nil, err
		}
	}

	tl, reason, err := Assess(order, ctx)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		sugg, aerr := Advise(order, ctx)
		if aerr != nil {
			return nil, aerr
		}
		return nil, &InfeasibleError{DayID: ctx.DayID, Reason: reason, Suggestions: sugg}
	}

	placed := make(map[string]bool, len(order))
	for _, id := range order {
		placed[id] = true
	}
	remaining := make([]string, 0, len(ctx.Candidates))
	for _, id := range ctx.Candidates { // already sorted for determinism
		if !placed[id] {
			remaining = append(remaining, id)
		}
	}

	lastReason := map[string]*Reason{}
	for len(remaining) > 0 {
		type insertion struct {
			remIdx int
			pos    int
			tl     *Timeline
			key    insertKey
		}
		var ties []insertion
		for ri, id := range remaining {
			val := ctx.value(ctx.Stores[id])
			for pos := c.PrefixLen; pos <= len(order)-c.SuffixLen; pos++ {
				trial := insertAt(order, pos, id)
				ttl, reason, err := Assess(trial, ctx)
				c.Stats.Evaluations++
				if err != nil {
					return nil, err
				}
				if reason != nil {
					lastReason[id] = reason
					continue
				}
				k := insertKey{
					value:    val,
					etaDelta: ttl.HotelETAMin - tl.HotelETAMin,
					slack:    ctx.WindowEnd - ttl.HotelETAMin,
					drive:    ttl.TotalDriveMin,
				}
				ins := insertion{remIdx: ri, pos: pos, tl: ttl, key: k}
				if len(ties) == 0 {
					ties = []insertion{ins}
					continue
				}
				switch compareKeys(k, ties[0].key) {
				case 1:
					ties = []insertion{ins}
				case 0:
					ties = append(ties, ins)
				}
			}
		}
		if len(ties) == 0 {
			break
		}
		pick := ties[0]
		if len(ties) > 1 {
			pick = ties[rng.Intn(len(ties))]
		}
		id := remaining[pick.remIdx]
		order = insertAt(order, pick.pos, id)
		tl = pick.tl
		remaining = append(remaining[:pick.remIdx], remaining[pick.remIdx+1:]...)
		delete(lastReason, id)
		c.Stats.Insertions++
	}

	for _, id := range remaining {
		c.Exclusions[id] = lastReason[id]
	}
	c.Order = order
	c.Timeline = tl
	return c, nil
}

// insertKey orders candidate insertions: higher value, then smaller hotel-ETA
// delta, then larger slack, then smaller total drive. Remaining ties go to a
// seeded random draw.
type insertKey struct {
	value    float64
	etaDelta float64
	slack    float64
	drive    float64
}

func compareKeys(a, b insertKey) int {
	switch {
	case a.value > b.value+timeEps:
		return 1
	case a.value < b.value-timeEps:
		return -1
	}
	switch {
	case a.etaDelta < b.etaDelta-timeEps:
		return 1
	case a.etaDelta > b.etaDelta+timeEps:
		return -1
	}
	switch {
	case a.slack > b.slack+timeEps:
		return 1
	case a.slack < b.slack-timeEps:
		return -1
	}
	switch {
	case a.drive < b.drive-timeEps:
		return 1
	case a.drive > b.drive+timeEps:
		return -1
	}
	return 0
}

// placeLocks partitions locks into a locked prefix ("first" and fixed-index
// locks in increasing index order, then "after" locks behind their placed
// reference) and a locked suffix ("last" locks in declaration order). Locks
// that cannot be honored are dropped with a diagnostic.
func placeLocks(ctx *Context) (prefix, suffix, dropped []string) {
	type idxLock struct {
		storeID string
		key     int
		decl    int
	}
	var front []idxLock
	for i, lk := range ctx.Locks {
		switch lk.Position {
		case model.LockFirst:
			front = append(front, idxLock{storeID: lk.StoreID, key: -1, decl: i})
		case model.LockIndex:
			front = append(front, idxLock{storeID: lk.StoreID, key: lk.Index, decl: i})
		}
	}
	// stable insertion sort by (key, declaration order)
	for i := 1; i < len(front); i++ {
		for j := i; j > 0; j-- {
			a, b := front[j-1], front[j]
			if a.key > b.key || (a.key == b.key && a.decl > b.decl) {
				front[j-1], front[j] = b, a
			} else {
				break
			}
		}
	}
	for _, l := range front {
		if containsID(prefix, l.storeID) {
			dropped = append(dropped, fmt.Sprintf("%s: already locked", l.storeID))
			continue
		}
		prefix = append(prefix, l.storeID)
	}
	for _, lk := range ctx.Locks {
		if lk.Position != model.LockAfter {
			continue
		}
		if containsID(prefix, lk.StoreID) {
			dropped = append(dropped, fmt.Sprintf("%s: already locked", lk.StoreID))
			continue
		}
		ref := -1
		for i, id := range prefix {
			if id == lk.AfterID {
				ref = i
				break
			}
		}
		if ref < 0 {
			dropped = append(dropped, fmt.Sprintf("%s: after-reference %s not placed", lk.StoreID, lk.AfterID))
			continue
		}
		prefix = insertAt(prefix, ref+1, lk.StoreID)
	}
	for _, lk := range ctx.Locks {
		if lk.Position != model.LockLast {
			continue
		}
		if containsID(prefix, lk.StoreID) || containsID(suffix, lk.StoreID) {
			dropped = append(dropped, fmt.Sprintf("%s: already locked", lk.StoreID))
			continue
		}
		suffix = append(suffix, lk.StoreID)
	}
	return prefix, suffix, dropped
}

// insertBestETA places id at the free-region position yielding the smallest
// hotel ETA, ties to the earliest-tried position. Feasibility is checked
// after all seeding, not here.
func insertBestETA(order []string, id string, prefixLen, suffixLen int, ctx *Context) ([]string, error) {
	bestPos := -1
	bestETA := 0.0
	for pos := prefixLen; pos <= len(order)-suffixLen; pos++ {
		trial := insertAt(order, pos, id)
		tl, err := ComputeTimeline(trial, ctx)
		if err != nil {
			return nil, err
		}
		if bestPos < 0 || tl.HotelETAMin < bestETA-timeEps {
			bestPos = pos
			bestETA = tl.HotelETAMin
		}
	}
	return insertAt(order, bestPos, id), nil
}

func insertAt(order []string, pos int, id string) []string {
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, id)
	out = append(out, order[pos:]...)
	return out
}

func removeAt(order []string, pos int) []string {
	out := make([]string, 0, len(order)-1)
	out = append(out, order[:pos]...)
	out = append(out, order[pos+1:]...)
	return out
}

func containsID(order []string, id string) bool {
	for _, v := range order {
		if v == id {
			return true
		}
	}
	return false
}
