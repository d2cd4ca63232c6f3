package solve

import (
	"fmt"
	"math"
	"sort"

	"daynav/internal/model"
)

// Advise ranks the relaxations that would make an infeasible skeleton fit:
// how far the window would need extending, the minutes saved by omitting
// each placed entry, and the best attainable hotel ETA with each lock
// lifted. Suggestions sort by minutes saved descending; ties break by kind
// then store ID so output is stable.
func Advise(order []string, ctx *Context) ([]model.Suggestion, error) {
	tl, err := ComputeTimeline(order, ctx)
	if err != nil {
		return nil, err
	}
	overrun := tl.HotelETAMin - ctx.WindowEnd
	if overrun < 0 {
		overrun = 0
	}
	suggestions := []model.Suggestion{{
		Kind:         model.SuggestExtendWindow,
		MinutesSaved: overrun,
		Detail:       fmt.Sprintf("extend day window end by %.0f min", math.Ceil(overrun)),
	}}

	mandatory := map[string]bool{}
	for _, id := range ctx.MustVisit {
		mandatory[id] = true
	}
	for idx, id := range order {
		if id == BreakID {
			continue
		}
		rest := removeAt(order, idx)
		rtl, err := ComputeTimeline(rest, ctx)
		if err != nil {
			return nil, err
		}
		saved := tl.HotelETAMin - rtl.HotelETAMin
		kind := model.SuggestDropStop
		if mandatory[id] {
			kind = model.SuggestDropMandatory
		}
		suggestions = append(suggestions, model.Suggestion{
			Kind:         kind,
			StoreID:      id,
			MinutesSaved: saved,
			Detail:       fmt.Sprintf("omit %s to reach the end anchor %.0f min earlier", id, saved),
		})
	}

	for _, lk := range ctx.Locks {
		idx := -1
		for i, id := range order {
			if id == lk.StoreID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		rest := removeAt(order, idx)
		bestETA := math.Inf(1)
		for pos := 0; pos <= len(rest); pos++ {
			rtl, err := ComputeTimeline(insertAt(rest, pos, lk.StoreID), ctx)
			if err != nil {
				return nil, err
			}
			if rtl.HotelETAMin < bestETA {
				bestETA = rtl.HotelETAMin
			}
		}
		saved := tl.HotelETAMin - bestETA
		if saved < 0 {
			saved = 0
		}
		suggestions = append(suggestions, model.Suggestion{
			Kind:         model.SuggestRelaxLock,
			StoreID:      lk.StoreID,
			MinutesSaved: saved,
			Detail:       fmt.Sprintf("relax the %s lock on %s to save %.0f min", lk.Position, lk.StoreID, saved),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.MinutesSaved != b.MinutesSaved {
			return a.MinutesSaved > b.MinutesSaved
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.StoreID < b.StoreID
	})
	return suggestions, nil
}
