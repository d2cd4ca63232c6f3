package solve

import (
	"fmt"

	"daynav/internal/model"
)

// ReasonCode tags why an order is inadmissible. The same codes are surfaced
// as exclusion reasons to the caller.
type ReasonCode string

const (
	ReasonWindowOverrun    ReasonCode = "dayWindowOverrun"
	ReasonMissingMandatory ReasonCode = "missingMandatoryVisit"
	ReasonDriveCap         ReasonCode = "maxDriveTimeExceeded"
	ReasonStopCap          ReasonCode = "maxStopsExceeded"
	ReasonBreakMissing     ReasonCode = "breakMissing"
	ReasonBreakViolated    ReasonCode = "breakOutsideWindow"
	ReasonStoreClosed      ReasonCode = "storeClosed"
	ReasonBeforeOpen       ReasonCode = "arrivalBeforeOpen"
	ReasonAfterClose       ReasonCode = "arrivalAfterClose"
	ReasonShortWindow      ReasonCode = "insufficientOpenWindow"
	ReasonUnknown          ReasonCode = "noFeasibleInsertion"
)

// Reason is the tagged outcome of a failed feasibility check.
type Reason struct {
	Code       ReasonCode
	StoreID    string
	Detail     string
	OverrunMin float64
}

func (r *Reason) String() string {
	if r == nil {
		return ""
	}
	if r.StoreID != "" && r.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", r.Code, r.StoreID, r.Detail)
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s", r.Code, r.Detail)
	}
	return string(r.Code)
}

// Assess decides admissibility of an order. It returns the computed timeline
// together with a nil reason when the order is feasible, or the first
// violated constraint. Checks run cheapest-first; the timeline is recomputed
// in full on every call, so tight loops should hold on to the result.
func Assess(order []string, ctx *Context) (*Timeline, *Reason, error) {
	present := make(map[string]bool, len(order))
	stops := 0
	for _, id := range order {
		present[id] = true
		if id != BreakID {
			stops++
		}
	}

	for _, id := range ctx.MustVisit {
		if !present[id] {
			return nil, &Reason{Code: ReasonMissingMandatory, StoreID: id}, nil
		}
	}
	if ctx.Break != nil && !present[BreakID] {
		return nil, &Reason{Code: ReasonBreakMissing}, nil
	}
	if ctx.MaxStops > 0 && stops > ctx.MaxStops {
		return nil, &Reason{Code: ReasonStopCap, Detail: fmt.Sprintf("%d stops over cap %d", stops, ctx.MaxStops)}, nil
	}

	tl, err := ComputeTimeline(order, ctx)
	if err != nil {
		return nil, nil, err
	}

	if tl.HotelETAMin > ctx.WindowEnd+timeEps {
		over := tl.HotelETAMin - ctx.WindowEnd
		return tl, &Reason{
			Code:       ReasonWindowOverrun,
			Detail:     fmt.Sprintf("hotel ETA %s past window end %s", model.FormatClock(tl.HotelETAMin), model.FormatClock(ctx.WindowEnd)),
			OverrunMin: over,
		}, nil
	}
	if ctx.MaxDriveMin > 0 && tl.TotalDriveMin > ctx.MaxDriveMin+timeEps {
		return tl, &Reason{
			Code:       ReasonDriveCap,
			Detail:     fmt.Sprintf("%.1f drive min over cap %.0f", tl.TotalDriveMin, ctx.MaxDriveMin),
			OverrunMin: tl.TotalDriveMin - ctx.MaxDriveMin,
		}, nil
	}
	if ctx.Break != nil && tl.HasBreak {
		if tl.BreakArrive < ctx.Break.StartMin-timeEps || tl.BreakDepart > ctx.Break.EndMin+timeEps {
			return tl, &Reason{
				Code:   ReasonBreakViolated,
				Detail: fmt.Sprintf("break %s-%s outside window %s-%s", model.FormatClock(tl.BreakArrive), model.FormatClock(tl.BreakDepart), model.FormatClock(ctx.Break.StartMin), model.FormatClock(ctx.Break.EndMin)),
			}, nil
		}
	}

	for _, sp := range tl.Stops {
		if sp.Kind != model.StopStore {
			continue
		}
		if r := ctx.checkOpenHours(sp.ID, sp.ArriveMin, sp.DepartMin); r != nil {
			return tl, r, nil
		}
	}
	return tl, nil, nil
}

// IsFeasible is the boolean collapse of Assess. Contract violations also
// report false; construction never builds such orders.
func IsFeasible(order []string, ctx *Context) bool {
	_, reason, err := Assess(order, ctx)
	return err == nil && reason == nil
}

// checkOpenHours verifies that a store visit fits one of its open windows
// for the context weekday. Stores without declared hours, or contexts
// without a weekday, are always open.
func (c *Context) checkOpenHours(storeID string, arrive, depart float64) *Reason {
	wins, declared := c.openHours[storeID]
	if !declared {
		return nil
	}
	if len(wins) == 0 {
		return &Reason{Code: ReasonStoreClosed, StoreID: storeID, Detail: fmt.Sprintf("closed on %s", c.Weekday)}
	}
	for _, w := range wins {
		if arrive >= w.open-timeEps && arrive <= w.close+timeEps {
			if depart <= w.close+timeEps {
				return nil
			}
			return &Reason{
				Code:       ReasonShortWindow,
				StoreID:    storeID,
				Detail:     fmt.Sprintf("visit runs %.0f min past close %s", depart-w.close, model.FormatClock(w.close)),
				OverrunMin: depart - w.close,
			}
		}
	}
	last := wins[len(wins)-1]
	if arrive > last.close+timeEps {
		return &Reason{
			Code:    ReasonAfterClose,
			StoreID: storeID,
			Detail:  fmt.Sprintf("arrival %s after close %s", model.FormatClock(arrive), model.FormatClock(last.close)),
		}
	}
	// Before the first window, or in a gap between windows: either way the
	// store is not yet open at arrival.
	var nextOpen float64
	for _, w := range wins {
		if arrive < w.open {
			nextOpen = w.open
			break
		}
	}
	return &Reason{
		Code:    ReasonBeforeOpen,
		StoreID: storeID,
		Detail:  fmt.Sprintf("arrival %s before open %s", model.FormatClock(arrive), model.FormatClock(nextOpen)),
	}
}
