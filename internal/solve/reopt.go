package solve

import (
	"fmt"

	"daynav/internal/model"
)

// ReoptimizeDay re-plans the remainder of a day from a mid-day checkpoint.
// It derives a residual trip whose start anchor is the checkpoint position,
// whose window opens at the checkpoint time, and whose store set omits the
// completed visits, then solves that residual from scratch. Completed stores
// drop out of mandatory lists and locks; the break is kept only if it can
// still be taken in full, otherwise it is assumed already taken.
func ReoptimizeDay(trip *model.Trip, dayID string, cp model.Checkpoint, ov model.SolveOverrides) (*model.DayPlan, Stats, error) {
	day := trip.Day(dayID)
	if day == nil {
		return nil, Stats{}, fmt.Errorf("unknown day %q", dayID)
	}
	at, err := model.ParseClock(cp.At)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("checkpoint time: %w", err)
	}

	completed := make(map[string]bool, len(cp.CompletedIDs))
	for _, id := range cp.CompletedIDs {
		completed[id] = true
	}

	d := *day
	d.Start = model.Anchor{ID: CheckpointID, Name: "checkpoint", Lat: cp.Lat, Lon: cp.Lon}
	d.Window = model.Window{Start: cp.At, End: day.Window.End}

	d.MustVisitIDs = nil
	for _, id := range day.MustVisitIDs {
		if !completed[id] {
			d.MustVisitIDs = append(d.MustVisitIDs, id)
		}
	}
	d.Locks = nil
	for _, lk := range day.Locks {
		if completed[lk.StoreID] {
			continue
		}
		if lk.Position == model.LockAfter && completed[lk.AfterID] {
			continue
		}
		d.Locks = append(d.Locks, lk)
	}
	if day.Break != nil {
		if keep, err := breakStillFits(day.Break, float64(at)); err != nil {
			return nil, Stats{}, err
		} else if keep {
			b := *day.Break
			d.Break = &b
		} else {
			d.Break = nil
		}
	}

	residual := model.Trip{Config: trip.Config, Days: []model.DayConfig{d}}
	residual.Stores = make([]model.Store, 0, len(trip.Stores))
	for _, st := range trip.Stores {
		if st.DayID == dayID && completed[st.ID] {
			continue
		}
		residual.Stores = append(residual.Stores, st)
	}
	return SolveDay(&residual, dayID, ov)
}

func breakStillFits(b *model.BreakSpec, now float64) (bool, error) {
	end, err := model.ParseClock(b.End)
	if err != nil {
		return false, fmt.Errorf("break end: %w", err)
	}
	start, err := model.ParseClock(b.Start)
	if err != nil {
		return false, fmt.Errorf("break start: %w", err)
	}
	dur := float64(b.DurationMin)
	if b.DurationMin <= 0 {
		dur = float64(end - start)
	}
	return now <= float64(end)-dur+timeEps, nil
}
