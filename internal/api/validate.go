package api

import (
	"fmt"

	"daynav/internal/model"
)

func validateTrip(trip *model.Trip) error {
	if trip.Config.MPH < 0 {
		return fmt.Errorf("config.mph must be >= 0")
	}
	if len(trip.Days) == 0 {
		return fmt.Errorf("trip must have at least one day")
	}
	seen := map[string]struct{}{}
	for i := range trip.Days {
		d := &trip.Days[i]
		if d.DayID == "" {
			return fmt.Errorf("days[%d]: missing id", i)
		}
		if _, dup := seen[d.DayID]; dup {
			return fmt.Errorf("duplicate day id: %s", d.DayID)
		}
		seen[d.DayID] = struct{}{}
		ws, err := model.ParseClock(d.Window.Start)
		if err != nil {
			return fmt.Errorf("day %s: window.start: %w", d.DayID, err)
		}
		we, err := model.ParseClock(d.Window.End)
		if err != nil {
			return fmt.Errorf("day %s: window.end: %w", d.DayID, err)
		}
		if we <= ws {
			return fmt.Errorf("day %s: window.end must be after window.start", d.DayID)
		}
		if d.Break != nil {
			if d.Break.DurationMin < 0 {
				return fmt.Errorf("day %s: break.durationMin must be >= 0", d.DayID)
			}
			if d.Break.Start != "" {
				if _, err := model.ParseClock(d.Break.Start); err != nil {
					return fmt.Errorf("day %s: break.start: %w", d.DayID, err)
				}
			}
			if d.Break.End != "" {
				if _, err := model.ParseClock(d.Break.End); err != nil {
					return fmt.Errorf("day %s: break.end: %w", d.DayID, err)
				}
			}
		}
		storeIDs := map[string]struct{}{}
		for _, s := range trip.Stores {
			if s.DayID == d.DayID {
				storeIDs[s.ID] = struct{}{}
			}
		}
		for _, id := range d.MustVisitIDs {
			if _, ok := storeIDs[id]; !ok {
				return fmt.Errorf("day %s: mustVisit references unknown store %s", d.DayID, id)
			}
		}
		for _, lk := range d.Locks {
			if _, ok := storeIDs[lk.StoreID]; !ok {
				return fmt.Errorf("day %s: lock references unknown store %s", d.DayID, lk.StoreID)
			}
			switch lk.Position {
			case model.LockFirst, model.LockLast:
			case model.LockIndex:
				if lk.Index < 0 {
					return fmt.Errorf("day %s: lock on %s: index must be >= 0", d.DayID, lk.StoreID)
				}
			case model.LockAfter:
				if lk.AfterID == "" {
					return fmt.Errorf("day %s: lock on %s: afterId is required", d.DayID, lk.StoreID)
				}
				if _, ok := storeIDs[lk.AfterID]; !ok {
					return fmt.Errorf("day %s: lock on %s: after references unknown store %s", d.DayID, lk.StoreID, lk.AfterID)
				}
			default:
				return fmt.Errorf("day %s: lock on %s: unknown position %q", d.DayID, lk.StoreID, lk.Position)
			}
		}
	}
	for i, s := range trip.Stores {
		if s.ID == "" {
			return fmt.Errorf("stores[%d]: missing id", i)
		}
		if _, ok := seen[s.DayID]; !ok {
			return fmt.Errorf("store %s references unknown day %s", s.ID, s.DayID)
		}
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return fmt.Errorf("store %s: coordinates out of range", s.ID)
		}
		if s.DwellMin != nil && *s.DwellMin < 0 {
			return fmt.Errorf("store %s: dwellMin must be >= 0", s.ID)
		}
	}
	return nil
}

func validateSolveRequest(req *solveRequest) error {
	if req.DayID == "" {
		return fmt.Errorf("dayId is required")
	}
	if ov := req.Overrides; ov != nil {
		if ov.MPH != nil && *ov.MPH <= 0 {
			return fmt.Errorf("overrides.mph must be > 0")
		}
		if ov.Lambda != nil && (*ov.Lambda < 0 || *ov.Lambda > 1) {
			return fmt.Errorf("overrides.lambda must be in [0,1]")
		}
		if ov.Robustness != nil && *ov.Robustness < 1 {
			return fmt.Errorf("overrides.robustness must be >= 1")
		}
		if ov.DefaultDwellMin != nil && *ov.DefaultDwellMin < 0 {
			return fmt.Errorf("overrides.defaultDwellMin must be >= 0")
		}
	}
	return nil
}

func validateSubscription(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("events must not be empty")
	}
	for _, e := range req.Events {
		switch e {
		case "*", "plan.solved", "plan.infeasible", "trip.created":
		default:
			return fmt.Errorf("unknown event type: %s", e)
		}
	}
	return nil
}
