package solve

import (
	"errors"
	"fmt"

	"daynav/internal/model"
)

// Contract violations. Orders referencing ids outside the catalog, or a
// break with no configured window, are programming errors and fail loudly.
var (
	ErrUnknownStoreID     = errors.New("order references unknown store id")
	ErrBreakWithoutWindow = errors.New("break in order but no break window configured")
)

// Timeline is the rendered schedule for one order: the full stop sequence
// including the start and end anchors, drive/dwell totals, and the arrival
// at the end anchor (hotel ETA).
type Timeline struct {
	Stops         []model.StopPlan
	TotalDriveMin float64
	TotalDwellMin float64
	HotelETAMin   float64

	HasBreak    bool
	BreakArrive float64
	BreakDepart float64
}

// ComputeTimeline walks the order from the start anchor, accumulating drive
// and dwell time. The break entry inserts a fixed-duration pause clamped to
// begin no earlier than the configured break start; it does not move the
// traveler. The function is pure: identical order and context always yield
// identical output.
func ComputeTimeline(order []string, ctx *Context) (*Timeline, error) {
	tl := &Timeline{Stops: make([]model.StopPlan, 0, len(order)+2)}

	t := ctx.WindowStart
	curID, curLat, curLon := ctx.Start.ID, ctx.Start.Lat, ctx.Start.Lon
	tl.Stops = append(tl.Stops, renderStop(model.StopStart, ctx.Start.ID, ctx.Start.Name, curLat, curLon, t, t, 0, nil, nil))

	for _, id := range order {
		if id == BreakID {
			if ctx.Break == nil {
				return nil, ErrBreakWithoutWindow
			}
			arrive := t
			if arrive < ctx.Break.StartMin {
				arrive = ctx.Break.StartMin
			}
			depart := arrive + ctx.Break.DurationMin
			tl.TotalDwellMin += ctx.Break.DurationMin
			tl.Stops = append(tl.Stops, renderStop(model.StopBreak, BreakID, "Break", curLat, curLon, arrive, depart, ctx.Break.DurationMin, nil, nil))
			tl.HasBreak = true
			tl.BreakArrive = arrive
			tl.BreakDepart = depart
			t = depart
			continue
		}

		st, ok := ctx.Stores[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStoreID, id)
		}
		dist, ok := ctx.distance(curID, id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStoreID, id)
		}
		drive := ctx.driveMinutes(dist)
		arrive := t + drive
		dwell := ctx.dwellFor(st)
		depart := arrive + dwell
		leg := &model.LegPlan{FromID: curID, ToID: id, DriveMin: drive, DistanceMi: dist}
		tl.Stops = append(tl.Stops, renderStop(model.StopStore, id, st.Name, st.Lat, st.Lon, arrive, depart, dwell, leg, st.Score))
		tl.TotalDriveMin += drive
		tl.TotalDwellMin += dwell
		t = depart
		curID, curLat, curLon = id, st.Lat, st.Lon
	}

	dist, ok := ctx.distance(curID, ctx.End.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStoreID, curID)
	}
	drive := ctx.driveMinutes(dist)
	eta := t + drive
	leg := &model.LegPlan{FromID: curID, ToID: ctx.End.ID, DriveMin: drive, DistanceMi: dist}
	tl.Stops = append(tl.Stops, renderStop(model.StopEnd, ctx.End.ID, ctx.End.Name, ctx.End.Lat, ctx.End.Lon, eta, eta, 0, leg, nil))
	tl.TotalDriveMin += drive
	tl.HotelETAMin = eta
	return tl, nil
}

func renderStop(kind, id, name string, lat, lon, arrive, depart, dwell float64, leg *model.LegPlan, score *float64) model.StopPlan {
	return model.StopPlan{
		Kind:      kind,
		ID:        id,
		Name:      name,
		Lat:       lat,
		Lon:       lon,
		Arrive:    model.FormatClock(arrive),
		Depart:    model.FormatClock(depart),
		ArriveMin: arrive,
		DepartMin: depart,
		DwellMin:  dwell,
		Leg:       leg,
		Score:     score,
	}
}
