// Package solve implements the day-level construction and optimization
// engine: timeline computation, feasibility evaluation, greedy construction,
// 2-opt/relocate local search, the infeasibility advisor, and mid-day
// re-optimization. Everything here is pure and synchronous; all search state
// lives in order slices that are copied freely, and the only cached structure
// is the read-only distance matrix built once per context.
package solve

import (
	"fmt"
	"sort"

	"daynav/internal/geo"
	"daynav/internal/model"
)

// BreakID is the reserved order entry standing for the day's break. It may
// appear at most once, and only when a break window is configured.
const BreakID = "__break__"

// CheckpointID is the synthetic start-anchor id used by re-optimization.
const CheckpointID = "__checkpoint__"

const timeEps = 1e-9

// BreakWindow is the resolved break configuration, minutes since midnight.
type BreakWindow struct {
	StartMin    float64
	EndMin      float64
	DurationMin float64
}

type hoursRange struct {
	open  float64
	close float64
}

// Context holds the resolved, immutable inputs to one solve. It is built
// once per solve (or re-optimization) and never mutated during search.
type Context struct {
	DayID       string
	Start       model.Anchor
	End         model.Anchor
	WindowStart float64
	WindowEnd   float64

	MPH             float64
	DefaultDwellMin float64
	Robustness      float64
	Lambda          float64
	Weekday         string

	Stores     map[string]model.Store
	Candidates []string // sorted store ids eligible this day
	MustVisit  []string
	Locks      []model.LockSpec

	MaxDriveMin float64 // 0 = no cap
	MaxStops    int     // 0 = no cap
	Break       *BreakWindow

	RiskThresholdMin float64

	Matrix *geo.Matrix

	// openHours holds per-store open windows resolved for Weekday; a store
	// absent from the map is open all day, an empty slice means closed.
	openHours map[string][]hoursRange
}

// NewContext resolves a trip day plus overrides into a solve context.
func NewContext(trip *model.Trip, dayID string, ov model.SolveOverrides) (*Context, error) {
	day := trip.Day(dayID)
	if day == nil {
		return nil, fmt.Errorf("unknown day %q", dayID)
	}

	mph := trip.Config.MPH
	if day.MPH != nil {
		mph = *day.MPH
	}
	if ov.MPH != nil {
		mph = *ov.MPH
	}
	if mph <= 0 {
		return nil, geo.ErrInvalidSpeed
	}

	dwell := float64(trip.Config.DefaultDwellMin)
	if day.DefaultDwellMin != nil {
		dwell = float64(*day.DefaultDwellMin)
	}
	if ov.DefaultDwellMin != nil {
		dwell = float64(*ov.DefaultDwellMin)
	}

	robust := 1.0
	if day.Robustness != nil && *day.Robustness > 0 {
		robust = *day.Robustness
	}
	if ov.Robustness != nil && *ov.Robustness > 0 {
		robust = *ov.Robustness
	}

	lambda := trip.Config.Lambda
	if ov.Lambda != nil {
		lambda = *ov.Lambda
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	ws, err := model.ParseClock(day.Window.Start)
	if err != nil {
		return nil, fmt.Errorf("day %s window: %w", dayID, err)
	}
	we, err := model.ParseClock(day.Window.End)
	if err != nil {
		return nil, fmt.Errorf("day %s window: %w", dayID, err)
	}

	ctx := &Context{
		DayID:           dayID,
		Start:           day.Start,
		End:             day.End,
		WindowStart:     float64(ws),
		WindowEnd:       float64(we),
		MPH:             mph,
		DefaultDwellMin: dwell,
		Robustness:      robust,
		Lambda:          lambda,
		Weekday:         day.DayOfWeek,
		Stores:          make(map[string]model.Store),
		MustVisit:       append([]string(nil), day.MustVisitIDs...),
		Locks:           append([]model.LockSpec(nil), day.Locks...),
		openHours:       make(map[string][]hoursRange),
	}
	if day.MaxDriveMin != nil {
		ctx.MaxDriveMin = *day.MaxDriveMin
	}
	if day.MaxStops != nil {
		ctx.MaxStops = *day.MaxStops
	}
	if ov.RiskThresholdMin != nil {
		ctx.RiskThresholdMin = *ov.RiskThresholdMin
	}

	if day.Break != nil {
		bw, err := resolveBreak(day.Break)
		if err != nil {
			return nil, fmt.Errorf("day %s break: %w", dayID, err)
		}
		ctx.Break = bw
	}

	points := []geo.Point{
		{ID: day.Start.ID, Lat: day.Start.Lat, Lon: day.Start.Lon},
		{ID: day.End.ID, Lat: day.End.Lat, Lon: day.End.Lon},
	}
	for _, st := range trip.Stores {
		if st.DayID != "" && st.DayID != dayID {
			continue
		}
		ctx.Stores[st.ID] = st
		ctx.Candidates = append(ctx.Candidates, st.ID)
		points = append(points, geo.Point{ID: st.ID, Lat: st.Lat, Lon: st.Lon})
		if ctx.Weekday != "" && st.OpenHours != nil {
			ranges, err := resolveHours(st.OpenHours[ctx.Weekday])
			if err != nil {
				return nil, fmt.Errorf("store %s open hours: %w", st.ID, err)
			}
			ctx.openHours[st.ID] = ranges
		}
	}
	sort.Strings(ctx.Candidates)
	ctx.Matrix = geo.BuildMatrix(points)
	return ctx, nil
}

func resolveBreak(b *model.BreakSpec) (*BreakWindow, error) {
	start, err := model.ParseClock(b.Start)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(b.End)
	if err != nil {
		return nil, err
	}
	dur := float64(b.DurationMin)
	if dur <= 0 {
		dur = float64(end - start)
	}
	if dur <= 0 || end <= start {
		return nil, fmt.Errorf("empty break window %s-%s", b.Start, b.End)
	}
	return &BreakWindow{StartMin: float64(start), EndMin: float64(end), DurationMin: dur}, nil
}

func resolveHours(wins []model.HoursWindow) ([]hoursRange, error) {
	out := make([]hoursRange, 0, len(wins))
	for _, w := range wins {
		open, err := model.ParseClock(w.Open)
		if err != nil {
			return nil, err
		}
		cls, err := model.ParseClock(w.Close)
		if err != nil {
			return nil, err
		}
		out = append(out, hoursRange{open: float64(open), close: float64(cls)})
	}
	return out, nil
}

// dwellFor returns the dwell minutes for a store: its override, else the
// context default.
func (c *Context) dwellFor(st model.Store) float64 {
	if st.DwellMin != nil {
		return float64(*st.DwellMin)
	}
	return c.DefaultDwellMin
}

// coord resolves an id to its coordinate: anchors, then stores.
func (c *Context) coord(id string) (lat, lon float64, ok bool) {
	switch id {
	case c.Start.ID:
		return c.Start.Lat, c.Start.Lon, true
	case c.End.ID:
		return c.End.Lat, c.End.Lon, true
	}
	st, ok := c.Stores[id]
	if !ok {
		return 0, 0, false
	}
	return st.Lat, st.Lon, true
}

// distance returns the miles between two ids, via the matrix when available.
func (c *Context) distance(fromID, toID string) (float64, bool) {
	if d, ok := c.Matrix.Distance(fromID, toID); ok {
		return d, true
	}
	aLat, aLon, ok := c.coord(fromID)
	if !ok {
		return 0, false
	}
	bLat, bLon, ok := c.coord(toID)
	if !ok {
		return 0, false
	}
	return geo.Distance(aLat, aLon, bLat, bLon), true
}

// driveMinutes converts miles to minutes under the context's speed and
// robustness factor. Speed positivity is validated at construction.
func (c *Context) driveMinutes(distanceMi float64) float64 {
	return distanceMi / c.MPH * 60 * c.Robustness
}

// value is the insertion objective for one store: lambda-weighted blend of
// desirability score and unit stop count.
func (c *Context) value(st model.Store) float64 {
	score := 0.0
	if st.Score != nil {
		score = *st.Score
	}
	return c.Lambda*score + (1 - c.Lambda)
}
