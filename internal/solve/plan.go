package solve

import (
	"math"
	"sort"
	"time"

	"daynav/internal/model"
)

// bindingToleranceMin: a drive cap within this many minutes of the total is
// reported as binding.
const bindingToleranceMin = 1.0

// BuildPlan renders a solved order into the external plan shape: rendered
// stops, derived metrics, and the exclusion list enriched with the nearest
// visited alternative per excluded store.
func BuildPlan(ctx *Context, order []string, tl *Timeline, exclusions map[string]*Reason, seed int64) *model.DayPlan {
	plan := &model.DayPlan{
		DayID:     ctx.DayID,
		Seed:      seed,
		Order:     append([]string(nil), order...),
		Stops:     tl.Stops,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	visited := make([]string, 0, len(order))
	totalScore := 0.0
	for _, id := range order {
		if id == BreakID {
			continue
		}
		visited = append(visited, id)
		if st, ok := ctx.Stores[id]; ok && st.Score != nil {
			totalScore += *st.Score
		}
	}

	m := model.PlanMetrics{
		Stops:         len(visited),
		TotalDriveMin: tl.TotalDriveMin,
		TotalDwellMin: tl.TotalDwellMin,
		TotalScore:    totalScore,
		HotelETA:      model.FormatClock(tl.HotelETAMin),
		HotelETAMin:   tl.HotelETAMin,
		SlackMin:      math.Max(0, ctx.WindowEnd-tl.HotelETAMin),
	}
	if len(visited) > 0 {
		m.ScorePerStop = totalScore / float64(len(visited))
	}
	if ctx.MaxStops > 0 {
		switch {
		case len(visited) > ctx.MaxStops:
			m.Violated = append(m.Violated, "maxStops")
		case len(visited) == ctx.MaxStops:
			m.Binding = append(m.Binding, "maxStops")
		}
	}
	if ctx.MaxDriveMin > 0 {
		switch {
		case tl.TotalDriveMin > ctx.MaxDriveMin+timeEps:
			m.Violated = append(m.Violated, "maxDriveTime")
		case ctx.MaxDriveMin-tl.TotalDriveMin <= bindingToleranceMin:
			m.Binding = append(m.Binding, "maxDriveTime")
		}
	}
	m.OnTimeRisk = onTimeRisk(ctx, tl)
	plan.Metrics = m

	plan.Exclusions = renderExclusions(ctx, visited, exclusions)
	return plan
}

// onTimeRisk is the fraction of timed commitments (each store stop plus the
// end-anchor return) whose departure sits within RiskThresholdMin of its
// governing close. The governing close for a store is the declared window
// containing the arrival, else the day window end.
func onTimeRisk(ctx *Context, tl *Timeline) float64 {
	commitments := 0
	atRisk := 0
	for _, s := range tl.Stops {
		if s.Kind != model.StopStore {
			continue
		}
		commitments++
		close := ctx.WindowEnd
		for _, w := range ctx.openHours[s.ID] {
			if s.ArriveMin >= w.open-timeEps && s.ArriveMin <= w.close+timeEps {
				close = w.close
				break
			}
		}
		if s.DepartMin+ctx.RiskThresholdMin > close+timeEps {
			atRisk++
		}
	}
	commitments++
	if tl.HotelETAMin+ctx.RiskThresholdMin > ctx.WindowEnd+timeEps {
		atRisk++
	}
	return float64(atRisk) / float64(commitments)
}

func renderExclusions(ctx *Context, visited []string, exclusions map[string]*Reason) []model.Exclusion {
	if len(exclusions) == 0 {
		return nil
	}
	ids := make([]string, 0, len(exclusions))
	for id := range exclusions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Exclusion, 0, len(ids))
	for _, id := range ids {
		ex := model.Exclusion{StoreID: id, Reason: string(ReasonUnknown)}
		if r := exclusions[id]; r != nil {
			ex.Reason = string(r.Code)
			ex.Detail = r.Detail
		}
		best := math.Inf(1)
		for _, vid := range visited {
			d, ok := ctx.distance(id, vid)
			if ok && d < best-timeEps {
				best = d
				ex.NearestVisitedID = vid
			}
		}
		out = append(out, ex)
	}
	return out
}
