package solve

import (
	"math/rand"

	"daynav/internal/model"
)

// SolveDay runs the full pipeline for one day: context resolution, greedy
// construction, local search, plan rendering. Results are deterministic for
// a given trip, overrides, and seed. Infeasible required skeletons surface
// as *InfeasibleError with suggestions attached.
func SolveDay(trip *model.Trip, dayID string, ov model.SolveOverrides) (*model.DayPlan, Stats, error) {
	ctx, err := NewContext(trip, dayID, ov)
	if err != nil {
		return nil, Stats{}, err
	}
	seed := trip.Config.Seed
	if ov.Seed != nil {
		seed = *ov.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	cons, err := Construct(ctx, rng)
	if err != nil {
		return nil, Stats{}, err
	}
	order, tl, err := Optimize(cons.Order, cons.PrefixLen, cons.SuffixLen, ctx, &cons.Stats)
	if err != nil {
		return nil, cons.Stats, err
	}
	plan := BuildPlan(ctx, order, tl, cons.Exclusions, seed)
	return plan, cons.Stats, nil
}
