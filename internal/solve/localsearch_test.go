package solve

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"daynav/internal/model"
)

func TestOptimizeUncrossesBacktrack(t *testing.T) {
	// end anchor past the last store, so the sweep order is uniquely optimal
	day := baseDay()
	day.End = model.Anchor{ID: "hotel-end", Lat: 0.06, Lon: 0}
	trip := testTrip(day,
		storeAt("a", 0.01, 1),
		storeAt("b", 0.03, 1),
		storeAt("c", 0.05, 1),
	)
	ctx := mustContext(t, trip, model.SolveOverrides{})

	// out-and-back order: c first, then backtrack
	start := []string{"c", "a", "b"}
	before, reason, err := Assess(start, ctx)
	if err != nil || reason != nil {
		t.Fatalf("fixture order infeasible: %v %s", err, reason)
	}

	var stats Stats
	order, tl, err := Optimize(start, 0, 0, ctx, &stats)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if tl.TotalDriveMin >= before.TotalDriveMin {
		t.Fatalf("drive %.2f not reduced from %.2f", tl.TotalDriveMin, before.TotalDriveMin)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if stats.TwoOptMoves+stats.RelocateMoves == 0 {
		t.Fatal("no moves recorded")
	}
}

func TestOptimizePreservesVisitSet(t *testing.T) {
	trip := testTrip(baseDay(),
		storeAt("a", 0.02, 1),
		storeAt("b", 0.04, 2),
		storeAt("c", 0.01, 3),
		storeAt("d", 0.03, 1),
	)
	ctx := mustContext(t, trip, model.SolveOverrides{})
	c, err := Construct(ctx, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	order, tl, err := Optimize(c.Order, c.PrefixLen, c.SuffixLen, ctx, &c.Stats)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	got := append([]string(nil), order...)
	want := append([]string(nil), c.Order...)
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("visit set changed: %v vs %v", got, want)
	}
	if tl.HotelETAMin > c.Timeline.HotelETAMin+tolMin {
		t.Fatalf("ETA regressed: %.2f after, %.2f before", tl.HotelETAMin, c.Timeline.HotelETAMin)
	}
	if !IsFeasible(order, ctx) {
		t.Fatal("optimized order infeasible")
	}
}

func TestOptimizeRespectsLockedRegions(t *testing.T) {
	trip := testTrip(baseDay(),
		storeAt("f", 0.05, 1),
		storeAt("a", 0.01, 1),
		storeAt("b", 0.02, 1),
		storeAt("l", 0.03, 1),
	)
	ctx := mustContext(t, trip, model.SolveOverrides{})

	// f pinned first and l pinned last even though swapping would cut drive
	start := []string{"f", "a", "b", "l"}
	var stats Stats
	order, _, err := Optimize(start, 1, 1, ctx, &stats)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if order[0] != "f" {
		t.Fatalf("prefix moved: %v", order)
	}
	if order[len(order)-1] != "l" {
		t.Fatalf("suffix moved: %v", order)
	}
}

func TestOptimizeRejectsInfeasibleInput(t *testing.T) {
	day := baseDay()
	day.Window = model.Window{Start: "08:00", End: "08:05"}
	trip := testTrip(day, storeAt("far", 0.5, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})
	var stats Stats
	if _, _, err := Optimize([]string{"far"}, 0, 0, ctx, &stats); err == nil {
		t.Fatal("want error for infeasible input order")
	}
}
