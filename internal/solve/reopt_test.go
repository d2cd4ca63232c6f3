package solve

import (
	"testing"

	"daynav/internal/model"
)

func TestReoptimizeSkipsCompletedStores(t *testing.T) {
	trip := testTrip(baseDay(),
		storeAt("a", 0.01, 1),
		storeAt("b", 0.02, 1),
		storeAt("c", 0.03, 1),
		storeAt("d", 0.04, 1),
	)
	cp := model.Checkpoint{At: "12:00", Lat: 0.02, Lon: 0, CompletedIDs: []string{"a", "b"}}
	plan, _, err := ReoptimizeDay(trip, "d1", cp, model.SolveOverrides{})
	if err != nil {
		t.Fatalf("ReoptimizeDay: %v", err)
	}
	for _, id := range plan.Order {
		if id == "a" || id == "b" {
			t.Fatalf("completed store %s re-planned: %v", id, plan.Order)
		}
	}
	if plan.Metrics.Stops != 2 {
		t.Fatalf("stops = %d, want the 2 remaining", plan.Metrics.Stops)
	}
	if plan.Stops[0].ID != CheckpointID {
		t.Fatalf("start = %s, want checkpoint anchor", plan.Stops[0].ID)
	}
	if plan.Stops[0].ArriveMin != 720 {
		t.Fatalf("start at %.1f, want 720 (checkpoint time)", plan.Stops[0].ArriveMin)
	}
	for _, s := range plan.Stops {
		if s.Kind == model.StopStore && s.ArriveMin < 720 {
			t.Fatalf("store %s arrives %.1f before checkpoint time", s.ID, s.ArriveMin)
		}
	}
}

func TestReoptimizeFiltersCompletedMandatoryAndLocks(t *testing.T) {
	day := baseDay()
	day.MustVisitIDs = []string{"a"}
	day.Locks = []model.LockSpec{
		{StoreID: "a", Position: model.LockFirst},
		{StoreID: "b", Position: model.LockAfter, AfterID: "a"},
	}
	trip := testTrip(day, storeAt("a", 0.01, 1), storeAt("b", 0.02, 1), storeAt("c", 0.03, 1))

	cp := model.Checkpoint{At: "10:00", Lat: 0.01, Lon: 0, CompletedIDs: []string{"a"}}
	plan, _, err := ReoptimizeDay(trip, "d1", cp, model.SolveOverrides{})
	if err != nil {
		t.Fatalf("ReoptimizeDay: %v", err)
	}
	// the after-lock lost its reference with a, so b is planned freely
	if !containsID(plan.Order, "b") || !containsID(plan.Order, "c") {
		t.Fatalf("order = %v, want b and c", plan.Order)
	}
}

func TestReoptimizeBreakHandling(t *testing.T) {
	day := baseDay()
	day.Break = &model.BreakSpec{Start: "12:00", End: "12:30", DurationMin: 30}
	trip := testTrip(day, storeAt("a", 0.01, 1))

	// before the break window: break must still be scheduled
	early := model.Checkpoint{At: "11:00", Lat: 0, Lon: 0}
	plan, _, err := ReoptimizeDay(trip, "d1", early, model.SolveOverrides{})
	if err != nil {
		t.Fatalf("ReoptimizeDay early: %v", err)
	}
	if !containsID(plan.Order, BreakID) {
		t.Fatalf("order = %v, want break retained", plan.Order)
	}

	// past the point where the break could still be taken in full
	late := model.Checkpoint{At: "12:10", Lat: 0, Lon: 0}
	plan, _, err = ReoptimizeDay(trip, "d1", late, model.SolveOverrides{})
	if err != nil {
		t.Fatalf("ReoptimizeDay late: %v", err)
	}
	if containsID(plan.Order, BreakID) {
		t.Fatalf("order = %v, want break dropped", plan.Order)
	}
}

func TestReoptimizeUnknownDay(t *testing.T) {
	trip := testTrip(baseDay())
	cp := model.Checkpoint{At: "12:00"}
	if _, _, err := ReoptimizeDay(trip, "nope", cp, model.SolveOverrides{}); err == nil {
		t.Fatal("want error for unknown day")
	}
}

func TestReoptimizeBadCheckpointTime(t *testing.T) {
	trip := testTrip(baseDay(), storeAt("a", 0.01, 1))
	cp := model.Checkpoint{At: "25:99"}
	if _, _, err := ReoptimizeDay(trip, "d1", cp, model.SolveOverrides{}); err == nil {
		t.Fatal("want error for invalid checkpoint time")
	}
}
