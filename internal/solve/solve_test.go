package solve

import (
	"errors"
	"reflect"
	"testing"

	"daynav/internal/model"
)

// Test geometry: stores sit on the zero meridian, so one degree of latitude
// is about 69.1 miles, or 138.2 drive minutes at 30 mph.

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func i64ptr(v int64) *int64   { return &v }

func baseDay() model.DayConfig {
	return model.DayConfig{
		DayID:  "d1",
		Start:  model.Anchor{ID: "hotel", Name: "Hotel", Lat: 0, Lon: 0},
		End:    model.Anchor{ID: "hotel-end", Name: "Hotel", Lat: 0, Lon: 0},
		Window: model.Window{Start: "08:00", End: "18:00"},
	}
}

func storeAt(id string, lat float64, score float64) model.Store {
	return model.Store{ID: id, Name: id, Lat: lat, Lon: 0, DayID: "d1", Score: fptr(score)}
}

func testTrip(day model.DayConfig, stores ...model.Store) *model.Trip {
	return &model.Trip{
		Config: model.TripConfig{MPH: 30, DefaultDwellMin: 10, Seed: 42, Lambda: 0.5},
		Days:   []model.DayConfig{day},
		Stores: stores,
	}
}

func mustContext(t *testing.T, trip *model.Trip, ov model.SolveOverrides) *Context {
	t.Helper()
	ctx, err := NewContext(trip, "d1", ov)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

func TestSolveDayVisitsEverythingWhenLoose(t *testing.T) {
	trip := testTrip(baseDay(),
		storeAt("a", 0.01, 1),
		storeAt("b", 0.02, 1),
		storeAt("c", 0.03, 1),
		storeAt("d", 0.04, 1),
		storeAt("e", 0.05, 1),
	)
	plan, stats, err := SolveDay(trip, "d1", model.SolveOverrides{})
	if err != nil {
		t.Fatalf("SolveDay: %v", err)
	}
	if plan.Metrics.Stops != 5 {
		t.Fatalf("stops = %d, want 5", plan.Metrics.Stops)
	}
	if len(plan.Exclusions) != 0 {
		t.Fatalf("exclusions = %+v, want none", plan.Exclusions)
	}
	if stats.Insertions != 5 {
		t.Errorf("insertions = %d, want 5", stats.Insertions)
	}
	if plan.Metrics.HotelETAMin > 1080 {
		t.Errorf("hotel ETA %.1f past window end", plan.Metrics.HotelETAMin)
	}
	if plan.Metrics.SlackMin <= 0 {
		t.Errorf("slack = %.1f, want positive", plan.Metrics.SlackMin)
	}
}

func TestSolveDayDeterministicForSeed(t *testing.T) {
	// a symmetric grid of equal-score stores forces tie draws
	day := baseDay()
	stores := []model.Store{
		{ID: "g1", Lat: 0.01, Lon: 0.01, DayID: "d1", Score: fptr(1)},
		{ID: "g2", Lat: 0.01, Lon: -0.01, DayID: "d1", Score: fptr(1)},
		{ID: "g3", Lat: -0.01, Lon: 0.01, DayID: "d1", Score: fptr(1)},
		{ID: "g4", Lat: -0.01, Lon: -0.01, DayID: "d1", Score: fptr(1)},
	}
	trip := testTrip(day, stores...)
	first, _, err := SolveDay(trip, "d1", model.SolveOverrides{})
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	second, _, err := SolveDay(trip, "d1", model.SolveOverrides{})
	if err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if !reflect.DeepEqual(first.Order, second.Order) {
		t.Fatalf("orders differ for equal seeds: %v vs %v", first.Order, second.Order)
	}
	if !reflect.DeepEqual(first.Metrics, second.Metrics) {
		t.Fatalf("metrics differ for equal seeds")
	}
}

func TestSolveDaySeedOverride(t *testing.T) {
	trip := testTrip(baseDay(), storeAt("a", 0.01, 1))
	plan, _, err := SolveDay(trip, "d1", model.SolveOverrides{Seed: i64ptr(7)})
	if err != nil {
		t.Fatalf("SolveDay: %v", err)
	}
	if plan.Seed != 7 {
		t.Fatalf("seed = %d, want 7", plan.Seed)
	}
}

func TestSolveDayInfeasibleMandatory(t *testing.T) {
	day := baseDay()
	day.Window = model.Window{Start: "08:00", End: "08:30"}
	day.MustVisitIDs = []string{"far"}
	trip := testTrip(day, storeAt("far", 1.0, 5))

	_, _, err := SolveDay(trip, "d1", model.SolveOverrides{})
	var infErr *InfeasibleError
	if !errors.As(err, &infErr) {
		t.Fatalf("err = %v, want *InfeasibleError", err)
	}
	if infErr.Reason == nil || infErr.Reason.Code != ReasonWindowOverrun {
		t.Fatalf("reason = %v, want %s", infErr.Reason, ReasonWindowOverrun)
	}
	if len(infErr.Suggestions) == 0 {
		t.Fatalf("want suggestions alongside infeasibility")
	}
}

func TestSolveDayUnknownDay(t *testing.T) {
	trip := testTrip(baseDay())
	if _, _, err := SolveDay(trip, "nope", model.SolveOverrides{}); err == nil {
		t.Fatal("want error for unknown day")
	}
}
