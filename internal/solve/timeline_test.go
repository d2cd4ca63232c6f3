package solve

import (
	"errors"
	"math"
	"testing"

	"daynav/internal/model"
)

const tolMin = 1e-6

func TestComputeTimelineChaining(t *testing.T) {
	trip := testTrip(baseDay(), storeAt("a", 0.05, 1), storeAt("b", 0.10, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})

	tl, err := ComputeTimeline([]string{"a", "b"}, ctx)
	if err != nil {
		t.Fatalf("ComputeTimeline: %v", err)
	}
	if len(tl.Stops) != 4 {
		t.Fatalf("stops = %d, want 4", len(tl.Stops))
	}
	kinds := []string{model.StopStart, model.StopStore, model.StopStore, model.StopEnd}
	for i, k := range kinds {
		if tl.Stops[i].Kind != k {
			t.Fatalf("stop %d kind = %s, want %s", i, tl.Stops[i].Kind, k)
		}
	}
	if tl.Stops[0].ArriveMin != 480 || tl.Stops[0].DepartMin != 480 {
		t.Fatalf("start stop at %.1f-%.1f, want 480-480", tl.Stops[0].ArriveMin, tl.Stops[0].DepartMin)
	}

	var drive, dwell float64
	for i := 1; i < len(tl.Stops); i++ {
		s := tl.Stops[i]
		if s.Leg == nil {
			t.Fatalf("stop %d missing leg", i)
		}
		wantArrive := tl.Stops[i-1].DepartMin + s.Leg.DriveMin
		if math.Abs(s.ArriveMin-wantArrive) > tolMin {
			t.Errorf("stop %d arrive = %.4f, want %.4f", i, s.ArriveMin, wantArrive)
		}
		if math.Abs(s.DepartMin-(s.ArriveMin+s.DwellMin)) > tolMin {
			t.Errorf("stop %d depart = %.4f, want arrive+dwell", i, s.DepartMin)
		}
		drive += s.Leg.DriveMin
		dwell += s.DwellMin
	}
	if math.Abs(tl.TotalDriveMin-drive) > tolMin {
		t.Errorf("total drive = %.4f, want %.4f", tl.TotalDriveMin, drive)
	}
	if math.Abs(tl.TotalDwellMin-20) > tolMin {
		t.Errorf("total dwell = %.4f, want 20", tl.TotalDwellMin)
	}
	if math.Abs(tl.HotelETAMin-tl.Stops[3].ArriveMin) > tolMin {
		t.Errorf("hotel ETA %.4f != end arrival %.4f", tl.HotelETAMin, tl.Stops[3].ArriveMin)
	}
}

func TestComputeTimelineBreakClampsToWindowStart(t *testing.T) {
	day := baseDay()
	day.Break = &model.BreakSpec{Start: "12:00", End: "13:00", DurationMin: 30}
	trip := testTrip(day, storeAt("a", 0.01, 1), storeAt("b", 0.02, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})

	tl, err := ComputeTimeline([]string{"a", BreakID, "b"}, ctx)
	if err != nil {
		t.Fatalf("ComputeTimeline: %v", err)
	}
	if !tl.HasBreak {
		t.Fatal("timeline missing break")
	}
	// reached the break slot well before noon, so the pause clamps forward
	if tl.BreakArrive != 720 || tl.BreakDepart != 750 {
		t.Fatalf("break %.1f-%.1f, want 720-750", tl.BreakArrive, tl.BreakDepart)
	}
	br := tl.Stops[2]
	if br.Kind != model.StopBreak {
		t.Fatalf("stop 2 kind = %s, want break", br.Kind)
	}
	// the break happens in place at the previous store
	if br.Lat != 0.01 || br.Lon != 0 {
		t.Errorf("break at (%.3f,%.3f), want store a's position", br.Lat, br.Lon)
	}
	if tl.Stops[3].Leg.FromID != "a" {
		t.Errorf("leg after break from %s, want a", tl.Stops[3].Leg.FromID)
	}
	if math.Abs(tl.TotalDwellMin-50) > tolMin {
		t.Errorf("total dwell = %.4f, want 50 (two visits plus break)", tl.TotalDwellMin)
	}
}

func TestComputeTimelineBreakTakenWhenAlreadyInside(t *testing.T) {
	day := baseDay()
	day.Break = &model.BreakSpec{Start: "08:00", End: "18:00", DurationMin: 30}
	trip := testTrip(day, storeAt("a", 0.01, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})

	tl, err := ComputeTimeline([]string{"a", BreakID}, ctx)
	if err != nil {
		t.Fatalf("ComputeTimeline: %v", err)
	}
	departA := tl.Stops[1].DepartMin
	if math.Abs(tl.BreakArrive-departA) > tolMin {
		t.Fatalf("break arrive = %.4f, want %.4f (no wait inside window)", tl.BreakArrive, departA)
	}
	if math.Abs(tl.BreakDepart-(departA+30)) > tolMin {
		t.Fatalf("break depart = %.4f, want arrive+30", tl.BreakDepart)
	}
}

func TestComputeTimelineUnknownStore(t *testing.T) {
	trip := testTrip(baseDay(), storeAt("a", 0.01, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})
	if _, err := ComputeTimeline([]string{"ghost"}, ctx); !errors.Is(err, ErrUnknownStoreID) {
		t.Fatalf("err = %v, want ErrUnknownStoreID", err)
	}
}

func TestComputeTimelineBreakWithoutWindow(t *testing.T) {
	trip := testTrip(baseDay(), storeAt("a", 0.01, 1))
	ctx := mustContext(t, trip, model.SolveOverrides{})
	if _, err := ComputeTimeline([]string{BreakID}, ctx); !errors.Is(err, ErrBreakWithoutWindow) {
		t.Fatalf("err = %v, want ErrBreakWithoutWindow", err)
	}
}
