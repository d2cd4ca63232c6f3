//go:build postgres_integration

package store

import (
	"os"
	"testing"

	"daynav/internal/model"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.Migrate(t.Context()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	id, err := p.CreateTrip(t.Context(), model.Trip{
		Config: model.TripConfig{MPH: 30, DefaultDwellMin: 10},
		Days: []model.DayConfig{{
			DayID:  "d1",
			Window: model.Window{Start: "08:00", End: "18:00"},
		}},
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if _, err := p.GetTrip(t.Context(), id); err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if _, _, err := p.ListTrips(t.Context(), "", 1); err != nil {
		t.Fatalf("ListTrips: %v", err)
	}
}
