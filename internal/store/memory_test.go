package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"daynav/internal/model"
)

func sampleTrip(note string) model.Trip {
	return model.Trip{
		Config: model.TripConfig{MPH: 30, DefaultDwellMin: 10, RunNote: note},
		Days: []model.DayConfig{{
			DayID:  "d1",
			Start:  model.Anchor{ID: "hotel"},
			End:    model.Anchor{ID: "hotel-end"},
			Window: model.Window{Start: "08:00", End: "18:00"},
		}},
		Stores: []model.Store{{ID: "a", DayID: "d1"}},
	}
}

func TestMemoryTripRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.CreateTrip(ctx, sampleTrip("run one"))
	if err != nil || id == "" {
		t.Fatalf("create: %v", err)
	}
	got, err := m.GetTrip(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Config.RunNote != "run one" || len(got.Stores) != 1 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if _, err := m.GetTrip(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListTripsPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := m.CreateTrip(ctx, sampleTrip("")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	page1, cursor, err := m.ListTrips(ctx, "", 2)
	if err != nil || len(page1) != 2 || cursor == "" {
		t.Fatalf("page1: len=%d cursor=%q err=%v", len(page1), cursor, err)
	}
	page2, cursor, err := m.ListTrips(ctx, cursor, 2)
	if err != nil || len(page2) != 2 || cursor == "" {
		t.Fatalf("page2: len=%d cursor=%q err=%v", len(page2), cursor, err)
	}
	page3, cursor, err := m.ListTrips(ctx, cursor, 2)
	if err != nil || len(page3) != 1 || cursor != "" {
		t.Fatalf("page3: len=%d cursor=%q err=%v", len(page3), cursor, err)
	}
	if page1[0].ID == page2[0].ID {
		t.Fatalf("pages overlap")
	}
}

func TestMemoryListPlansFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.SavePlan(ctx, model.DayPlan{ID: "p1", TripID: "t1", DayID: "d1"})
	_ = m.SavePlan(ctx, model.DayPlan{ID: "p2", TripID: "t1", DayID: "d2"})
	_ = m.SavePlan(ctx, model.DayPlan{ID: "p3", TripID: "t2", DayID: "d1"})

	plans, _, err := m.ListPlans(ctx, "t1", "", "", 10)
	if err != nil || len(plans) != 2 {
		t.Fatalf("trip filter: len=%d err=%v", len(plans), err)
	}
	plans, _, err = m.ListPlans(ctx, "t1", "d2", "", 10)
	if err != nil || len(plans) != 1 || plans[0].ID != "p2" {
		t.Fatalf("day filter: %+v err=%v", plans, err)
	}

	// save with the same id replaces, does not duplicate
	_ = m.SavePlan(ctx, model.DayPlan{ID: "p1", TripID: "t1", DayID: "d1", Seed: 9})
	plans, _, _ = m.ListPlans(ctx, "", "", "", 10)
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans after resave, got %d", len(plans))
	}
	p, _ := m.GetPlan(ctx, "p1")
	if p.Seed != 9 {
		t.Fatalf("resave did not replace: %+v", p)
	}
}

func TestMemorySubscriptionEventMatching(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	solved, _ := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://a", Events: []string{"plan.solved"}})
	all, _ := m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://b", Events: []string{"*"}})
	_, _ = m.CreateSubscription(ctx, model.SubscriptionRequest{URL: "http://c", Events: []string{"plan.infeasible"}})

	subs, err := m.GetSubscriptionsForEvent(ctx, "plan.solved")
	if err != nil || len(subs) != 2 {
		t.Fatalf("expected 2 matches, got %d (%v)", len(subs), err)
	}
	ids := map[string]bool{subs[0].ID: true, subs[1].ID: true}
	if !ids[solved.ID] || !ids[all.ID] {
		t.Fatalf("wrong subscriptions matched: %v", subs)
	}

	if err := m.DeleteSubscription(ctx, solved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteSubscription(ctx, solved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestMemoryDeliveryLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.EnqueueWebhook(ctx, "sub1", "plan.solved", "http://x", "s", []byte(`{}`))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 || due[0].ID != id {
		t.Fatalf("fetch due: %+v err=%v", due, err)
	}

	// retry pushes the next attempt into the future, so it is no longer due
	next := time.Now().Add(time.Hour)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retried delivery should not be due yet: %+v", due)
	}

	past := time.Now().Add(-time.Minute)
	_ = m.MarkWebhookDelivery(ctx, id, false, &past, "boom", 500, 12)
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 || due[0].Attempts != 2 {
		t.Fatalf("expected due again with 2 attempts: %+v", due)
	}

	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8); err != nil {
		t.Fatalf("mark success: %v", err)
	}
	rows, _, err := m.ListWebhookDeliveries(ctx, "delivered", "", 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("list delivered: %v err=%v", rows, err)
	}
	if rows[0]["attempts"] != 3 {
		t.Fatalf("attempts: %v", rows[0]["attempts"])
	}

	id2, _ := m.EnqueueWebhook(ctx, "sub1", "plan.solved", "http://x", "", []byte(`{}`))
	if err := m.FailWebhookDelivery(ctx, id2, "gone", 410, 5); err != nil {
		t.Fatalf("fail: %v", err)
	}
	rows, _, _ = m.ListWebhookDeliveries(ctx, "failed", "", 10)
	if len(rows) != 1 {
		t.Fatalf("list failed: %v", rows)
	}
}
