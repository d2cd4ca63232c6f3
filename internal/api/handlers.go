package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"daynav/internal/buildinfo"
	"daynav/internal/metrics"
	"daynav/internal/model"
	"daynav/internal/solve"
	"daynav/internal/store"
)

type solveRequest struct {
	DayID      string                `json:"dayId"`
	Overrides  *model.SolveOverrides `json:"overrides,omitempty"`
	Checkpoint *model.Checkpoint     `json:"checkpoint,omitempty"`
}

func (s *Server) TripsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		pr := s.getPrincipal(r)
		if !pr.CanPlan() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "planner or admin required", r.URL.Path)
			return
		}
		var trip model.Trip
		if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		s.applySolverDefaults(&trip)
		if err := validateTrip(&trip); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid trip", err.Error(), r.URL.Path)
			return
		}
		id, err := s.Store.CreateTrip(r.Context(), trip)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create trip failed", err.Error(), r.URL.Path)
			return
		}
		s.Pub.Emit(r.Context(), "trip.created", map[string]any{
			"tripId": id, "days": len(trip.Days), "stores": len(trip.Stores),
		})
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := queryInt(r, "limit", 100)
		trips, next, err := s.Store.ListTrips(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List trips failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trips": trips, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) TripByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	// Expected: /v1/trips/{id}, /v1/trips/{id}/solve, /v1/trips/{id}/reoptimize,
	// /v1/trips/{id}/events/stream
	rest := strings.TrimPrefix(path, "/v1/trips/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.streamTripEvents(w, r, id)
		return
	}
	if len(parts) > 1 && (parts[1] == "solve" || parts[1] == "reoptimize") {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.solveTrip(w, r, id, parts[1])
		return
	}

	switch r.Method {
	case http.MethodGet:
		trip, err := s.Store.GetTrip(r.Context(), id)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Trip not found", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, trip)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) solveTrip(w http.ResponseWriter, r *http.Request, tripID, kind string) {
	pr := s.getPrincipal(r)
	if !pr.CanPlan() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "planner or admin required", r.URL.Path)
		return
	}
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}
	if kind == "reoptimize" && req.Checkpoint == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", "checkpoint is required", r.URL.Path)
		return
	}
	trip, err := s.Store.GetTrip(r.Context(), tripID)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Trip not found", err.Error(), r.URL.Path)
		return
	}

	ov := model.SolveOverrides{}
	if req.Overrides != nil {
		ov = *req.Overrides
	}
	start := time.Now()
	var plan *model.DayPlan
	var stats solve.Stats
	if kind == "reoptimize" {
		plan, stats, err = solve.ReoptimizeDay(&trip, req.DayID, *req.Checkpoint, ov)
	} else {
		plan, stats, err = solve.SolveDay(&trip, req.DayID, ov)
	}
	metrics.SolveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var inf *solve.InfeasibleError
		if errors.As(err, &inf) {
			metrics.Solves.WithLabelValues(kind, "infeasible").Inc()
			s.Log.Info().Str("tripId", tripID).Str("dayId", req.DayID).
				Str("reason", inf.Reason.String()).Msg("day infeasible")
			evt := SSEEvent{Type: "plan.infeasible", Data: map[string]any{
				"tripId": tripID, "dayId": req.DayID,
				"reason":      string(inf.Reason.Code),
				"suggestions": inf.Suggestions,
			}}
			s.Broker.Publish(tripID, evt)
			s.Pub.Emit(r.Context(), "plan.infeasible", evt.Data)
			writeJSON(w, http.StatusUnprocessableEntity, Problem{
				Type:        "about:blank",
				Title:       "Day infeasible",
				Status:      http.StatusUnprocessableEntity,
				Detail:      inf.Reason.String(),
				Instance:    r.URL.Path,
				Suggestions: inf.Suggestions,
			})
			return
		}
		metrics.Solves.WithLabelValues(kind, "error").Inc()
		writeProblem(w, http.StatusBadRequest, "Solve failed", err.Error(), r.URL.Path)
		return
	}

	plan.ID = uuid.New().String()
	plan.TripID = tripID
	if err := s.Store.SavePlan(r.Context(), *plan); err != nil {
		metrics.Solves.WithLabelValues(kind, "error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
		return
	}

	metrics.Solves.WithLabelValues(kind, "ok").Inc()
	metrics.OptimizerMoves.WithLabelValues("two_opt").Add(float64(stats.TwoOptMoves))
	metrics.OptimizerMoves.WithLabelValues("relocate").Add(float64(stats.RelocateMoves))
	metrics.ExcludedStores.Add(float64(len(plan.Exclusions)))
	s.Log.Info().Str("tripId", tripID).Str("dayId", req.DayID).
		Str("planId", plan.ID).Int64("seed", plan.Seed).
		Int("stops", len(plan.Order)).Int("excluded", len(plan.Exclusions)).
		Int("evaluations", stats.Evaluations).
		Int("twoOptMoves", stats.TwoOptMoves).Int("relocateMoves", stats.RelocateMoves).
		Msg(kind)

	evt := SSEEvent{Type: "plan.solved", Data: map[string]any{
		"tripId": tripID, "dayId": req.DayID, "planId": plan.ID,
		"stops":      len(plan.Order),
		"totalScore": plan.Metrics.TotalScore,
		"hotelEta":   plan.Metrics.HotelETA,
	}}
	s.Broker.Publish(tripID, evt)
	s.Pub.Emit(r.Context(), "plan.solved", evt.Data)
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) streamTripEvents(w http.ResponseWriter, r *http.Request, tripID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.Store.GetTrip(r.Context(), tripID); err != nil {
		writeProblem(w, http.StatusNotFound, "Trip not found", err.Error(), r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(tripID)
	defer s.Broker.Unsubscribe(tripID, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"tripId\":%q,\"ts\":%q}\n\n", tripID, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/plans" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tripID := r.URL.Query().Get("tripId")
	dayID := r.URL.Query().Get("dayId")
	cursor := r.URL.Query().Get("cursor")
	limit := queryInt(r, "limit", 100)
	plans, next, err := s.Store.ListPlans(r.Context(), tripID, dayID, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans, "nextCursor": next})
}

func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	plan, err := s.Store.GetPlan(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSubscription(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := queryInt(r, "limit", 100)
		subs, next, err := s.Store.ListSubscriptions(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}

// applySolverDefaults fills trip-level solver parameters left at zero with
// the server's configured defaults.
func (s *Server) applySolverDefaults(trip *model.Trip) {
	if trip.Config.MPH == 0 {
		trip.Config.MPH = s.Cfg.Solver.MPH
	}
	if trip.Config.DefaultDwellMin == 0 {
		trip.Config.DefaultDwellMin = s.Cfg.Solver.DefaultDwellMin
	}
	if trip.Config.Lambda == 0 {
		trip.Config.Lambda = s.Cfg.Solver.Lambda
	}
	if trip.Config.Seed == 0 {
		trip.Config.Seed = s.Cfg.Solver.Seed
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
