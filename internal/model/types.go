package model

// Trip documents arrive pre-validated (unique ids, coordinates in range,
// weekday computed, open-hours schema-checked). The solver treats them as
// read-only input.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Anchor is the fixed start or end of a day. Never mutated after load.
type Anchor struct {
	ID   string  `json:"id"`
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Window is a clock interval, both bounds "HH:MM".
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HoursWindow is one open interval of a store's opening hours.
type HoursWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Store is a candidate stop. OpenHours maps a weekday label ("Mon".."Sun")
// to ordered, non-overlapping windows; a missing or empty list means closed
// that day, and a nil OpenHours means always open.
type Store struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name,omitempty"`
	Lat       float64                  `json:"lat"`
	Lon       float64                  `json:"lon"`
	DayID     string                   `json:"dayId,omitempty"`
	DwellMin  *int                     `json:"dwellMin,omitempty"`
	Score     *float64                 `json:"score,omitempty"`
	Tags      []string                 `json:"tags,omitempty"`
	OpenHours map[string][]HoursWindow `json:"openHours,omitempty"`
}

// Lock positions.
const (
	LockFirst = "first" // immediately after the start anchor
	LockLast  = "last"  // immediately before the end anchor
	LockIndex = "index" // fixed zero-based position
	LockAfter = "after" // immediately after another named store
)

// LockSpec binds one store to a position in the order.
type LockSpec struct {
	StoreID  string `json:"storeId"`
	Position string `json:"position"`
	Index    int    `json:"index,omitempty"`
	AfterID  string `json:"afterId,omitempty"`
}

// BreakSpec reserves a single break. The pause begins no earlier than Start
// and must end by End; DurationMin defaults to the window length.
type BreakSpec struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	DurationMin int    `json:"durationMin,omitempty"`
}

// DayConfig describes one day to plan. Pointer fields override the trip-level
// defaults when set.
type DayConfig struct {
	DayID           string     `json:"dayId"`
	Start           Anchor     `json:"start"`
	End             Anchor     `json:"end"`
	Window          Window     `json:"window"`
	DayOfWeek       string     `json:"dayOfWeek,omitempty"`
	MustVisitIDs    []string   `json:"mustVisitIds,omitempty"`
	Locks           []LockSpec `json:"locks,omitempty"`
	MaxDriveMin     *float64   `json:"maxDriveMin,omitempty"`
	MaxStops        *int       `json:"maxStops,omitempty"`
	Break           *BreakSpec `json:"break,omitempty"`
	MPH             *float64   `json:"mph,omitempty"`
	DefaultDwellMin *int       `json:"defaultDwellMin,omitempty"`
	Robustness      *float64   `json:"robustness,omitempty"`
}

// TripConfig carries trip-wide solver defaults.
type TripConfig struct {
	MPH             float64 `json:"mph"`
	DefaultDwellMin int     `json:"defaultDwellMin"`
	Seed            int64   `json:"seed,omitempty"`
	Lambda          float64 `json:"lambda,omitempty"`
	RunNote         string  `json:"runNote,omitempty"`
}

// Trip is the parsed trip document consumed by the solver.
type Trip struct {
	Config TripConfig  `json:"config"`
	Days   []DayConfig `json:"days"`
	Stores []Store     `json:"stores"`
}

// Day returns the day config with the given id, or nil.
func (t *Trip) Day(dayID string) *DayConfig {
	for i := range t.Days {
		if t.Days[i].DayID == dayID {
			return &t.Days[i]
		}
	}
	return nil
}

// Stop kinds in a rendered plan.
const (
	StopStart = "start"
	StopStore = "store"
	StopBreak = "break"
	StopEnd   = "end"
)

// LegPlan is the inbound travel leg of a stop.
type LegPlan struct {
	FromID     string  `json:"fromId"`
	ToID       string  `json:"toId"`
	DriveMin   float64 `json:"driveMin"`
	DistanceMi float64 `json:"distanceMi"`
}

// StopPlan is one rendered stop. Arrive/Depart are "HH:MM" rounded to the
// minute; the *Min fields carry the exact values.
type StopPlan struct {
	Kind      string   `json:"kind"`
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Arrive    string   `json:"arrive"`
	Depart    string   `json:"depart"`
	ArriveMin float64  `json:"arriveMin"`
	DepartMin float64  `json:"departMin"`
	DwellMin  float64  `json:"dwellMin,omitempty"`
	Leg       *LegPlan `json:"leg,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// PlanMetrics are the derived totals reported with a plan. Binding lists
// constraint names met exactly, Violated those exceeded.
type PlanMetrics struct {
	Stops         int      `json:"stops"`
	TotalDriveMin float64  `json:"totalDriveMin"`
	TotalDwellMin float64  `json:"totalDwellMin"`
	TotalScore    float64  `json:"totalScore"`
	ScorePerStop  float64  `json:"scorePerStop,omitempty"`
	HotelETA      string   `json:"hotelEta"`
	HotelETAMin   float64  `json:"hotelEtaMin"`
	SlackMin      float64  `json:"slackMin"`
	OnTimeRisk    float64  `json:"onTimeRisk"`
	Binding       []string `json:"binding,omitempty"`
	Violated      []string `json:"violated,omitempty"`
}

// Exclusion records a store that could not be inserted anywhere feasible.
type Exclusion struct {
	StoreID          string `json:"storeId"`
	Reason           string `json:"reason"`
	Detail           string `json:"detail,omitempty"`
	NearestVisitedID string `json:"nearestVisitedId,omitempty"`
}

// Suggestion kinds produced by the infeasibility advisor.
const (
	SuggestExtendWindow  = "extendWindow"
	SuggestDropMandatory = "dropMandatoryVisit"
	SuggestDropStop      = "dropStop"
	SuggestRelaxLock     = "relaxLock"
)

// Suggestion is one ranked relaxation of an infeasible day.
type Suggestion struct {
	Kind         string  `json:"kind"`
	StoreID      string  `json:"storeId,omitempty"`
	MinutesSaved float64 `json:"minutesSaved"`
	Detail       string  `json:"detail,omitempty"`
}

// DayPlan is the externally visible solve result.
type DayPlan struct {
	ID         string      `json:"id,omitempty"`
	TripID     string      `json:"tripId,omitempty"`
	DayID      string      `json:"dayId"`
	Seed       int64       `json:"seed"`
	Order      []string    `json:"order"`
	Stops      []StopPlan  `json:"stops"`
	Metrics    PlanMetrics `json:"metrics"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
	CreatedAt  string      `json:"createdAt,omitempty"`
}

// Checkpoint is a mid-day state used to re-plan the remainder of a day.
type Checkpoint struct {
	At           string   `json:"at"` // "HH:MM"
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	CompletedIDs []string `json:"completedIds,omitempty"`
}

// SolveOverrides are optional per-request parameter overrides; nil fields
// keep the trip/day values.
type SolveOverrides struct {
	MPH              *float64 `json:"mph,omitempty"`
	DefaultDwellMin  *int     `json:"defaultDwellMin,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	Lambda           *float64 `json:"lambda,omitempty"`
	Robustness       *float64 `json:"robustness,omitempty"`
	RiskThresholdMin *float64 `json:"riskThresholdMin,omitempty"`
}

// TripSummary is the list-view projection of a stored trip.
type TripSummary struct {
	ID        string `json:"id"`
	RunNote   string `json:"runNote,omitempty"`
	Days      int    `json:"days"`
	Stores    int    `json:"stores"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// SubscriptionRequest registers a webhook endpoint for plan events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

// Subscription is a stored webhook subscription. Secret never leaves the
// store in list responses.
type Subscription struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
	Secret    string   `json:"-"`
	CreatedAt string   `json:"createdAt,omitempty"`
}
