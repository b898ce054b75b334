package domain

// EventType labels the behavioral factor an event came from.
type EventType string

const (
	EventMeal         EventType = "meal"
	EventTraining     EventType = "training"
	EventHousehold    EventType = "household"
	EventSleep        EventType = "sleep"
	EventSteps        EventType = "steps"
	EventCheckin      EventType = "checkin"
	EventMeasurements EventType = "measurements"
	EventSupplements  EventType = "supplements"
	EventSpacing      EventType = "spacing"
)

// Event is one scored behavioral signal for the day. Rebuilt on every
// computation, never persisted.
type Event struct {
	Type        EventType `json:"type"`
	Time        string    `json:"time,omitempty"`
	Positive    bool      `json:"positive"`
	Weight      float64   `json:"weight"`
	Label       string    `json:"label"`
	SortKey     int       `json:"sort_key"`
	BreakReason string    `json:"break_reason,omitempty"`
}

// Break records a chain erosion caused by a negative event.
type Break struct {
	Time        string `json:"time,omitempty"`
	Reason      string `json:"reason"`
	Label       string `json:"label"`
	ChainBefore int    `json:"chain_before"`
}

// State is the discrete momentum label shown to the user.
type State string

const (
	StateEmpty    State = "EMPTY"
	StateBuilding State = "BUILDING"
	StateGrowing  State = "GROWING"
	StateStrong   State = "STRONG"
	StateBroken   State = "BROKEN"
	StateRecovery State = "RECOVERY"
)

// Trend is the short-window direction of daily contributions.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Result is the engine's full output for one computation.
type Result struct {
	Date               string             `json:"date"`
	Events             []Event            `json:"events"`
	ChainLength        int                `json:"chain_length"`
	MaxChainToday      int                `json:"max_chain_today"`
	Score              float64            `json:"score"`
	Breaks             []Break            `json:"breaks,omitempty"`
	Recovering         bool               `json:"recovering"`
	State              State              `json:"state"`
	CRS                float64            `json:"crs"`
	CRSBase            float64            `json:"crs_base"`
	TodayBoost         float64            `json:"today_boost"`
	Ceiling            float64            `json:"ceiling"`
	DailyContribution  float64            `json:"daily_contribution"`
	CRSTrend           Trend              `json:"crs_trend"`
	DaysAtPeak         int                `json:"days_at_peak"`
	DCSHistory         map[string]float64 `json:"dcs_history"`
	PostTrainingWindow bool               `json:"post_training_window"`
	NextStepHint       string             `json:"next_step_hint,omitempty"`
	Warnings           []string           `json:"warnings,omitempty"`
}
