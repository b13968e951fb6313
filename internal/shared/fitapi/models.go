package fitapi

import "time"

// ActivityType is the workout type enumeration used by the backend.
type ActivityType string

const (
	TypeRunning  ActivityType = "RUNNING"
	TypeWalking  ActivityType = "WALKING"
	TypeCycling  ActivityType = "CYCLING"
	TypeSwimming ActivityType = "SWIMMING"
	TypeOther    ActivityType = "OTHER"
)

// Types lists all activity types in display order, for the form select.
var Types = []ActivityType{TypeRunning, TypeWalking, TypeCycling, TypeSwimming, TypeOther}

func (t ActivityType) Known() bool {
	switch t {
	case TypeRunning, TypeWalking, TypeCycling, TypeSwimming, TypeOther:
		return true
	}
	return false
}

type (
	// Recommendation is the backend-computed analysis attached to an
	// activity. A nil *Recommendation on Activity means the analysis is
	// not yet available, which is distinct from an empty one.
	Recommendation struct {
		Text         string   `json:"recommendation"`
		Improvements []string `json:"improvements"`
		Suggestions  []string `json:"suggestions"`
		Safety       []string `json:"safety"`
	}

	// Activity is a recorded workout as returned by the activity service.
	// Activities are never mutated locally; the only update path is a
	// full reload from the backend.
	Activity struct {
		ID                string          `json:"id"`
		Type              ActivityType    `json:"type"`
		Duration          int             `json:"duration"` // minutes
		CaloriesBurned    int             `json:"caloriesBurned"`
		CreatedAt         time.Time       `json:"createdAt"`
		AdditionalMetrics map[string]any  `json:"additionalMetrics,omitempty"`
		Recommendation    *Recommendation `json:"recommendation,omitempty"`
	}

	// Draft is user-entered activity input pending validation and
	// submission. Duration and CaloriesBurned are nil until the user
	// provides them; a draft is invalid until both are set.
	Draft struct {
		Type              ActivityType
		Duration          *int
		CaloriesBurned    *int
		AdditionalMetrics map[string]any
	}

	createActivityRequest struct {
		Type              ActivityType   `json:"type"`
		Duration          int            `json:"duration"`
		CaloriesBurned    int            `json:"caloriesBurned"`
		AdditionalMetrics map[string]any `json:"additionalMetrics,omitempty"`
	}
)

// Validate checks the draft locally before any API call is made.
func (d Draft) Validate() error {
	if !d.Type.Known() {
		return &Error{Kind: KindValidation, Message: "unknown activity type"}
	}
	if d.Duration == nil || *d.Duration <= 0 {
		return &Error{Kind: KindValidation, Message: "duration must be a positive number of minutes"}
	}
	if d.CaloriesBurned == nil || *d.CaloriesBurned < 0 {
		return &Error{Kind: KindValidation, Message: "calories burned must be zero or more"}
	}
	return nil
}

func (d Draft) request() createActivityRequest {
	return createActivityRequest{
		Type:              d.Type,
		Duration:          *d.Duration,
		CaloriesBurned:    *d.CaloriesBurned,
		AdditionalMetrics: d.AdditionalMetrics,
	}
}
