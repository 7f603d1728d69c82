package domain

import "time"

// Category classifies a warning label.
type Category int

const (
	CategoryLookingForward Category = iota
	CategoryTransient
	CategorySustained
)

func (c Category) String() string {
	switch c {
	case CategoryLookingForward:
		return "looking_forward"
	case CategoryTransient:
		return "transient"
	case CategorySustained:
		return "sustained"
	default:
		return "unknown"
	}
}

// WarningSample is one observation of the remote warning feed.
type WarningSample struct {
	Category   Category
	Label      string
	ObservedAt time.Time
}

// Labels maps raw warning labels to categories.
// An empty label is always neutral.
type Labels struct {
	Neutral   string
	Sustained string
}

// Classify returns the category of a raw label.
func (l Labels) Classify(label string) Category {
	switch label {
	case "", l.Neutral:
		return CategoryLookingForward
	case l.Sustained:
		return CategorySustained
	default:
		return CategoryTransient
	}
}

// BehaviorLogEntry is one classified behavior record kept by the backend.
type BehaviorLogEntry struct {
	ImagePath      string
	WarningType    string
	Classification *string
	Timestamp      string
	ExamID         int64
}
