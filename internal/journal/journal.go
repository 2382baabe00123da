package journal

import (
	"time"

	"github.com/google/uuid"
)

type EntryType string

const (
	EntryMorning EntryType = "morning"
	EntryEvening EntryType = "evening"
)

type MoodTrend string

const (
	TrendImproving MoodTrend = "improving"
	TrendStable    MoodTrend = "stable"
	TrendDeclining MoodTrend = "declining"
)

type Entry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Type       EntryType `json:"type" db:"entry_type"`
	EntryDate  time.Time `json:"entry_date" db:"entry_date"`
	Content    string    `json:"content" db:"content"`
	MoodScore  *int      `json:"mood_score,omitempty" db:"mood_score"` // 1-10
	Highlights []string  `json:"highlights" db:"highlights"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// GratitudeAction is a daily gratitude prompt the user completed, with their
// written reflection and the optional prompt theme.
type GratitudeAction struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Reflection string    `json:"reflection" db:"reflection"`
	Theme      *string   `json:"theme,omitempty" db:"theme"`
	ActionDate time.Time `json:"action_date" db:"action_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type SubmitEntryRequest struct {
	Type       EntryType `json:"type"`
	Content    string    `json:"content"`
	MoodScore  *int      `json:"mood_score,omitempty"`
	Highlights []string  `json:"highlights,omitempty"`
}

type SubmitGratitudeRequest struct {
	Reflection string  `json:"reflection"`
	Theme      *string `json:"theme,omitempty"`
}

type Streak struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	Activity      string     `json:"activity" db:"activity"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	LongestStreak int        `json:"longest_streak" db:"longest_streak"`
	LastEntryDate *time.Time `json:"last_entry_date" db:"last_entry_date"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
