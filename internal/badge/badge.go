package badge

import (
	"time"

	"github.com/google/uuid"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// CelebrationPriority orders client-side unlock animations. Rarer badges
// celebrate first.
func (r Rarity) CelebrationPriority() int {
	switch r {
	case RarityLegendary:
		return 100
	case RarityEpic:
		return 80
	case RarityRare:
		return 60
	case RarityUncommon:
		return 40
	default:
		return 20
	}
}

type ActivityType string

const (
	ActivityMorning   ActivityType = "morning"
	ActivityEvening   ActivityType = "evening"
	ActivityGratitude ActivityType = "gratitude"
	ActivityAll       ActivityType = "all"
	ActivityWeekly    ActivityType = "weekly"
)

type ConditionType string

const (
	ConditionStreak    ConditionType = "streak"
	ConditionFirst     ConditionType = "first"
	ConditionCombo     ConditionType = "combo"
	ConditionTime      ConditionType = "time"
	ConditionShare     ConditionType = "share"
	ConditionEncourage ConditionType = "encourage"
	ConditionMilestone ConditionType = "milestone"
	ConditionComeback  ConditionType = "comeback"
	ConditionWeekend   ConditionType = "weekend"
	ConditionMood      ConditionType = "mood"
	ConditionComplete  ConditionType = "complete"
)

// UnlockCondition is stored as JSONB on the badge row. Only the fields
// relevant to the Type tag are populated; the rest stay zero.
type UnlockCondition struct {
	Type       ConditionType  `json:"type"`
	Activity   ActivityType   `json:"activity,omitempty"`
	Activities []ActivityType `json:"activities,omitempty"`
	Count      int            `json:"count,omitempty"`
	Number     int            `json:"number,omitempty"`
	DaysAway   int            `json:"days_away,omitempty"`
	Before     string         `json:"before,omitempty"` // HH:MM
	After      string         `json:"after,omitempty"`  // HH:MM
	Subtype    string         `json:"subtype,omitempty"`
}

type Badge struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	Icon            string          `json:"icon" db:"icon"`
	Rarity          Rarity          `json:"rarity" db:"rarity"`
	Points          int             `json:"points" db:"points"`
	UnlockCondition UnlockCondition `json:"unlock_condition" db:"unlock_condition"`
	IsHidden        bool            `json:"is_hidden" db:"is_hidden"`
	SortOrder       int             `json:"sort_order" db:"sort_order"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

type UserBadge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID     uuid.UUID `json:"badge_id" db:"badge_id"`
	SessionID   uuid.UUID `json:"session_id" db:"session_id"`
	IsNew       bool      `json:"is_new" db:"is_new"`
	IsShowcased bool      `json:"is_showcased" db:"is_showcased"`
	UnlockedAt  time.Time `json:"unlocked_at" db:"unlocked_at"`
}

type BadgeWithStatus struct {
	Badge
	Unlocked    bool       `json:"unlocked"`
	IsNew       bool       `json:"is_new"`
	IsShowcased bool       `json:"is_showcased"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

type StreakSnapshot struct {
	Morning   int `json:"morning"`
	Evening   int `json:"evening"`
	Gratitude int `json:"gratitude"`
	Combined  int `json:"combined"`
	Weekly    int `json:"weekly"`
}

type LifetimeCounts struct {
	Morning        int `json:"morning"`
	Evening        int `json:"evening"`
	Gratitude      int `json:"gratitude"`
	Shares         int `json:"shares"`
	Encouragements int `json:"encouragements"`
}

type DailyCompletion struct {
	Morning   bool `json:"morning"`
	Evening   bool `json:"evening"`
	Gratitude bool `json:"gratitude"`
}

// CheckContext is the full snapshot needed to evaluate every condition kind
// in one pass. Built fresh per triggering event, never persisted.
type CheckContext struct {
	UserID           uuid.UUID
	SessionID        uuid.UUID
	Streaks          StreakSnapshot
	Totals           LifetimeCounts
	CompletedToday   DailyCompletion
	Now              time.Time
	MilestoneReached int        // day number newly reached today, 0 if none
	LastJournalDate  *time.Time // nil when the user has never journaled
	MoodHistory      []int      // oldest first
	DayInJourney     int
}

type CelebrationEvent struct {
	BadgeID  uuid.UUID `json:"badge_id"`
	Name     string    `json:"name"`
	Rarity   Rarity    `json:"rarity"`
	Points   int       `json:"points"`
	Priority int       `json:"priority"`
}

func NewCelebrationEvent(b *Badge) CelebrationEvent {
	return CelebrationEvent{
		BadgeID:  b.ID,
		Name:     b.Name,
		Rarity:   b.Rarity,
		Points:   b.Points,
		Priority: b.Rarity.CelebrationPriority(),
	}
}

type CheckResult struct {
	NewBadges         []*Badge           `json:"new_badges"`
	PointsAwarded     int                `json:"points_awarded"`
	CelebrationEvents []CelebrationEvent `json:"celebration_events"`
}
