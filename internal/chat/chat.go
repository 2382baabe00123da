package chat

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"` // ISO string, informational only
}

type JournalSnapshot struct {
	Type       string   `json:"type"`
	Date       string   `json:"date"`
	MoodScore  *int     `json:"mood_score,omitempty"`
	Highlights []string `json:"highlights"`
}

type GratitudeSnapshot struct {
	Reflection string  `json:"reflection"`
	Theme      *string `json:"theme,omitempty"`
}

type BadgeSummary struct {
	RecentNames []string `json:"recent_names"`
	TotalCount  int      `json:"total_count"`
}

type MilestoneSummary struct {
	DaysReached []int `json:"days_reached"`
	NextTarget  int   `json:"next_target"`
}

// UserContext aggregates everything the companion prompt needs to know about
// a user. Built fresh per chat invocation from live query results and
// discarded after the prompt string is produced.
type UserContext struct {
	Name              string              `json:"name"`
	DayInJourney      int                 `json:"day_in_journey"`
	MorningStreak     int                 `json:"morning_streak"`
	EveningStreak     int                 `json:"evening_streak"`
	GratitudeStreak   int                 `json:"gratitude_streak"`
	CombinedStreak    int                 `json:"combined_streak"`
	RelationshipStage string              `json:"relationship_stage"`
	RecentJournals    []JournalSnapshot   `json:"recent_journals"`
	GratitudeActions  []GratitudeSnapshot `json:"gratitude_actions"`
	Badges            BadgeSummary        `json:"badges"`
	Milestones        MilestoneSummary    `json:"milestones"`
	MoodTrend         string              `json:"mood_trend"` // improving, stable, declining
}

type BuildContextRequest struct {
	Messages    []ConversationMessage `json:"messages"`
	TokenBudget int                   `json:"token_budget,omitempty"`
}

type BuildContextResponse struct {
	SystemContext   string                `json:"system_context"`
	Messages        []ConversationMessage `json:"messages"`
	EstimatedTokens int                   `json:"estimated_tokens"`
}
