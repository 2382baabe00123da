package services

import (
	"fmt"
	"strings"

	"gynergyAPI/internal/chat"
)

const (
	// JourneyLengthDays is the length of the guided program.
	JourneyLengthDays = 45

	maxRecentJournals    = 5
	maxJournalHighlights = 5
)

// EstimateTokens approximates the token cost of a string at 4 characters per
// token. This is a heuristic, not a real tokenizer; keep all callers going
// through here so it can be swapped for an exact one later.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// TrimConversationHistory keeps the newest messages that fit within
// tokenBudget and returns them in their original chronological order. Only a
// contiguous prefix of oldest messages is ever dropped: the walk runs newest
// to oldest and stops at the first message that would exceed the budget. A
// single message costing more than the whole budget is dropped, never
// truncated.
func TrimConversationHistory(messages []chat.ConversationMessage, tokenBudget int) []chat.ConversationMessage {
	if len(messages) == 0 || tokenBudget <= 0 {
		return []chat.ConversationMessage{}
	}

	used := 0
	kept := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := EstimateTokens(messages[i].Content)
		if used+cost > tokenBudget {
			break
		}
		used += cost
		kept++
	}

	out := make([]chat.ConversationMessage, kept)
	copy(out, messages[len(messages)-kept:])
	return out
}

// BuildUserContextString renders a fixed-section plain-text summary of the
// user's state for the companion system prompt. Total function: absent
// optional data degrades to placeholder text, never an error.
func BuildUserContextString(uc *chat.UserContext) string {
	var b strings.Builder

	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "Name: %s\n", uc.Name)
	fmt.Fprintf(&b, "Day in Journey: %d of %d\n", uc.DayInJourney, JourneyLengthDays)
	fmt.Fprintf(&b, "Morning Streak: %d days\n", uc.MorningStreak)
	fmt.Fprintf(&b, "Evening Streak: %d days\n", uc.EveningStreak)
	fmt.Fprintf(&b, "Gratitude Streak: %d days\n", uc.GratitudeStreak)
	fmt.Fprintf(&b, "Combined Streak: %d days\n", uc.CombinedStreak)
	fmt.Fprintf(&b, "Relationship Stage: %s\n", uc.RelationshipStage)

	b.WriteString("\nRECENT JOURNALS:\n")
	if len(uc.RecentJournals) == 0 {
		b.WriteString("No recent journal entries\n")
	} else {
		entries := uc.RecentJournals
		if len(entries) > maxRecentJournals {
			entries = entries[:maxRecentJournals]
		}
		for _, entry := range entries {
			fmt.Fprintf(&b, "[%s - %s]\n", strings.ToUpper(entry.Type), entry.Date)
			if entry.MoodScore != nil {
				fmt.Fprintf(&b, "Mood: %d/10\n", *entry.MoodScore)
			}
			if len(entry.Highlights) > 0 {
				highlights := entry.Highlights
				if len(highlights) > maxJournalHighlights {
					highlights = highlights[:maxJournalHighlights]
				}
				b.WriteString("Highlights:\n")
				for _, h := range highlights {
					fmt.Fprintf(&b, "- %s\n", h)
				}
			}
		}
	}

	b.WriteString("\nDAILY GRATITUDE ACTIONS:\n")
	if len(uc.GratitudeActions) == 0 {
		b.WriteString("No recent Daily Gratitude Actions\n")
	} else {
		for _, dga := range uc.GratitudeActions {
			if dga.Theme != nil {
				fmt.Fprintf(&b, "Theme: %s\n", *dga.Theme)
			}
			fmt.Fprintf(&b, "%s\n", dga.Reflection)
		}
	}

	b.WriteString("\nBADGES & MILESTONES:\n")
	fmt.Fprintf(&b, "Total Badges Earned: %d\n", uc.Badges.TotalCount)
	if len(uc.Badges.RecentNames) == 0 {
		b.WriteString("Recent Badges: None yet\n")
	} else {
		fmt.Fprintf(&b, "Recent Badges: %s\n", strings.Join(uc.Badges.RecentNames, ", "))
	}
	if len(uc.Milestones.DaysReached) > 0 {
		days := make([]string, len(uc.Milestones.DaysReached))
		for i, d := range uc.Milestones.DaysReached {
			days[i] = fmt.Sprintf("Day %d", d)
		}
		fmt.Fprintf(&b, "Reached: %s\n", strings.Join(days, ", "))
	}
	fmt.Fprintf(&b, "Next milestone: Day %d\n", uc.Milestones.NextTarget)

	b.WriteString("\nMOOD INSIGHTS:\n")
	switch uc.MoodTrend {
	case "improving":
		b.WriteString("Mood is trending upward - this is a positive sign.\n")
	case "declining":
		b.WriteString("Mood is trending downward - they may need extra support.\n")
	default:
		// stable and anything unexpected read as the neutral phrase
		b.WriteString("Mood has been consistent and stable.\n")
	}

	return b.String()
}
