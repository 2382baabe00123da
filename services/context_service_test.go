package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gynergyAPI/internal/chat"
)

func msg(role chat.Role, content string) chat.ConversationMessage {
	return chat.ConversationMessage{Role: role, Content: content}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestTrimConversationHistory_Empty(t *testing.T) {
	out := TrimConversationHistory(nil, 100)
	require.NotNil(t, out)
	assert.Empty(t, out)

	out = TrimConversationHistory([]chat.ConversationMessage{msg(chat.RoleUser, "hi")}, 0)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTrimConversationHistory_AllFit(t *testing.T) {
	messages := []chat.ConversationMessage{
		msg(chat.RoleUser, "hello there"),
		msg(chat.RoleAssistant, "hi, how are you feeling today?"),
		msg(chat.RoleUser, "pretty good"),
	}

	out := TrimConversationHistory(messages, 1000)
	assert.Equal(t, messages, out)
}

func TestTrimConversationHistory_DropsOldest(t *testing.T) {
	// 40 chars each = 10 tokens each. Budget 25 keeps the newest two.
	a := msg(chat.RoleUser, strings.Repeat("a", 40))
	b := msg(chat.RoleAssistant, strings.Repeat("b", 40))
	c := msg(chat.RoleUser, strings.Repeat("c", 40))

	out := TrimConversationHistory([]chat.ConversationMessage{a, b, c}, 25)
	require.Len(t, out, 2)
	assert.Equal(t, b, out[0])
	assert.Equal(t, c, out[1])
}

func TestTrimConversationHistory_StopsAtFirstOverflow(t *testing.T) {
	// The walk stops permanently at the first message that does not fit,
	// even if an older, smaller one would have.
	small := msg(chat.RoleUser, strings.Repeat("s", 4))  // 1 token
	big := msg(chat.RoleAssistant, strings.Repeat("b", 400)) // 100 tokens
	newest := msg(chat.RoleUser, strings.Repeat("n", 40)) // 10 tokens

	out := TrimConversationHistory([]chat.ConversationMessage{small, big, newest}, 20)
	require.Len(t, out, 1)
	assert.Equal(t, newest, out[0])
}

func TestTrimConversationHistory_OversizedSingleMessage(t *testing.T) {
	big := msg(chat.RoleUser, strings.Repeat("x", 500))
	out := TrimConversationHistory([]chat.ConversationMessage{big}, 100)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTrimConversationHistory_BudgetInvariant(t *testing.T) {
	messages := []chat.ConversationMessage{
		msg(chat.RoleUser, strings.Repeat("a", 37)),
		msg(chat.RoleAssistant, strings.Repeat("b", 81)),
		msg(chat.RoleUser, strings.Repeat("c", 12)),
		msg(chat.RoleAssistant, strings.Repeat("d", 55)),
		msg(chat.RoleUser, strings.Repeat("e", 9)),
	}

	for budget := 0; budget <= 60; budget++ {
		out := TrimConversationHistory(messages, budget)

		total := 0
		for _, m := range out {
			total += EstimateTokens(m.Content)
		}
		assert.LessOrEqual(t, total, budget, "budget %d", budget)

		// Output must be a contiguous suffix of the input.
		if len(out) > 0 {
			assert.Equal(t, messages[len(messages)-len(out):], out, "budget %d", budget)
		}
	}
}

func TestTrimConversationHistory_DoesNotMutateInput(t *testing.T) {
	messages := []chat.ConversationMessage{
		msg(chat.RoleUser, "one"),
		msg(chat.RoleAssistant, "two"),
	}
	out := TrimConversationHistory(messages, 1000)
	require.Len(t, out, 2)

	out[0].Content = "changed"
	assert.Equal(t, "one", messages[0].Content)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestBuildUserContextString_EmptyContext(t *testing.T) {
	s := BuildUserContextString(&chat.UserContext{
		Name:         "Dana",
		DayInJourney: 3,
		Milestones:   chat.MilestoneSummary{NextTarget: 7},
	})

	assert.Contains(t, s, "USER PROFILE:\n")
	assert.Contains(t, s, "Name: Dana\n")
	assert.Contains(t, s, "Day in Journey: 3 of 45\n")
	assert.Contains(t, s, "No recent journal entries\n")
	assert.Contains(t, s, "No recent Daily Gratitude Actions\n")
	assert.Contains(t, s, "Recent Badges: None yet\n")
	assert.Contains(t, s, "Next milestone: Day 7\n")
	assert.Contains(t, s, "Mood has been consistent and stable.\n")
	assert.NotContains(t, s, "Reached:")
}

func TestBuildUserContextString_SectionOrder(t *testing.T) {
	s := BuildUserContextString(&chat.UserContext{Name: "Ana"})

	sections := []string{
		"USER PROFILE:",
		"RECENT JOURNALS:",
		"DAILY GRATITUDE ACTIONS:",
		"BADGES & MILESTONES:",
		"MOOD INSIGHTS:",
	}
	last := -1
	for _, sec := range sections {
		idx := strings.Index(s, sec)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", sec)
		assert.Greater(t, idx, last, "section %q out of order", sec)
		last = idx
	}
}

func TestBuildUserContextString_JournalsAndCaps(t *testing.T) {
	journals := make([]chat.JournalSnapshot, 7)
	for i := range journals {
		journals[i] = chat.JournalSnapshot{
			Type: "morning",
			Date: "2026-08-01",
		}
	}
	journals[0].MoodScore = intPtr(8)
	journals[0].Highlights = []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}

	s := BuildUserContextString(&chat.UserContext{
		Name:           "Dana",
		RecentJournals: journals,
	})

	// At most 5 entries render even if more are supplied.
	assert.Equal(t, 5, strings.Count(s, "[MORNING - 2026-08-01]"))

	// Only the one entry with a mood score gets a Mood line; nil scores
	// omit the line entirely.
	assert.Contains(t, s, "Mood: 8/10\n")
	assert.Equal(t, 1, strings.Count(s, "Mood:"))

	// Highlights cap at 5.
	assert.Contains(t, s, "- h5\n")
	assert.NotContains(t, s, "- h6")
}

func TestBuildUserContextString_BadgesAndMilestones(t *testing.T) {
	s := BuildUserContextString(&chat.UserContext{
		Name: "Dana",
		Badges: chat.BadgeSummary{
			RecentNames: []string{"Early Bird", "First Steps"},
			TotalCount:  4,
		},
		Milestones: chat.MilestoneSummary{
			DaysReached: []int{7, 14},
			NextTarget:  21,
		},
	})

	assert.Contains(t, s, "Total Badges Earned: 4\n")
	assert.Contains(t, s, "Recent Badges: Early Bird, First Steps\n")
	assert.Contains(t, s, "Reached: Day 7, Day 14\n")
	assert.Contains(t, s, "Next milestone: Day 21\n")
}

func TestBuildUserContextString_GratitudeTheme(t *testing.T) {
	s := BuildUserContextString(&chat.UserContext{
		Name: "Dana",
		GratitudeActions: []chat.GratitudeSnapshot{
			{Reflection: "grateful for my partner", Theme: strPtr("partnership")},
			{Reflection: "a quiet morning"},
		},
	})

	assert.Contains(t, s, "Theme: partnership\n")
	assert.Contains(t, s, "grateful for my partner\n")
	assert.Contains(t, s, "a quiet morning\n")
}

func TestBuildUserContextString_MoodTrends(t *testing.T) {
	improving := BuildUserContextString(&chat.UserContext{MoodTrend: "improving"})
	assert.Contains(t, improving, "Mood is trending upward - this is a positive sign.\n")

	declining := BuildUserContextString(&chat.UserContext{MoodTrend: "declining"})
	assert.Contains(t, declining, "Mood is trending downward - they may need extra support.\n")

	unknown := BuildUserContextString(&chat.UserContext{MoodTrend: "weird"})
	assert.Contains(t, unknown, "Mood has been consistent and stable.\n")
}
