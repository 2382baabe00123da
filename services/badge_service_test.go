package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gynergyAPI/internal/badge"
)

// fakeBadgeStore is an in-memory BadgeStore for exercising the awarding pass
// without postgres.
type fakeBadgeStore struct {
	catalog    []*badge.Badge
	awarded    map[uuid.UUID]*badge.UserBadge // keyed by badge ID
	points     int
	catalogErr error
	earnedErr  error
	insertErr  error
}

func newFakeBadgeStore(catalog ...*badge.Badge) *fakeBadgeStore {
	return &fakeBadgeStore{
		catalog: catalog,
		awarded: make(map[uuid.UUID]*badge.UserBadge),
	}
}

func (f *fakeBadgeStore) GetCatalog(ctx context.Context) ([]*badge.Badge, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeBadgeStore) GetEarnedBadgeIDs(ctx context.Context, userID, sessionID uuid.UUID) (map[uuid.UUID]bool, error) {
	if f.earnedErr != nil {
		return nil, f.earnedErr
	}
	earned := make(map[uuid.UUID]bool, len(f.awarded))
	for id := range f.awarded {
		earned[id] = true
	}
	return earned, nil
}

func (f *fakeBadgeStore) InsertUserBadge(ctx context.Context, userID, badgeID, sessionID uuid.UUID) (*badge.UserBadge, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if _, ok := f.awarded[badgeID]; ok {
		return nil, ErrAlreadyAwarded
	}
	ub := &badge.UserBadge{
		ID:         uuid.New(),
		UserID:     userID,
		BadgeID:    badgeID,
		SessionID:  sessionID,
		IsNew:      true,
		UnlockedAt: time.Now(),
	}
	f.awarded[badgeID] = ub
	return ub, nil
}

func (f *fakeBadgeStore) CountShowcased(ctx context.Context, userID, sessionID uuid.UUID) (int, error) {
	count := 0
	for _, ub := range f.awarded {
		if ub.IsShowcased {
			count++
		}
	}
	return count, nil
}

func (f *fakeBadgeStore) SetShowcased(ctx context.Context, userID, badgeID, sessionID uuid.UUID, showcased bool) (*badge.UserBadge, error) {
	ub, ok := f.awarded[badgeID]
	if !ok {
		return nil, ErrBadgeNotEarned
	}
	ub.IsShowcased = showcased
	return ub, nil
}

func (f *fakeBadgeStore) MarkBadgesSeen(ctx context.Context, userID, sessionID uuid.UUID) error {
	for _, ub := range f.awarded {
		ub.IsNew = false
	}
	return nil
}

func (f *fakeBadgeStore) AddPoints(ctx context.Context, userID uuid.UUID, points int) error {
	f.points += points
	return nil
}

func (f *fakeBadgeStore) ListWithStatus(ctx context.Context, userID, sessionID uuid.UUID) ([]*badge.BadgeWithStatus, error) {
	out := make([]*badge.BadgeWithStatus, 0, len(f.catalog))
	for _, b := range f.catalog {
		bws := &badge.BadgeWithStatus{Badge: *b}
		if ub, ok := f.awarded[b.ID]; ok {
			bws.Unlocked = true
			bws.IsNew = ub.IsNew
			bws.IsShowcased = ub.IsShowcased
			bws.UnlockedAt = &ub.UnlockedAt
		}
		out = append(out, bws)
	}
	return out, nil
}

func testBadge(name string, rarity badge.Rarity, points int, cond badge.UnlockCondition) *badge.Badge {
	return &badge.Badge{
		ID:              uuid.New(),
		Name:            name,
		Rarity:          rarity,
		Points:          points,
		UnlockCondition: cond,
	}
}

func baseContext() *badge.CheckContext {
	return &badge.CheckContext{
		UserID:    uuid.New(),
		SessionID: uuid.New(),
		Now:       time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), // a Monday
	}
}

func TestEvaluateCondition_Streak(t *testing.T) {
	chk := baseContext()
	chk.Streaks = badge.StreakSnapshot{Morning: 7, Evening: 3, Gratitude: 5, Combined: 3, Weekly: 2}

	cases := []struct {
		activity badge.ActivityType
		count    int
		want     bool
	}{
		{badge.ActivityMorning, 7, true},
		{badge.ActivityMorning, 8, false},
		{badge.ActivityEvening, 3, true},
		{badge.ActivityGratitude, 6, false},
		{badge.ActivityAll, 3, true},
		{badge.ActivityWeekly, 2, true},
		{badge.ActivityType("bogus"), 1, false},
	}
	for _, tc := range cases {
		got, err := EvaluateCondition(badge.UnlockCondition{
			Type: badge.ConditionStreak, Activity: tc.activity, Count: tc.count,
		}, chk)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s >= %d", tc.activity, tc.count)
	}
}

func TestEvaluateCondition_FirstFiresOnlyOnce(t *testing.T) {
	chk := baseContext()
	cond := badge.UnlockCondition{Type: badge.ConditionFirst, Activity: badge.ActivityMorning}

	chk.Totals.Morning = 0
	got, err := EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)

	chk.Totals.Morning = 1
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// Second occurrence is no longer "first".
	chk.Totals.Morning = 2
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateCondition_Combo(t *testing.T) {
	chk := baseContext()
	chk.CompletedToday = badge.DailyCompletion{Morning: true, Evening: true, Gratitude: false}

	// Empty list means all three dailies.
	got, err := EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionCombo}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	chk.CompletedToday.Gratitude = true
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionCombo}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// Explicit subset.
	chk.CompletedToday = badge.DailyCompletion{Morning: true, Evening: true}
	got, err = EvaluateCondition(badge.UnlockCondition{
		Type:       badge.ConditionCombo,
		Activities: []badge.ActivityType{badge.ActivityMorning, badge.ActivityEvening},
	}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// Count > 1 switches to the combined-streak reading.
	chk.Streaks.Combined = 10
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionCombo, Count: 10}, chk)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCondition_TimeWindows(t *testing.T) {
	chk := baseContext()
	chk.Now = time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)

	got, err := EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, Before: "07:00", Count: 1}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, Before: "06:00", Count: 1}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, After: "06:00", Count: 1}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, After: "22:00", Count: 1}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	// Both bounds form a window.
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, After: "06:00", Before: "07:00", Count: 1}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// No bounds at all can never fire.
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, Count: 1}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	// Repeated early completions are not tracked.
	_, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionTime, Before: "07:00", Count: 5}, chk)
	assert.ErrorIs(t, err, ErrUnsupportedCondition)
}

func TestEvaluateCondition_ShareAndEncourage(t *testing.T) {
	chk := baseContext()
	chk.Totals.Shares = 3
	chk.Totals.Encouragements = 1

	got, err := EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionShare, Count: 3}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionShare, Count: 4}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionEncourage, Count: 1}, chk)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCondition_MilestoneExactMatch(t *testing.T) {
	chk := baseContext()
	chk.MilestoneReached = 14

	got, err := EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionMilestone, Number: 14}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// Day 7 was passed earlier; it does not re-fire on day 14.
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionMilestone, Number: 7}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	chk.MilestoneReached = 0
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionMilestone, Number: 0}, chk)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateCondition_Comeback(t *testing.T) {
	chk := baseContext()
	cond := badge.UnlockCondition{Type: badge.ConditionComeback, DaysAway: 3}

	// Never journaled: no comeback.
	got, err := EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)

	fourDaysAgo := chk.Now.AddDate(0, 0, -4)
	chk.LastJournalDate = &fourDaysAgo
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.True(t, got)

	yesterday := chk.Now.AddDate(0, 0, -1)
	chk.LastJournalDate = &yesterday
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateCondition_Weekend(t *testing.T) {
	chk := baseContext()
	chk.Streaks.Combined = 2
	chk.CompletedToday = badge.DailyCompletion{Morning: true, Evening: true, Gratitude: true}
	cond := badge.UnlockCondition{Type: badge.ConditionWeekend}

	// Monday: not the weekend.
	got, err := EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)

	chk.Now = time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC) // a Sunday
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// Sunday but the streak started today, so Saturday was missed.
	chk.Streaks.Combined = 1
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateCondition_Mood(t *testing.T) {
	chk := baseContext()
	cond := badge.UnlockCondition{Type: badge.ConditionMood, Count: 3}

	// Too little history.
	chk.MoodHistory = []int{4, 5, 6}
	got, err := EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)

	// Three day-over-day increases.
	chk.MoodHistory = []int{4, 5, 6, 7}
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.True(t, got)

	// A dip breaks one increase but others still count.
	chk.MoodHistory = []int{4, 5, 3, 6, 7}
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.True(t, got)

	chk.MoodHistory = []int{7, 6, 5, 4}
	got, err = EvaluateCondition(cond, chk)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateCondition_Complete(t *testing.T) {
	chk := baseContext()
	chk.DayInJourney = 45
	chk.Streaks.Combined = 45

	got, err := EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionComplete}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionComplete, Subtype: "graduate"}, chk)
	require.NoError(t, err)
	assert.True(t, got)

	chk.Streaks.Combined = 44
	got, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionComplete}, chk)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = EvaluateCondition(badge.UnlockCondition{Type: badge.ConditionComplete, Subtype: "perfect"}, chk)
	assert.ErrorIs(t, err, ErrUnsupportedCondition)
}

func TestEvaluateCondition_UnknownType(t *testing.T) {
	_, err := EvaluateCondition(badge.UnlockCondition{Type: "prophecy"}, baseContext())
	assert.ErrorIs(t, err, ErrUnknownCondition)
}

func TestConditionMet_CollapsesErrors(t *testing.T) {
	chk := baseContext()
	assert.False(t, ConditionMet(badge.UnlockCondition{Type: "prophecy"}, chk))
	assert.False(t, ConditionMet(badge.UnlockCondition{Type: badge.ConditionTime, Before: "07:00", Count: 5}, chk))

	chk.Streaks.Morning = 3
	assert.True(t, ConditionMet(badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 3}, chk))
}

func TestCheckAndAwardBadges_AwardsAndOrdersCelebrations(t *testing.T) {
	common := testBadge("First Steps", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionFirst, Activity: badge.ActivityMorning})
	legendary := testBadge("Graduate", badge.RarityLegendary, 500,
		badge.UnlockCondition{Type: badge.ConditionComplete})
	rare := testBadge("Week One", badge.RarityRare, 50,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityAll, Count: 7})

	store := newFakeBadgeStore(common, legendary, rare)
	svc := NewBadgeService(store, nil)

	chk := baseContext()
	chk.Totals.Morning = 1
	chk.DayInJourney = 45
	chk.Streaks.Combined = 45

	result := svc.CheckAndAwardBadges(context.Background(), chk)

	require.Len(t, result.NewBadges, 3)
	assert.Equal(t, 560, result.PointsAwarded)
	assert.Equal(t, 560, store.points)

	// Celebrations come rarest-first regardless of catalog order.
	require.Len(t, result.CelebrationEvents, 3)
	assert.Equal(t, "Graduate", result.CelebrationEvents[0].Name)
	assert.Equal(t, 100, result.CelebrationEvents[0].Priority)
	assert.Equal(t, "Week One", result.CelebrationEvents[1].Name)
	assert.Equal(t, "First Steps", result.CelebrationEvents[2].Name)
}

func TestCheckAndAwardBadges_AtMostOnce(t *testing.T) {
	b := testBadge("First Steps", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 1})

	store := newFakeBadgeStore(b)
	svc := NewBadgeService(store, nil)

	chk := baseContext()
	chk.Streaks.Morning = 1

	first := svc.CheckAndAwardBadges(context.Background(), chk)
	require.Len(t, first.NewBadges, 1)

	second := svc.CheckAndAwardBadges(context.Background(), chk)
	assert.Empty(t, second.NewBadges)
	assert.Zero(t, second.PointsAwarded)
	assert.Equal(t, 10, store.points)
}

func TestCheckAndAwardBadges_SkipsHiddenAndBadConditions(t *testing.T) {
	hidden := testBadge("Secret", badge.RarityEpic, 100,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 1})
	hidden.IsHidden = true
	unknown := testBadge("Mystery", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: "prophecy"})
	unsupported := testBadge("Early Five", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionTime, Before: "07:00", Count: 5})

	store := newFakeBadgeStore(hidden, unknown, unsupported)
	svc := NewBadgeService(store, nil)

	chk := baseContext()
	chk.Streaks.Morning = 10

	result := svc.CheckAndAwardBadges(context.Background(), chk)
	assert.Empty(t, result.NewBadges)
	assert.Empty(t, store.awarded)
}

func TestCheckAndAwardBadges_FailClosed(t *testing.T) {
	b := testBadge("First Steps", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 1})
	chk := baseContext()
	chk.Streaks.Morning = 1

	store := newFakeBadgeStore(b)
	store.catalogErr = errors.New("connection refused")
	result := NewBadgeService(store, nil).CheckAndAwardBadges(context.Background(), chk)
	require.NotNil(t, result)
	assert.Empty(t, result.NewBadges)
	assert.Zero(t, result.PointsAwarded)

	store = newFakeBadgeStore(b)
	store.earnedErr = errors.New("connection refused")
	result = NewBadgeService(store, nil).CheckAndAwardBadges(context.Background(), chk)
	assert.Empty(t, result.NewBadges)
}

func TestCheckAndAwardBadges_InsertFailureSkipsBadgeOnly(t *testing.T) {
	b := testBadge("First Steps", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 1})

	store := newFakeBadgeStore(b)
	store.insertErr = errors.New("deadlock detected")
	svc := NewBadgeService(store, nil)

	chk := baseContext()
	chk.Streaks.Morning = 1

	result := svc.CheckAndAwardBadges(context.Background(), chk)
	assert.Empty(t, result.NewBadges)
	assert.Zero(t, store.points)
}

func TestToggleBadgeShowcase_Cap(t *testing.T) {
	badges := make([]*badge.Badge, 4)
	for i := range badges {
		badges[i] = testBadge("B", badge.RarityCommon, 10,
			badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 1})
	}
	store := newFakeBadgeStore(badges...)
	svc := NewBadgeService(store, nil)

	userID := uuid.New()
	sessionID := uuid.New()
	for _, b := range badges {
		_, err := store.InsertUserBadge(context.Background(), userID, b.ID, sessionID)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		ub, err := svc.ToggleBadgeShowcase(context.Background(), userID, badges[i].ID, sessionID, true)
		require.NoError(t, err)
		assert.True(t, ub.IsShowcased)
	}

	// Fourth showcase hits the cap.
	_, err := svc.ToggleBadgeShowcase(context.Background(), userID, badges[3].ID, sessionID, true)
	assert.ErrorIs(t, err, ErrShowcaseLimit)

	// Un-showcasing is always allowed, and frees a slot.
	_, err = svc.ToggleBadgeShowcase(context.Background(), userID, badges[0].ID, sessionID, false)
	require.NoError(t, err)
	_, err = svc.ToggleBadgeShowcase(context.Background(), userID, badges[3].ID, sessionID, true)
	require.NoError(t, err)
}

func TestToggleBadgeShowcase_NotEarned(t *testing.T) {
	store := newFakeBadgeStore()
	svc := NewBadgeService(store, nil)

	_, err := svc.ToggleBadgeShowcase(context.Background(), uuid.New(), uuid.New(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrBadgeNotEarned)
}

func TestGetBadges_HiddenHandling(t *testing.T) {
	visible := testBadge("Visible", badge.RarityCommon, 10,
		badge.UnlockCondition{Type: badge.ConditionStreak, Activity: badge.ActivityMorning, Count: 3})
	lockedHidden := testBadge("Locked Secret", badge.RarityEpic, 100,
		badge.UnlockCondition{Type: badge.ConditionComeback, DaysAway: 7})
	lockedHidden.IsHidden = true
	unlockedHidden := testBadge("Found Secret", badge.RarityEpic, 100,
		badge.UnlockCondition{Type: badge.ConditionComeback, DaysAway: 7})
	unlockedHidden.IsHidden = true

	store := newFakeBadgeStore(visible, lockedHidden, unlockedHidden)
	svc := NewBadgeService(store, nil)

	userID := uuid.New()
	sessionID := uuid.New()
	_, err := store.InsertUserBadge(context.Background(), userID, unlockedHidden.ID, sessionID)
	require.NoError(t, err)

	out, err := svc.GetBadges(context.Background(), userID, sessionID)
	require.NoError(t, err)
	require.Len(t, out, 2)

	names := []string{out[0].Name, out[1].Name}
	assert.Contains(t, names, "Visible")
	assert.Contains(t, names, "Found Secret")

	for _, b := range out {
		if b.Name == "Found Secret" {
			// Unlock logic for hidden badges never leaves the server.
			assert.Equal(t, badge.UnlockCondition{}, b.UnlockCondition)
		}
	}
}

func TestCelebrationPriorities(t *testing.T) {
	assert.Equal(t, 100, badge.RarityLegendary.CelebrationPriority())
	assert.Equal(t, 80, badge.RarityEpic.CelebrationPriority())
	assert.Equal(t, 60, badge.RarityRare.CelebrationPriority())
	assert.Equal(t, 40, badge.RarityUncommon.CelebrationPriority())
	assert.Equal(t, 20, badge.RarityCommon.CelebrationPriority())
	assert.Equal(t, 20, badge.Rarity("mythic").CelebrationPriority())
}
