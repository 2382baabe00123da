package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gynergyAPI/internal/badge"
	"gynergyAPI/internal/chat"
	"gynergyAPI/internal/journal"
)

// MilestoneDays are the celebrated journey checkpoints, in order.
var MilestoneDays = []int{7, 14, 21, 30, 45}

type JournalService struct {
	db *pgxpool.Pool
}

func NewJournalService(db *pgxpool.Pool) *JournalService {
	return &JournalService{db: db}
}

func (s *JournalService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found for clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

// SubmitEntry records a morning or evening journal entry for today.
// Idempotent per (user, date, type): resubmitting replaces the content.
func (s *JournalService) SubmitEntry(ctx context.Context, clerkID string, req *journal.SubmitEntryRequest) (*journal.Entry, error) {
	if req.Type != journal.EntryMorning && req.Type != journal.EntryEvening {
		return nil, fmt.Errorf("invalid entry type: %s", req.Type)
	}
	if req.MoodScore != nil && (*req.MoodScore < 1 || *req.MoodScore > 10) {
		return nil, fmt.Errorf("mood score must be between 1 and 10")
	}

	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	today := dateOnly(time.Now())

	query := `
	INSERT INTO journal_entries (user_id, entry_type, entry_date, content, mood_score, highlights, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (user_id, entry_date, entry_type)
	DO UPDATE SET
		content = $4,
		mood_score = $5,
		highlights = $6,
		updated_at = NOW()
	RETURNING id, user_id, entry_type, entry_date, content, mood_score, highlights, created_at, updated_at
	`

	entry := &journal.Entry{}
	err = s.db.QueryRow(
		ctx, query,
		userID, req.Type, today, req.Content, req.MoodScore, req.Highlights,
	).Scan(
		&entry.ID, &entry.UserID, &entry.Type, &entry.EntryDate, &entry.Content,
		&entry.MoodScore, &entry.Highlights, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	if err := s.updateStreak(ctx, userID, string(req.Type), today); err != nil {
		return nil, err
	}
	if err := s.updateDerivedStreaks(ctx, userID, today); err != nil {
		return nil, err
	}

	return entry, nil
}

// SubmitGratitudeAction records today's daily gratitude action.
func (s *JournalService) SubmitGratitudeAction(ctx context.Context, clerkID string, req *journal.SubmitGratitudeRequest) (*journal.GratitudeAction, error) {
	if req.Reflection == "" {
		return nil, fmt.Errorf("reflection is required")
	}

	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	today := dateOnly(time.Now())

	query := `
	INSERT INTO gratitude_actions (user_id, reflection, theme, action_date, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id, action_date)
	DO UPDATE SET reflection = $2, theme = $3
	RETURNING id, user_id, reflection, theme, action_date, created_at
	`

	dga := &journal.GratitudeAction{}
	err = s.db.QueryRow(ctx, query, userID, req.Reflection, req.Theme, today).Scan(
		&dga.ID, &dga.UserID, &dga.Reflection, &dga.Theme, &dga.ActionDate, &dga.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save gratitude action: %w", err)
	}

	if err := s.updateStreak(ctx, userID, string(badge.ActivityGratitude), today); err != nil {
		return nil, err
	}
	if err := s.updateDerivedStreaks(ctx, userID, today); err != nil {
		return nil, err
	}

	return dga, nil
}

// updateStreak advances a single activity streak for an entry on date.
// Consecutive-day logic: same day is a no-op, yesterday extends, any gap
// resets to 1.
func (s *JournalService) updateStreak(ctx context.Context, userID uuid.UUID, activity string, date time.Time) error {
	var current, longest int
	var lastDate *time.Time

	err := s.db.QueryRow(ctx,
		`SELECT current_streak, longest_streak, last_entry_date FROM streaks WHERE user_id = $1 AND activity = $2`,
		userID, activity,
	).Scan(&current, &longest, &lastDate)

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read %s streak: %w", activity, err)
	}

	next := 1
	if lastDate != nil {
		switch daysBetween(*lastDate, date) {
		case 0:
			return nil
		case 1:
			next = current + 1
		}
	}
	if next > longest {
		longest = next
	}

	query := `
	INSERT INTO streaks (user_id, activity, current_streak, longest_streak, last_entry_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id, activity)
	DO UPDATE SET current_streak = $3, longest_streak = $4, last_entry_date = $5, updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, userID, activity, next, longest, date); err != nil {
		return fmt.Errorf("failed to update %s streak: %w", activity, err)
	}
	return nil
}

// updateDerivedStreaks maintains the combined streak (all three dailies done
// on the same day) and the weekly streak (consecutive calendar weeks with at
// least one entry).
func (s *JournalService) updateDerivedStreaks(ctx context.Context, userID uuid.UUID, date time.Time) error {
	done, err := s.completedOn(ctx, userID, date)
	if err != nil {
		return err
	}
	if done.Morning && done.Evening && done.Gratitude {
		if err := s.updateStreak(ctx, userID, string(badge.ActivityAll), date); err != nil {
			return err
		}
	}

	var current, longest int
	var lastDate *time.Time
	err = s.db.QueryRow(ctx,
		`SELECT current_streak, longest_streak, last_entry_date FROM streaks WHERE user_id = $1 AND activity = $2`,
		userID, string(badge.ActivityWeekly),
	).Scan(&current, &longest, &lastDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read weekly streak: %w", err)
	}

	next := 1
	if lastDate != nil {
		lastYear, lastWeek := lastDate.ISOWeek()
		year, week := date.ISOWeek()
		if lastYear == year && lastWeek == week {
			return nil
		}
		if (year == lastYear && week == lastWeek+1) || (year == lastYear+1 && week == 1 && isLastISOWeek(*lastDate)) {
			next = current + 1
		}
	}
	if next > longest {
		longest = next
	}

	query := `
	INSERT INTO streaks (user_id, activity, current_streak, longest_streak, last_entry_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id, activity)
	DO UPDATE SET current_streak = $3, longest_streak = $4, last_entry_date = $5, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, userID, string(badge.ActivityWeekly), next, longest, date); err != nil {
		return fmt.Errorf("failed to update weekly streak: %w", err)
	}
	return nil
}

func (s *JournalService) completedOn(ctx context.Context, userID uuid.UUID, date time.Time) (badge.DailyCompletion, error) {
	var done badge.DailyCompletion

	query := `
	SELECT
		EXISTS(SELECT 1 FROM journal_entries WHERE user_id = $1 AND entry_date = $2 AND entry_type = 'morning'),
		EXISTS(SELECT 1 FROM journal_entries WHERE user_id = $1 AND entry_date = $2 AND entry_type = 'evening'),
		EXISTS(SELECT 1 FROM gratitude_actions WHERE user_id = $1 AND action_date = $2)
	`

	err := s.db.QueryRow(ctx, query, userID, date).Scan(&done.Morning, &done.Evening, &done.Gratitude)
	if err != nil {
		return done, fmt.Errorf("failed to check daily completion: %w", err)
	}
	return done, nil
}

func (s *JournalService) getStreaks(ctx context.Context, userID uuid.UUID) (badge.StreakSnapshot, error) {
	var snap badge.StreakSnapshot

	rows, err := s.db.Query(ctx,
		`SELECT activity, current_streak FROM streaks WHERE user_id = $1`, userID)
	if err != nil {
		return snap, fmt.Errorf("failed to fetch streaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var activity string
		var current int
		if err := rows.Scan(&activity, &current); err != nil {
			return snap, fmt.Errorf("failed to scan streak: %w", err)
		}
		switch badge.ActivityType(activity) {
		case badge.ActivityMorning:
			snap.Morning = current
		case badge.ActivityEvening:
			snap.Evening = current
		case badge.ActivityGratitude:
			snap.Gratitude = current
		case badge.ActivityAll:
			snap.Combined = current
		case badge.ActivityWeekly:
			snap.Weekly = current
		}
	}
	return snap, nil
}

func (s *JournalService) getLifetimeCounts(ctx context.Context, userID uuid.UUID) (badge.LifetimeCounts, error) {
	var totals badge.LifetimeCounts

	query := `
	SELECT
		(SELECT COUNT(*) FROM journal_entries WHERE user_id = $1 AND entry_type = 'morning'),
		(SELECT COUNT(*) FROM journal_entries WHERE user_id = $1 AND entry_type = 'evening'),
		(SELECT COUNT(*) FROM gratitude_actions WHERE user_id = $1),
		(SELECT COUNT(*) FROM shares WHERE user_id = $1),
		(SELECT COUNT(*) FROM encouragements WHERE sender_id = $1)
	`

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&totals.Morning, &totals.Evening, &totals.Gratitude, &totals.Shares, &totals.Encouragements,
	)
	if err != nil {
		return totals, fmt.Errorf("failed to fetch lifetime counts: %w", err)
	}
	return totals, nil
}

// lastJournalDateBefore returns the most recent journal date strictly before
// the given day, nil when the user has never journaled before it. Comeback
// badges need the gap that existed before today's entry.
func (s *JournalService) lastJournalDateBefore(ctx context.Context, userID uuid.UUID, date time.Time) (*time.Time, error) {
	var last *time.Time
	query := `SELECT MAX(entry_date) FROM journal_entries WHERE user_id = $1 AND entry_date < $2`
	if err := s.db.QueryRow(ctx, query, userID, date).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to fetch last journal date: %w", err)
	}
	return last, nil
}

// getMoodHistory returns the user's most recent mood scores, oldest first.
func (s *JournalService) getMoodHistory(ctx context.Context, userID uuid.UUID, limit int) ([]int, error) {
	query := `
	SELECT mood_score FROM (
		SELECT mood_score, entry_date, created_at
		FROM journal_entries
		WHERE user_id = $1 AND mood_score IS NOT NULL
		ORDER BY entry_date DESC, created_at DESC
		LIMIT $2
	) recent
	ORDER BY entry_date ASC, created_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mood history: %w", err)
	}
	defer rows.Close()

	var history []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan mood score: %w", err)
		}
		history = append(history, score)
	}
	return history, nil
}

func (s *JournalService) getJourneyInfo(ctx context.Context, userID uuid.UUID) (dayInJourney int, sessionID uuid.UUID, name string, stage string, err error) {
	var start time.Time
	query := `SELECT journey_start_date, active_session_id, first_name, relationship_stage FROM users WHERE id = $1`
	err = s.db.QueryRow(ctx, query, userID).Scan(&start, &sessionID, &name, &stage)
	if err != nil {
		err = fmt.Errorf("failed to fetch journey info: %w", err)
		return
	}
	dayInJourney = daysBetween(start, dateOnly(time.Now())) + 1
	if dayInJourney < 1 {
		dayInJourney = 1
	}
	return
}

// BuildCheckContext assembles the full snapshot the badge evaluator needs,
// from live rows. Called right after the triggering submission.
func (s *JournalService) BuildCheckContext(ctx context.Context, clerkID string) (*badge.CheckContext, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := dateOnly(now)

	dayInJourney, sessionID, _, _, err := s.getJourneyInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	streaks, err := s.getStreaks(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals, err := s.getLifetimeCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedOn(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	lastJournal, err := s.lastJournalDateBefore(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	moodHistory, err := s.getMoodHistory(ctx, userID, 14)
	if err != nil {
		return nil, err
	}

	milestone := 0
	for _, m := range MilestoneDays {
		if dayInJourney == m {
			milestone = m
			break
		}
	}

	return &badge.CheckContext{
		UserID:           userID,
		SessionID:        sessionID,
		Streaks:          streaks,
		Totals:           totals,
		CompletedToday:   completed,
		Now:              now,
		MilestoneReached: milestone,
		LastJournalDate:  lastJournal,
		MoodHistory:      moodHistory,
		DayInJourney:     dayInJourney,
	}, nil
}

// BuildUserContext assembles the chat companion's view of the user from live
// rows. The result feeds BuildUserContextString and is then discarded.
func (s *JournalService) BuildUserContext(ctx context.Context, clerkID string) (*chat.UserContext, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	dayInJourney, sessionID, name, stage, err := s.getJourneyInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	streaks, err := s.getStreaks(ctx, userID)
	if err != nil {
		return nil, err
	}

	journals, err := s.recentJournalSnapshots(ctx, userID, maxRecentJournals)
	if err != nil {
		return nil, err
	}

	gratitude, err := s.recentGratitudeSnapshots(ctx, userID, 3)
	if err != nil {
		return nil, err
	}

	badges, err := s.badgeSummary(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	moodHistory, err := s.getMoodHistory(ctx, userID, 14)
	if err != nil {
		return nil, err
	}

	var reached []int
	next := MilestoneDays[len(MilestoneDays)-1]
	for _, m := range MilestoneDays {
		if dayInJourney >= m {
			reached = append(reached, m)
		} else {
			next = m
			break
		}
	}

	return &chat.UserContext{
		Name:              name,
		DayInJourney:      dayInJourney,
		MorningStreak:     streaks.Morning,
		EveningStreak:     streaks.Evening,
		GratitudeStreak:   streaks.Gratitude,
		CombinedStreak:    streaks.Combined,
		RelationshipStage: stage,
		RecentJournals:    journals,
		GratitudeActions:  gratitude,
		Badges:            badges,
		Milestones:        chat.MilestoneSummary{DaysReached: reached, NextTarget: next},
		MoodTrend:         string(ClassifyMoodTrend(moodHistory)),
	}, nil
}

func (s *JournalService) recentJournalSnapshots(ctx context.Context, userID uuid.UUID, limit int) ([]chat.JournalSnapshot, error) {
	query := `
	SELECT entry_type, entry_date, mood_score, highlights
	FROM journal_entries
	WHERE user_id = $1
	ORDER BY entry_date DESC, created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent journals: %w", err)
	}
	defer rows.Close()

	var snapshots []chat.JournalSnapshot
	for rows.Next() {
		var entryType string
		var entryDate time.Time
		var moodScore *int
		var highlights []string
		if err := rows.Scan(&entryType, &entryDate, &moodScore, &highlights); err != nil {
			return nil, fmt.Errorf("failed to scan journal snapshot: %w", err)
		}
		snapshots = append(snapshots, chat.JournalSnapshot{
			Type:       entryType,
			Date:       entryDate.Format("2006-01-02"),
			MoodScore:  moodScore,
			Highlights: highlights,
		})
	}
	return snapshots, nil
}

func (s *JournalService) recentGratitudeSnapshots(ctx context.Context, userID uuid.UUID, limit int) ([]chat.GratitudeSnapshot, error) {
	query := `
	SELECT reflection, theme
	FROM gratitude_actions
	WHERE user_id = $1
	ORDER BY action_date DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gratitude actions: %w", err)
	}
	defer rows.Close()

	var snapshots []chat.GratitudeSnapshot
	for rows.Next() {
		var snap chat.GratitudeSnapshot
		if err := rows.Scan(&snap.Reflection, &snap.Theme); err != nil {
			return nil, fmt.Errorf("failed to scan gratitude snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (s *JournalService) badgeSummary(ctx context.Context, userID, sessionID uuid.UUID) (chat.BadgeSummary, error) {
	var summary chat.BadgeSummary

	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND session_id = $2`,
		userID, sessionID,
	).Scan(&summary.TotalCount)
	if err != nil {
		return summary, fmt.Errorf("failed to count badges: %w", err)
	}

	rows, err := s.db.Query(ctx, `
	SELECT b.name
	FROM user_badges ub
	JOIN badges b ON b.id = ub.badge_id
	WHERE ub.user_id = $1 AND ub.session_id = $2
	ORDER BY ub.unlocked_at DESC
	LIMIT 3
	`, userID, sessionID)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch recent badges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return summary, fmt.Errorf("failed to scan badge name: %w", err)
		}
		summary.RecentNames = append(summary.RecentNames, name)
	}
	return summary, nil
}

// GetRecentEntries returns the user's latest journal entries, newest first.
func (s *JournalService) GetRecentEntries(ctx context.Context, clerkID string, limit int) ([]*journal.Entry, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 50 {
		limit = 10
	}

	query := `
	SELECT id, user_id, entry_type, entry_date, content, mood_score, highlights, created_at, updated_at
	FROM journal_entries
	WHERE user_id = $1
	ORDER BY entry_date DESC, created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		entry := &journal.Entry{}
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Type, &entry.EntryDate, &entry.Content,
			&entry.MoodScore, &entry.Highlights, &entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ClassifyMoodTrend labels a mood history by comparing the average of its
// newer half against its older half. Fewer than four scores read as stable.
func ClassifyMoodTrend(history []int) journal.MoodTrend {
	if len(history) < 4 {
		return journal.TrendStable
	}

	mid := len(history) / 2
	older := average(history[:mid])
	newer := average(history[mid:])

	switch {
	case newer-older >= 0.5:
		return journal.TrendImproving
	case older-newer >= 0.5:
		return journal.TrendDeclining
	default:
		return journal.TrendStable
	}
}

func average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}

func isLastISOWeek(t time.Time) bool {
	_, week := t.ISOWeek()
	_, nextWeek := t.AddDate(0, 0, 7).ISOWeek()
	return nextWeek < week
}
