package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"gynergyAPI/internal/badge"
	"gynergyAPI/internal/notification"
	"gynergyAPI/middleware"
)

const maxShowcasedBadges = 3

var (
	// ErrUnknownCondition is returned for a condition type tag outside the
	// known set, usually a catalog row from a newer schema.
	ErrUnknownCondition = errors.New("unknown unlock condition type")

	// ErrUnsupportedCondition marks condition variants the evaluator cannot
	// judge yet (time conditions with count > 1, non-graduate completions).
	// Distinct from an evaluated false so callers can tell "not unlockable
	// yet" from "checked and not met".
	ErrUnsupportedCondition = errors.New("unlock condition variant not supported")

	// ErrAlreadyAwarded is the duplicate-insert outcome of the store's
	// idempotent award upsert.
	ErrAlreadyAwarded = errors.New("badge already awarded for this session")

	// ErrShowcaseLimit is the user-facing cap on showcased badges.
	ErrShowcaseLimit = errors.New("showcase limit reached: at most 3 badges can be showcased")

	// ErrBadgeNotEarned is returned when toggling showcase on a badge the
	// user has not unlocked.
	ErrBadgeNotEarned = errors.New("badge not earned")
)

// BadgeStore is the persistence port for the awarding pass. The production
// implementation is pgx-backed; tests substitute an in-memory fake.
type BadgeStore interface {
	GetCatalog(ctx context.Context) ([]*badge.Badge, error)
	GetEarnedBadgeIDs(ctx context.Context, userID, sessionID uuid.UUID) (map[uuid.UUID]bool, error)
	InsertUserBadge(ctx context.Context, userID, badgeID, sessionID uuid.UUID) (*badge.UserBadge, error)
	CountShowcased(ctx context.Context, userID, sessionID uuid.UUID) (int, error)
	SetShowcased(ctx context.Context, userID, badgeID, sessionID uuid.UUID, showcased bool) (*badge.UserBadge, error)
	MarkBadgesSeen(ctx context.Context, userID, sessionID uuid.UUID) error
	AddPoints(ctx context.Context, userID uuid.UUID, points int) error
	ListWithStatus(ctx context.Context, userID, sessionID uuid.UUID) ([]*badge.BadgeWithStatus, error)
}

// UnlockNotifier is the slice of the notification service the badge service
// needs. Kept as an interface so awarding stays testable without FCM.
type UnlockNotifier interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

type BadgeService struct {
	store    BadgeStore
	notifier UnlockNotifier
}

func NewBadgeService(store BadgeStore, notifier UnlockNotifier) *BadgeService {
	return &BadgeService{
		store:    store,
		notifier: notifier,
	}
}

// EvaluateCondition judges a single unlock condition against the snapshot.
// Pure: no I/O, no clock reads (the snapshot carries its own timestamp).
func EvaluateCondition(cond badge.UnlockCondition, chk *badge.CheckContext) (bool, error) {
	switch cond.Type {
	case badge.ConditionStreak:
		return streakForActivity(chk, cond.Activity) >= cond.Count, nil

	case badge.ConditionFirst:
		// Fires only on the very first occurrence, not "at least one".
		return lifetimeCount(chk, cond.Activity) == 1, nil

	case badge.ConditionCombo:
		if cond.Count > 1 {
			return chk.Streaks.Combined >= cond.Count, nil
		}
		return allCompletedToday(chk, cond.Activities), nil

	case badge.ConditionTime:
		if cond.Count > 1 {
			// Would need historical early-completion tracking the snapshot
			// does not carry.
			return false, ErrUnsupportedCondition
		}
		if cond.Before == "" && cond.After == "" {
			return false, nil
		}
		now := chk.Now.Format("15:04")
		if cond.Before != "" && now >= cond.Before {
			return false, nil
		}
		if cond.After != "" && now < cond.After {
			return false, nil
		}
		return true, nil

	case badge.ConditionShare:
		return chk.Totals.Shares >= cond.Count, nil

	case badge.ConditionEncourage:
		return chk.Totals.Encouragements >= cond.Count, nil

	case badge.ConditionMilestone:
		// Exact match so the badge fires only on the day the milestone is
		// newly reached.
		return chk.MilestoneReached != 0 && chk.MilestoneReached == cond.Number, nil

	case badge.ConditionComeback:
		if chk.LastJournalDate == nil {
			return false, nil
		}
		gap := int(chk.Now.Sub(*chk.LastJournalDate).Hours() / 24)
		return gap >= cond.DaysAway, nil

	case badge.ConditionWeekend:
		// Sunday approximation of "completed both weekend days": with a
		// combined streak of 2+ and all dailies done today, Saturday was
		// necessarily covered too.
		if chk.Now.Weekday() != time.Sunday {
			return false, nil
		}
		return chk.Streaks.Combined >= 2 &&
			chk.CompletedToday.Morning &&
			chk.CompletedToday.Evening &&
			chk.CompletedToday.Gratitude, nil

	case badge.ConditionMood:
		if len(chk.MoodHistory) < cond.Count+1 {
			return false, nil
		}
		increases := 0
		for i := 1; i < len(chk.MoodHistory); i++ {
			if chk.MoodHistory[i] > chk.MoodHistory[i-1] {
				increases++
			}
		}
		return increases >= cond.Count, nil

	case badge.ConditionComplete:
		if cond.Subtype != "" && cond.Subtype != "graduate" {
			return false, ErrUnsupportedCondition
		}
		return chk.DayInJourney >= JourneyLengthDays &&
			chk.Streaks.Combined >= JourneyLengthDays, nil

	default:
		return false, ErrUnknownCondition
	}
}

// ConditionMet collapses unsupported and unknown variants to false for
// callers that only care about unlockability.
func ConditionMet(cond badge.UnlockCondition, chk *badge.CheckContext) bool {
	ok, err := EvaluateCondition(cond, chk)
	return err == nil && ok
}

func streakForActivity(chk *badge.CheckContext, activity badge.ActivityType) int {
	switch activity {
	case badge.ActivityMorning:
		return chk.Streaks.Morning
	case badge.ActivityEvening:
		return chk.Streaks.Evening
	case badge.ActivityGratitude:
		return chk.Streaks.Gratitude
	case badge.ActivityAll:
		return chk.Streaks.Combined
	case badge.ActivityWeekly:
		return chk.Streaks.Weekly
	default:
		return 0
	}
}

func lifetimeCount(chk *badge.CheckContext, activity badge.ActivityType) int {
	switch activity {
	case badge.ActivityMorning:
		return chk.Totals.Morning
	case badge.ActivityEvening:
		return chk.Totals.Evening
	case badge.ActivityGratitude:
		return chk.Totals.Gratitude
	default:
		return 0
	}
}

func allCompletedToday(chk *badge.CheckContext, activities []badge.ActivityType) bool {
	// A combo with no explicit list means the three daily activities.
	if len(activities) == 0 {
		activities = []badge.ActivityType{badge.ActivityMorning, badge.ActivityEvening, badge.ActivityGratitude}
	}
	for _, a := range activities {
		switch a {
		case badge.ActivityMorning:
			if !chk.CompletedToday.Morning {
				return false
			}
		case badge.ActivityEvening:
			if !chk.CompletedToday.Evening {
				return false
			}
		case badge.ActivityGratitude:
			if !chk.CompletedToday.Gratitude {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// CheckAndAwardBadges runs the catalog against the snapshot and persists any
// new unlocks. Fail-closed: if the catalog or earned-set cannot be loaded the
// pass awards nothing. A failed insert for one badge never blocks the rest.
// Awarding is at-most-once per (user, badge, session), enforced by the
// store's idempotent upsert.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, chk *badge.CheckContext) *badge.CheckResult {
	result := &badge.CheckResult{
		NewBadges:         []*badge.Badge{},
		CelebrationEvents: []badge.CelebrationEvent{},
	}

	catalog, err := s.store.GetCatalog(ctx)
	if err != nil {
		log.Printf("Badge check: failed to load catalog: %v", err)
		return result
	}

	earned, err := s.store.GetEarnedBadgeIDs(ctx, chk.UserID, chk.SessionID)
	if err != nil {
		log.Printf("Badge check: failed to load earned set for user %s: %v", chk.UserID, err)
		return result
	}

	for _, b := range catalog {
		// Hidden badges have a separate unlock path and are never awarded
		// by the standard pass.
		if b.IsHidden || earned[b.ID] {
			continue
		}

		ok, err := EvaluateCondition(b.UnlockCondition, chk)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedCondition) {
				log.Printf("Badge check: badge %q: %v", b.Name, err)
			}
			continue
		}
		if !ok {
			continue
		}

		if _, err := s.store.InsertUserBadge(ctx, chk.UserID, b.ID, chk.SessionID); err != nil {
			if !errors.Is(err, ErrAlreadyAwarded) {
				log.Printf("Badge check: failed to award %q to user %s: %v", b.Name, chk.UserID, err)
			}
			continue
		}

		middleware.CountBadgeAwarded()
		result.NewBadges = append(result.NewBadges, b)
		result.PointsAwarded += b.Points
		result.CelebrationEvents = append(result.CelebrationEvents, badge.NewCelebrationEvent(b))
	}

	sort.SliceStable(result.CelebrationEvents, func(i, j int) bool {
		return result.CelebrationEvents[i].Priority > result.CelebrationEvents[j].Priority
	})

	if result.PointsAwarded > 0 {
		if err := s.store.AddPoints(ctx, chk.UserID, result.PointsAwarded); err != nil {
			log.Printf("Badge check: failed to add %d points for user %s: %v", result.PointsAwarded, chk.UserID, err)
		}
	}

	if s.notifier != nil {
		for _, b := range result.NewBadges {
			s.notifyUnlock(chk.UserID, b)
		}
	}

	return result
}

func (s *BadgeService) notifyUnlock(userID uuid.UUID, b *badge.Badge) {
	req := &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     notification.TypeBadgeUnlocked,
		Priority: notification.PriorityNormal,
		Data: map[string]any{
			"badge_name": b.Name,
			"rarity":     string(b.Rarity),
			"points":     b.Points,
		},
	}

	if _, err := s.notifier.CreateNotification(context.Background(), req); err != nil {
		log.Printf("Failed to create unlock notification for badge %q: %v", b.Name, err)
	}
}

// ToggleBadgeShowcase flips the showcase flag on an earned badge. At most
// three badges may be showcased per (user, session); a fourth returns
// ErrShowcaseLimit and leaves the set unchanged.
func (s *BadgeService) ToggleBadgeShowcase(ctx context.Context, userID, badgeID, sessionID uuid.UUID, showcased bool) (*badge.UserBadge, error) {
	if showcased {
		count, err := s.store.CountShowcased(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}
		if count >= maxShowcasedBadges {
			return nil, ErrShowcaseLimit
		}
	}

	return s.store.SetShowcased(ctx, userID, badgeID, sessionID, showcased)
}

// MarkBadgesSeen clears the IsNew flag after the client has shown the
// celebration.
func (s *BadgeService) MarkBadgesSeen(ctx context.Context, userID, sessionID uuid.UUID) error {
	return s.store.MarkBadgesSeen(ctx, userID, sessionID)
}

// GetBadges lists the catalog with the user's earned status. Hidden badges
// the user has not unlocked are left out entirely; unlocked ones appear with
// their condition redacted so the client cannot leak unlock logic.
func (s *BadgeService) GetBadges(ctx context.Context, userID, sessionID uuid.UUID) ([]*badge.BadgeWithStatus, error) {
	all, err := s.store.ListWithStatus(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	visible := make([]*badge.BadgeWithStatus, 0, len(all))
	for _, b := range all {
		if b.IsHidden {
			if !b.Unlocked {
				continue
			}
			b.UnlockCondition = badge.UnlockCondition{}
		}
		visible = append(visible, b)
	}
	return visible, nil
}
