package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gynergyAPI/internal/badge"
)

// PgxBadgeStore is the production BadgeStore backed by Postgres.
type PgxBadgeStore struct {
	db *pgxpool.Pool
}

func NewPgxBadgeStore(db *pgxpool.Pool) *PgxBadgeStore {
	return &PgxBadgeStore{db: db}
}

func (s *PgxBadgeStore) GetCatalog(ctx context.Context) ([]*badge.Badge, error) {
	query := `
	SELECT id, name, description, icon, rarity, points, unlock_condition, is_hidden, sort_order, created_at
	FROM badges
	ORDER BY sort_order ASC, created_at ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badge catalog: %w", err)
	}
	defer rows.Close()

	var catalog []*badge.Badge
	for rows.Next() {
		b := &badge.Badge{}
		var condStr string
		err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.Icon, &b.Rarity, &b.Points,
			&condStr, &b.IsHidden, &b.SortOrder, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		if err := json.Unmarshal([]byte(condStr), &b.UnlockCondition); err != nil {
			return nil, fmt.Errorf("badge %s has malformed unlock condition: %w", b.ID, err)
		}
		catalog = append(catalog, b)
	}

	return catalog, nil
}

func (s *PgxBadgeStore) GetEarnedBadgeIDs(ctx context.Context, userID, sessionID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT badge_id FROM user_badges WHERE user_id = $1 AND session_id = $2`

	rows, err := s.db.Query(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge id: %w", err)
		}
		earned[id] = true
	}

	return earned, nil
}

// InsertUserBadge awards a badge at most once per (user, badge, session).
// The uniqueness constraint plus ON CONFLICT DO NOTHING makes a concurrent
// duplicate a typed ErrAlreadyAwarded instead of a raw constraint error.
func (s *PgxBadgeStore) InsertUserBadge(ctx context.Context, userID, badgeID, sessionID uuid.UUID) (*badge.UserBadge, error) {
	query := `
	INSERT INTO user_badges (user_id, badge_id, session_id, is_new, is_showcased, unlocked_at)
	VALUES ($1, $2, $3, true, false, NOW())
	ON CONFLICT (user_id, badge_id, session_id) DO NOTHING
	RETURNING id, user_id, badge_id, session_id, is_new, is_showcased, unlocked_at
	`

	ub := &badge.UserBadge{}
	err := s.db.QueryRow(ctx, query, userID, badgeID, sessionID).Scan(
		&ub.ID, &ub.UserID, &ub.BadgeID, &ub.SessionID, &ub.IsNew, &ub.IsShowcased, &ub.UnlockedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyAwarded
		}
		return nil, fmt.Errorf("failed to insert user badge: %w", err)
	}

	return ub, nil
}

func (s *PgxBadgeStore) CountShowcased(ctx context.Context, userID, sessionID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND session_id = $2 AND is_showcased = true`
	if err := s.db.QueryRow(ctx, query, userID, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count showcased badges: %w", err)
	}
	return count, nil
}

func (s *PgxBadgeStore) SetShowcased(ctx context.Context, userID, badgeID, sessionID uuid.UUID, showcased bool) (*badge.UserBadge, error) {
	query := `
	UPDATE user_badges
	SET is_showcased = $4
	WHERE user_id = $1 AND badge_id = $2 AND session_id = $3
	RETURNING id, user_id, badge_id, session_id, is_new, is_showcased, unlocked_at
	`

	ub := &badge.UserBadge{}
	err := s.db.QueryRow(ctx, query, userID, badgeID, sessionID, showcased).Scan(
		&ub.ID, &ub.UserID, &ub.BadgeID, &ub.SessionID, &ub.IsNew, &ub.IsShowcased, &ub.UnlockedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBadgeNotEarned
		}
		return nil, fmt.Errorf("failed to update showcase flag: %w", err)
	}

	return ub, nil
}

func (s *PgxBadgeStore) MarkBadgesSeen(ctx context.Context, userID, sessionID uuid.UUID) error {
	query := `UPDATE user_badges SET is_new = false WHERE user_id = $1 AND session_id = $2 AND is_new = true`
	if _, err := s.db.Exec(ctx, query, userID, sessionID); err != nil {
		return fmt.Errorf("failed to mark badges seen: %w", err)
	}
	return nil
}

func (s *PgxBadgeStore) AddPoints(ctx context.Context, userID uuid.UUID, points int) error {
	query := `UPDATE users SET total_points = total_points + $2, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, userID, points); err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	return nil
}

func (s *PgxBadgeStore) ListWithStatus(ctx context.Context, userID, sessionID uuid.UUID) ([]*badge.BadgeWithStatus, error) {
	query := `
	SELECT
		b.id, b.name, b.description, b.icon, b.rarity, b.points,
		b.unlock_condition, b.is_hidden, b.sort_order, b.created_at,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END AS unlocked,
		COALESCE(ub.is_new, false),
		COALESCE(ub.is_showcased, false),
		ub.unlocked_at
	FROM badges b
	LEFT JOIN user_badges ub
		ON b.id = ub.badge_id AND ub.user_id = $1 AND ub.session_id = $2
	ORDER BY unlocked DESC, b.sort_order ASC
	`

	rows, err := s.db.Query(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges with status: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		b := &badge.BadgeWithStatus{}
		var condStr string
		err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.Icon, &b.Rarity, &b.Points,
			&condStr, &b.IsHidden, &b.SortOrder, &b.CreatedAt,
			&b.Unlocked, &b.IsNew, &b.IsShowcased, &b.UnlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge status: %w", err)
		}
		if err := json.Unmarshal([]byte(condStr), &b.UnlockCondition); err != nil {
			return nil, fmt.Errorf("badge %s has malformed unlock condition: %w", b.ID, err)
		}
		badges = append(badges, b)
	}

	return badges, nil
}
