package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gynergyAPI/internal/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// ResolveIdentity maps a Clerk ID to the internal user ID and the active
// journey session.
func (s *UserService) ResolveIdentity(ctx context.Context, clerkID string) (userID, sessionID uuid.UUID, err error) {
	query := `SELECT id, active_session_id FROM users WHERE clerk_id = $1`
	err = s.db.QueryRow(ctx, query, clerkID).Scan(&userID, &sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, sessionID, nil
}

// CreateUser provisions a user from the Clerk webhook. A fresh journey
// session starts on signup; the 45-day clock runs from today.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:               uuid.New().String(),
		ClerkID:          req.ClerkID,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		ImageURL:         req.ImageURL,
		JourneyStartDate: dateOnly(time.Now()),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, first_name, last_name, image_url, journey_start_date, active_session_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, clerk_id, email, first_name, last_name, image_url, email_verified,
	          journey_start_date, relationship_stage, total_points, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		u.ID, u.ClerkID, u.Email, u.FirstName, u.LastName, u.ImageURL,
		u.JourneyStartDate, uuid.New(), u.CreatedAt, u.UpdatedAt,
	).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.FirstName, &u.LastName, &u.ImageURL, &u.EmailVerified,
		&u.JourneyStartDate, &u.RelationshipStage, &u.TotalPoints, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, first_name, last_name, image_url, email_verified,
	       journey_start_date, relationship_stage, total_points, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.FirstName, &u.LastName, &u.ImageURL, &u.EmailVerified,
		&u.JourneyStartDate, &u.RelationshipStage, &u.TotalPoints, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	updates := []string{}
	args := []interface{}{clerkID}
	argCount := 2

	if req.FirstName != nil {
		updates = append(updates, fmt.Sprintf("first_name = $%d", argCount))
		args = append(args, *req.FirstName)
		argCount++
	}
	if req.LastName != nil {
		updates = append(updates, fmt.Sprintf("last_name = $%d", argCount))
		args = append(args, *req.LastName)
		argCount++
	}
	if req.ImageURL != nil {
		updates = append(updates, fmt.Sprintf("image_url = $%d", argCount))
		args = append(args, *req.ImageURL)
		argCount++
	}
	if req.RelationshipStage != nil {
		updates = append(updates, fmt.Sprintf("relationship_stage = $%d", argCount))
		args = append(args, *req.RelationshipStage)
		argCount++
	}

	if len(updates) == 0 {
		return s.GetUserByClerkID(ctx, clerkID)
	}

	query := fmt.Sprintf(`
	UPDATE users SET %s, updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id
	`, strings.Join(updates, ", "))

	var id string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`
	if _, err := s.db.Exec(ctx, query, clerkID, verified); err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// RecordShare logs a community-feed share; shares feed the share badge
// conditions through the lifetime counts.
func (s *UserService) RecordShare(ctx context.Context, clerkID string, contentType string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	query := `INSERT INTO shares (user_id, content_type, created_at) VALUES ($1, $2, NOW())`
	if _, err := s.db.Exec(ctx, query, userID, contentType); err != nil {
		return fmt.Errorf("failed to record share: %w", err)
	}
	return nil
}

// RecordEncouragement logs an encouragement sent to another user on the
// community feed.
func (s *UserService) RecordEncouragement(ctx context.Context, clerkID string, recipientID uuid.UUID) error {
	var senderID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&senderID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if senderID == recipientID {
		return fmt.Errorf("cannot encourage yourself")
	}

	query := `INSERT INTO encouragements (sender_id, recipient_id, created_at) VALUES ($1, $2, NOW())`
	if _, err := s.db.Exec(ctx, query, senderID, recipientID); err != nil {
		return fmt.Errorf("failed to record encouragement: %w", err)
	}
	return nil
}
