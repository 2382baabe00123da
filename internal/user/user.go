package user

import "time"

type User struct {
	ID                string    `json:"id"`
	ClerkID           string    `json:"clerkId"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	EmailVerified     bool      `json:"emailVerified"`
	JourneyStartDate  time.Time `json:"journeyStartDate"`
	RelationshipStage string    `json:"relationshipStage"`
	TotalPoints       int       `json:"totalPoints"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	ClerkID   string `json:"clerk_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	ImageURL          *string `json:"image_url,omitempty"`
	RelationshipStage *string `json:"relationship_stage,omitempty"`
}
