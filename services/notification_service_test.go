package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	s := &NotificationService{}

	out := s.renderTemplate("You unlocked {{badge_name}}! +{{points}} points", map[string]any{
		"badge_name": "Early Bird",
		"points":     25,
	})
	assert.Equal(t, "You unlocked Early Bird! +25 points", out)

	// Unknown placeholders pass through untouched.
	out = s.renderTemplate("Day {{days}} reached", map[string]any{"other": "x"})
	assert.Equal(t, "Day {{days}} reached", out)

	out = s.renderTemplate("No placeholders here", nil)
	assert.Equal(t, "No placeholders here", out)
}
