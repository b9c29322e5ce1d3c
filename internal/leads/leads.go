// Package leads tracks sales leads through the four board stages and
// persists them as a flat JSON file, the only durable state this
// application owns.
package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Board statuses, in pipeline order.
const (
	StatusNew       = "New Lead"
	StatusContacted = "Contacted"
	StatusPitched   = "Pitched"
	StatusConverted = "Converted"
)

// Statuses lists the valid board columns in pipeline order.
var Statuses = []string{StatusNew, StatusContacted, StatusPitched, StatusConverted}

// Lead is one card on the board.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidStatus reports whether status names a board column.
func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// New creates a lead in the first board column. Name is required; a blank
// email is recorded as "No Email".
func New(name, email string) (Lead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Lead{}, fmt.Errorf("lead name is required")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = "No Email"
	}
	return Lead{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Status:    StatusNew,
		CreatedAt: time.Now().UTC(),
	}, nil
}
