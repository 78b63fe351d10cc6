// File: internal/webhook/event.go
package webhook

import (
	"encoding/json"
	"strings"

	"identity_sync_backend/internal/user"
)

// Event types handled by the receiver. Anything else is acknowledged and ignored.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the envelope of a provider delivery. Data is decoded per type.
type Event struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address" validate:"required"`
}

// UserData is the user object carried by user.created and user.updated.
type UserData struct {
	ID             string         `json:"id" validate:"required"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	EmailAddresses []EmailAddress `json:"email_addresses" validate:"required,min=1,dive"`
	ImageURL       string         `json:"image_url"`
}

// Profile maps the provider user onto the local record. The first listed
// address is the one stored.
func (d UserData) Profile() user.Profile {
	return user.Profile{
		ID:      d.ID,
		Name:    user.FullName(d.FirstName, d.LastName),
		Email:   strings.TrimSpace(d.EmailAddresses[0].EmailAddress),
		Picture: d.ImageURL,
	}
}

// DeletedData is the partial object carried by user.deleted.
type DeletedData struct {
	ID      string `json:"id" validate:"required"`
	Deleted bool   `json:"deleted"`
}
