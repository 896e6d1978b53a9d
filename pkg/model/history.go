package model

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// History is a text conversation held through the chat host
type History struct {
	ID        HistoryID
	Title     string
	Agent     string
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Contents are kept in storage; firestore documents have a size limit
	Contents []*genai.Content `firestore:"-"`
}
