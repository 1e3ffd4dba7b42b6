package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidSession is returned when the session identifier is blank.
	ErrInvalidSession = errors.New("invalid session identifier")
	// ErrEmptySelection is returned when no parcel identifiers are supplied.
	ErrEmptySelection = errors.New("selection contains no parcel identifiers")
)

// Selection is the set of parcels an operator picked for the next assignment
// step. It is request-scoped handoff state, parked under a session key and
// consumed exactly once by the assignment step — never ambient storage.
type Selection struct {
	// SessionID keys the selection to one operator session.
	SessionID string `json:"session_id"`
	// ParcelIDs are the selected parcels, in pick order, deduplicated.
	ParcelIDs []string `json:"parcel_ids"`
	// CreatedAt is when the selection was parked.
	CreatedAt time.Time `json:"created_at"`
}

// NewSelection creates a validated Selection. Blank parcel ids are dropped
// and duplicates collapse onto their first occurrence.
func NewSelection(sessionID string, parcelIDs []string) (*Selection, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	seen := make(map[string]bool, len(parcelIDs))
	ids := make([]string, 0, len(parcelIDs))
	for _, id := range parcelIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}

	return &Selection{
		SessionID: sessionID,
		ParcelIDs: ids,
		CreatedAt: time.Now(),
	}, nil
}
