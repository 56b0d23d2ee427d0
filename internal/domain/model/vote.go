package model

import "time"

// Direction is the sign of a vote.
type Direction string

// Vote directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Valid reports whether d is up or down.
func (d Direction) Valid() bool { return d == Up || d == Down }

// Vote is a single up/down vote on a project, processed asynchronously.
type Vote struct {
	VoteID    string    // unique id for idempotency
	ProjectID string    // voted project
	UserID    string    // voter
	Direction Direction // up or down
	TS        time.Time // submission time
}
