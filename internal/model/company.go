package model

import "time"

// Company is an employer a user is tracking applications against.  Each
// company belongs to the user who created it.
type Company struct {
	ID        uint64
	UserID    uint64
	Name      string
	Website   string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
