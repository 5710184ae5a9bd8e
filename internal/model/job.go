package model

import "time"

// Stage values tracked for a job application.  The stage moves through the
// funnel but transitions are not enforced server-side; the kanban UI owns
// that concern.
const (
	StageApplied   = "applied"
	StageScreening = "screening"
	StageInterview = "interview"
	StageOffer     = "offer"
	StageRejected  = "rejected"
)

// ValidStage reports whether s is one of the recognized stage values.
func ValidStage(s string) bool {
	switch s {
	case StageApplied, StageScreening, StageInterview, StageOffer, StageRejected:
		return true
	}
	return false
}

// Job is a single job application owned by a user and attached to one of
// their companies.
type Job struct {
	ID        uint64
	UserID    uint64
	CompanyID uint64
	Title     string
	Stage     string
	Notes     string
	AppliedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
