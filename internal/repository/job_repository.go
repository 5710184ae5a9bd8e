package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jobtrackhq/jobtrack/internal/model"
)

// JobRepo encapsulates all database queries related to job applications.
type JobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create inserts a new job application and reads back the generated
// timestamps so callers receive a fully populated record.
func (r *JobRepo) Create(ctx context.Context, j *model.Job) error {
	const qInsert = "INSERT INTO jobs (user_id, company_id, title, stage, notes, applied_at) VALUES (?, ?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, j.UserID, j.CompanyID, j.Title, j.Stage, j.Notes, j.AppliedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	j.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM jobs WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, j.ID).Scan(&j.CreatedAt, &j.UpdatedAt)
}

// GetByID fetches a job by its ID regardless of owner.
func (r *JobRepo) GetByID(ctx context.Context, id uint64) (*model.Job, error) {
	const q = "SELECT id, user_id, company_id, title, stage, notes, applied_at, created_at, updated_at FROM jobs WHERE id = ?"
	var (
		j         model.Job
		appliedAt sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&j.ID, &j.UserID, &j.CompanyID, &j.Title, &j.Stage, &j.Notes, &appliedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		j.AppliedAt = &t
	}
	return &j, nil
}

// ListByUser returns a user's job applications, optionally filtered by
// stage, ordered newest first.
func (r *JobRepo) ListByUser(ctx context.Context, userID uint64, stage string) ([]*model.Job, error) {
	q := "SELECT id, user_id, company_id, title, stage, notes, applied_at, created_at, updated_at FROM jobs WHERE user_id = ?"
	args := []any{userID}
	if stage != "" {
		q += " AND stage = ?"
		args = append(args, stage)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j := new(model.Job)
		var appliedAt sql.NullTime
		if err := rows.Scan(&j.ID, &j.UserID, &j.CompanyID, &j.Title, &j.Stage, &j.Notes, &appliedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if appliedAt.Valid {
			t := appliedAt.Time
			j.AppliedAt = &t
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable fields of a job application.
func (r *JobRepo) Update(ctx context.Context, j *model.Job) error {
	const q = "UPDATE jobs SET company_id = ?, title = ?, stage = ?, notes = ?, applied_at = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, j.CompanyID, j.Title, j.Stage, j.Notes, j.AppliedAt, j.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a job row.
func (r *JobRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}
