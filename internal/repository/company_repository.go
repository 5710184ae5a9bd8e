// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for companies.  A company is owned by
// exactly one user; ownership enforcement happens in the handler layer via
// the authorization helpers, so these methods fetch by id without filtering.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jobtrackhq/jobtrack/internal/model"
)

// CompanyRepo encapsulates all database queries related to companies.
type CompanyRepo struct {
	db *sql.DB
}

// NewCompanyRepo constructs a CompanyRepo with the provided DB handle.  This
// allows dependency injection of the database in tests and at startup.
func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// Create inserts a new company.  On success the ID field is populated with
// the auto-generated value and timestamps are read back so callers receive
// a fully populated record.
func (r *CompanyRepo) Create(ctx context.Context, c *model.Company) error {
	const qInsert = "INSERT INTO companies (user_id, name, website, location) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, c.UserID, c.Name, c.Website, c.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM companies WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a company by its ID regardless of owner.  It returns
// ErrCompanyNotFound if no row is found.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	const q = "SELECT id, user_id, name, website, location, created_at, updated_at FROM companies WHERE id = ?"
	var c model.Company
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Website, &c.Location, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByUser returns all companies for a specific user ordered by id.
func (r *CompanyRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Company, error) {
	const q = `SELECT id, user_id, name, website, location, created_at, updated_at
	           FROM companies WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Company
	for rows.Next() {
		c := new(model.Company)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Website, &c.Location, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable fields of a company.  It returns
// ErrCompanyNotFound when no row is affected.
func (r *CompanyRepo) Update(ctx context.Context, c *model.Company) error {
	const q = "UPDATE companies SET name = ?, website = ?, location = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Website, c.Location, c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// Delete removes a company row.
func (r *CompanyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
