package repository

import (
	"context"
	"time"

	"civic_reporter/internal/model"
)

// CitizenRepository defines operations for citizen identities
type CitizenRepository interface {
	UpsertByPhone(ctx context.Context, name, phone string) (*model.Citizen, error)
}

type citizenRepository struct {
	base
}

// NewCitizenRepository creates a new CitizenRepository
func NewCitizenRepository(db DB, timeout time.Duration) CitizenRepository {
	return &citizenRepository{base: newBase(db, timeout)}
}

// UpsertByPhone creates the citizen keyed by phone, or renames the existing one.
func (r *citizenRepository) UpsertByPhone(ctx context.Context, name, phone string) (*model.Citizen, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	c := &model.Citizen{}
	sql := `INSERT INTO citizens (name, phone) VALUES ($1, $2)
            ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
            RETURNING id, name, phone, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, name, phone).Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, classify("failed to upsert citizen", err)
	}
	return c, nil
}
