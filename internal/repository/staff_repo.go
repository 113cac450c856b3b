package repository

import (
	"context"
	"errors"
	"time"

	"civic_reporter/internal/model"

	"github.com/jackc/pgx/v5"
)

// StaffRepository defines operations for admin and municipality accounts
type StaffRepository interface {
	Create(ctx context.Context, account *model.StaffAccount) error
	FindByUserID(ctx context.Context, userID string) (*model.StaffAccount, error)
}

type staffRepository struct {
	base
}

// NewStaffRepository creates a new StaffRepository
func NewStaffRepository(db DB, timeout time.Duration) StaffRepository {
	return &staffRepository{base: newBase(db, timeout)}
}

// Create inserts a new staff account
func (r *staffRepository) Create(ctx context.Context, a *model.StaffAccount) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql := `INSERT INTO staff_accounts (user_id, role, password_hash, municipality)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql, a.UserID, string(a.Role), a.PasswordHash, a.Municipality).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return classify("failed to create staff account", err)
	}
	return nil
}

// FindByUserID retrieves a staff account by its login id
func (r *staffRepository) FindByUserID(ctx context.Context, userID string) (*model.StaffAccount, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	a := &model.StaffAccount{}
	var role string
	sql := `SELECT id, user_id, role, password_hash, municipality, created_at FROM staff_accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, sql, userID).Scan(&a.ID, &a.UserID, &role, &a.PasswordHash, &a.Municipality, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("failed to find staff account", err)
	}
	a.Role = model.Role(role)
	return a, nil
}
