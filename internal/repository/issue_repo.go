package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic_reporter/internal/model"
	"civic_reporter/internal/xerrors"

	"github.com/jackc/pgx/v5"
)

// IssueRepository defines operations for issue data
type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	FindByID(ctx context.Context, id int64) (*model.Issue, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]model.Issue, error)
	FindAll(ctx context.Context, filters model.IssueFilters) ([]model.Issue, error)
	UpdateStatus(ctx context.Context, id int64, expectedVersion int, change model.StatusChange) (*model.Issue, error)
	Stats(ctx context.Context, municipality *string) (*model.DashboardStats, error)
}

type issueRepository struct {
	base
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db DB, timeout time.Duration) IssueRepository {
	return &issueRepository{base: newBase(db, timeout)}
}

const issueSelect = `SELECT i.id, i.owner_id, c.name, i.description, i.status, i.category, i.priority, i.spam_score,
            i.municipality, i.address, i.latitude, i.longitude, i.images, i.version, i.created_at, i.updated_at
            FROM issues i JOIN citizens c ON c.id = i.owner_id`

const historyInsert = `INSERT INTO issue_status_history (issue_id, status, note, changed_by, changed_by_role, changed_at)
            VALUES ($1, $2, $3, $4, $5, $6)`

func scanIssue(row pgx.Row, i *model.Issue) error {
	var status, priority string
	if err := row.Scan(
		&i.ID, &i.OwnerID, &i.OwnerName, &i.Description, &status, &i.Category, &priority, &i.SpamScore,
		&i.Municipality, &i.Location.Address, &i.Location.Latitude, &i.Location.Longitude,
		&i.Images, &i.Version, &i.CreatedAt, &i.UpdatedAt,
	); err != nil {
		return err
	}
	i.Status = model.Status(status)
	i.Priority = model.Priority(priority)
	if i.Images == nil {
		i.Images = []string{}
	}
	return nil
}

// Create inserts a new issue together with its initial history entry
func (r *issueRepository) Create(ctx context.Context, i *model.Issue) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if len(i.StatusHistory) != 1 {
		return fmt.Errorf("new issue must carry exactly one history entry, got %d", len(i.StatusHistory))
	}
	images := i.Images
	if images == nil {
		images = []string{}
	}

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		sql := `INSERT INTO issues (owner_id, description, status, category, priority, spam_score, municipality, address, latitude, longitude, images)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, version, created_at, updated_at`
		err := tx.QueryRow(ctx, sql,
			i.OwnerID, i.Description, string(i.Status), i.Category, string(i.Priority), i.SpamScore, i.Municipality,
			i.Location.Address, i.Location.Latitude, i.Location.Longitude, images,
		).Scan(&i.ID, &i.Version, &i.CreatedAt, &i.UpdatedAt)
		if err != nil {
			return err
		}
		h := &i.StatusHistory[0]
		h.ChangedAt = i.CreatedAt
		_, err = tx.Exec(ctx, historyInsert, i.ID, string(h.Status), h.Note, h.ChangedBy, string(h.ChangedByRole), h.ChangedAt)
		return err
	})
	if err != nil {
		return classify("failed to create issue", err)
	}
	i.Images = images
	return nil
}

// FindByID retrieves an issue and its full status history
func (r *issueRepository) FindByID(ctx context.Context, id int64) (*model.Issue, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	i := &model.Issue{}
	if err := scanIssue(r.db.QueryRow(ctx, issueSelect+` WHERE i.id = $1`, id), i); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, classify("failed to find issue by ID", err)
	}

	sql := `SELECT status, note, changed_by, changed_by_role, changed_at
            FROM issue_status_history WHERE issue_id = $1 ORDER BY changed_at ASC, id ASC`
	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return nil, classify("failed to query issue history", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h model.StatusChange
		var status, role string
		if err := rows.Scan(&status, &h.Note, &h.ChangedBy, &role, &h.ChangedAt); err != nil {
			return nil, classify("failed to scan history row", err)
		}
		h.Status = model.Status(status)
		h.ChangedByRole = model.Role(role)
		i.StatusHistory = append(i.StatusHistory, h)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("error iterating history rows", err)
	}
	return i, nil
}

// FindByOwner retrieves the issues a citizen reported, newest first
func (r *issueRepository) FindByOwner(ctx context.Context, ownerID int64) ([]model.Issue, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.queryIssues(ctx, issueSelect+` WHERE i.owner_id = $1 ORDER BY i.created_at DESC, i.id DESC`, ownerID)
}

// FindAll retrieves issues matching every given filter, newest first
func (r *issueRepository) FindAll(ctx context.Context, filters model.IssueFilters) ([]model.Issue, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var queryBuilder strings.Builder
	queryBuilder.WriteString(issueSelect)

	args := []any{}
	argCount := 1
	var conditions []string

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argCount))
		args = append(args, string(*filters.Status))
		argCount++
	}
	if filters.Municipality != nil && *filters.Municipality != "" {
		conditions = append(conditions, fmt.Sprintf("i.municipality = $%d", argCount))
		args = append(args, *filters.Municipality)
		argCount++
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(i.description ILIKE $%d OR i.category ILIKE $%d OR c.name ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+escapeLike(strings.TrimSpace(*filters.Search))+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY i.created_at DESC, i.id DESC")

	return r.queryIssues(ctx, queryBuilder.String(), args...)
}

func (r *issueRepository) queryIssues(ctx context.Context, sql string, args ...any) ([]model.Issue, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("failed to query issues", err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		var i model.Issue
		if err := scanIssue(rows, &i); err != nil {
			return nil, classify("failed to scan issue row", err)
		}
		issues = append(issues, i)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("error iterating issue rows", err)
	}
	return issues, nil
}

// UpdateStatus sets the issue status and appends change to its history in a
// single transaction. The write only applies if the stored version still
// equals expectedVersion.
func (r *issueRepository) UpdateStatus(ctx context.Context, id int64, expectedVersion int, change model.StatusChange) (*model.Issue, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var version int
	var updatedAt time.Time
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		sql := `UPDATE issues SET status = $1, version = version + 1, updated_at = NOW()
                WHERE id = $2 AND version = $3 RETURNING version, updated_at`
		err := tx.QueryRow(ctx, sql, string(change.Status), id, expectedVersion).Scan(&version, &updatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return xerrors.ErrStaleVersion
			}
			return err
		}
		_, err = tx.Exec(ctx, historyInsert, id, string(change.Status), change.Note, change.ChangedBy, string(change.ChangedByRole), updatedAt)
		return err
	})
	if err != nil {
		return nil, classify("failed to update issue status", err)
	}

	return r.FindByID(ctx, id)
}

// Stats counts issues per status, optionally scoped to one municipality
func (r *issueRepository) Stats(ctx context.Context, municipality *string) (*model.DashboardStats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql := `SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'reported'),
            COUNT(*) FILTER (WHERE status = 'in-progress'),
            COUNT(*) FILTER (WHERE status = 'resolved'),
            COUNT(*) FILTER (WHERE status = 'spam')
            FROM issues`
	args := []any{}
	if municipality != nil {
		sql += ` WHERE municipality = $1`
		args = append(args, *municipality)
	}

	s := &model.DashboardStats{}
	err := r.db.QueryRow(ctx, sql, args...).Scan(&s.TotalIssues, &s.Reported, &s.InProgress, &s.Resolved, &s.SpamDetected)
	if err != nil {
		return nil, classify("failed to get issue stats", err)
	}
	return s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
