package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"civic_reporter/internal/analysis"
	"civic_reporter/internal/geo"
	"civic_reporter/internal/metrics"
	"civic_reporter/internal/model"
	"civic_reporter/internal/repository"
	"civic_reporter/internal/storage"
	"civic_reporter/internal/xerrors"

	"go.uber.org/zap"
)

var (
	ErrIssueNotFound = xerrors.New(xerrors.KindNotFound, "issue not found")
	ErrForbidden     = xerrors.ErrForbidden
)

// IssueService defines operations for issues
type IssueService interface {
	CreateIssue(ctx context.Context, actor *model.Session, req model.CreateIssueRequest) (*model.Issue, error)
	ListForOwner(ctx context.Context, actor *model.Session) ([]model.Issue, error)
	GetIssue(ctx context.Context, actor *model.Session, id int64) (*model.Issue, error)

	// Staff methods
	ListAll(ctx context.Context, actor *model.Session, filters model.IssueFilters) ([]model.Issue, error)
	UpdateStatus(ctx context.Context, actor *model.Session, id int64, req model.UpdateStatusRequest) (*model.Issue, error)
	Stats(ctx context.Context, actor *model.Session) (*model.DashboardStats, error)
	ExportCSV(ctx context.Context, actor *model.Session, filters model.IssueFilters) (*bytes.Buffer, error)
}

// IssueServiceDeps collects the collaborators of the issue service.
// Geocoder and Metrics are optional.
type IssueServiceDeps struct {
	Repo     repository.IssueRepository
	Images   storage.ImageStore
	Analyzer analysis.Analyzer
	Resolver *geo.Resolver
	Geocoder geo.Geocoder
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Timeout  time.Duration
}

type issueService struct {
	IssueServiceDeps
}

// NewIssueService creates a new IssueService
func NewIssueService(deps IssueServiceDeps) IssueService {
	if deps.Timeout <= 0 {
		deps.Timeout = repository.DefaultTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Resolver == nil {
		deps.Resolver = geo.NewResolver(nil)
	}
	return &issueService{IssueServiceDeps: deps}
}

func (s *issueService) CreateIssue(ctx context.Context, actor *model.Session, req model.CreateIssueRequest) (*model.Issue, error) {
	if actor == nil || actor.Role != model.RoleCitizen {
		return nil, ErrForbidden
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, xerrors.Validation("please provide a description of the issue")
	}
	loc := req.Location
	if err := validateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		return nil, err
	}
	loc.Address = strings.TrimSpace(loc.Address)
	if loc.Address == "" && s.Geocoder != nil {
		gctx, cancel := context.WithTimeout(ctx, s.Timeout)
		addr, err := s.Geocoder.ReverseGeocode(gctx, loc.Latitude, loc.Longitude)
		cancel()
		if err != nil {
			s.Logger.Warn("reverse geocoding failed", zap.Error(err))
		}
		loc.Address = strings.TrimSpace(addr)
	}
	if loc.Address == "" {
		return nil, xerrors.Validation("location must include an address")
	}
	if err := storage.Validate(req.Images); err != nil {
		return nil, err
	}

	result := s.analyze(ctx, description)
	if c := strings.TrimSpace(req.Category); model.IsCategory(c) {
		result.Category = c
	}

	paths, err := s.Images.Save(req.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to store images: %w", err)
	}

	issue := &model.Issue{
		OwnerID:      actor.IdentityID,
		OwnerName:    actor.DisplayName,
		Description:  description,
		Status:       model.StatusReported,
		Category:     result.Category,
		Priority:     result.Priority,
		SpamScore:    result.SpamScore,
		Municipality: s.Resolver.Resolve(loc.Latitude, loc.Longitude),
		Location:     loc,
		Images:       paths,
		StatusHistory: []model.StatusChange{{
			Status:        model.StatusReported,
			ChangedBy:     actor.SecondaryKey,
			ChangedByRole: model.RoleCitizen,
		}},
	}

	if err := s.Repo.Create(ctx, issue); err != nil {
		s.Images.Remove(paths)
		return nil, fmt.Errorf("failed to create issue in repo: %w", err)
	}

	s.Metrics.IssueCreated(issue.Category)
	s.Logger.Info("issue reported",
		zap.Int64("issue_id", issue.ID),
		zap.Int64("owner_id", issue.OwnerID),
		zap.String("category", issue.Category),
		zap.Stringp("municipality", issue.Municipality),
	)
	return issue, nil
}

// analyze never fails; analyzer errors fall back to analysis.Default.
func (s *issueService) analyze(ctx context.Context, description string) model.Analysis {
	if s.Analyzer == nil {
		return analysis.Default
	}
	actx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	result, err := s.Analyzer.Analyze(actx, description)
	if err != nil {
		s.Logger.Warn("issue analysis failed, using defaults", zap.Error(err))
		return analysis.Default
	}
	if !model.IsCategory(result.Category) {
		result.Category = analysis.Default.Category
	}
	switch result.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		result.Priority = analysis.Default.Priority
	}
	result.SpamScore = math.Max(0, math.Min(1, result.SpamScore))
	return result
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return xerrors.Validation("latitude must be between -90 and 90")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return xerrors.Validation("longitude must be between -180 and 180")
	}
	return nil
}

func (s *issueService) ListForOwner(ctx context.Context, actor *model.Session) ([]model.Issue, error) {
	if actor == nil || actor.Role != model.RoleCitizen {
		return nil, ErrForbidden
	}
	issues, err := s.Repo.FindByOwner(ctx, actor.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner issues from repo: %w", err)
	}
	return issues, nil
}

func (s *issueService) GetIssue(ctx context.Context, actor *model.Session, id int64) (*model.Issue, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	issue, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find issue by ID: %w", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	if !canView(actor, issue) {
		return nil, ErrForbidden
	}
	return issue, nil
}

// canView decides issue visibility for every role.
func canView(actor *model.Session, issue *model.Issue) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleMunicipality:
		return issue.Municipality != nil && *issue.Municipality == actor.Municipality
	case model.RoleCitizen:
		return issue.OwnerID == actor.IdentityID
	default:
		return false
	}
}

// scopeFilters pins municipality staff to their own municipality.
func scopeFilters(actor *model.Session, filters model.IssueFilters) (model.IssueFilters, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return filters, xerrors.Validation("unknown status %q", *filters.Status)
	}
	if filters.Municipality != nil && !model.IsMunicipality(*filters.Municipality) {
		return filters, xerrors.Validation("unknown municipality %q", *filters.Municipality)
	}

	switch actor.Role {
	case model.RoleAdmin:
		return filters, nil
	case model.RoleMunicipality:
		m := actor.Municipality
		filters.Municipality = &m
		return filters, nil
	default:
		return filters, ErrForbidden
	}
}

func (s *issueService) ListAll(ctx context.Context, actor *model.Session, filters model.IssueFilters) ([]model.Issue, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	filters, err := scopeFilters(actor, filters)
	if err != nil {
		return nil, err
	}
	issues, err := s.Repo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get issues from repo: %w", err)
	}
	return issues, nil
}

func (s *issueService) UpdateStatus(ctx context.Context, actor *model.Session, id int64, req model.UpdateStatusRequest) (*model.Issue, error) {
	if actor == nil || !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	if !req.Status.Valid() {
		return nil, xerrors.Validation("unknown status %q", req.Status)
	}

	issue, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find issue for status update: %w", err)
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	if !canView(actor, issue) {
		return nil, ErrForbidden
	}

	expected := issue.Version
	if req.Version != nil {
		if *req.Version != issue.Version {
			return nil, xerrors.ErrStaleVersion
		}
		expected = *req.Version
	}
	if err := CheckTransition(issue.Status, req.Status); err != nil {
		return nil, err
	}

	var note *string
	if req.Note != nil {
		if n := strings.TrimSpace(*req.Note); n != "" {
			note = &n
		}
	}

	updated, err := s.Repo.UpdateStatus(ctx, id, expected, model.StatusChange{
		Status:        req.Status,
		Note:          note,
		ChangedBy:     actor.SecondaryKey,
		ChangedByRole: actor.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update issue status in repo: %w", err)
	}
	if updated == nil {
		return nil, ErrIssueNotFound
	}

	s.Metrics.StatusChanged(string(req.Status))
	s.Logger.Info("issue status changed",
		zap.Int64("issue_id", id),
		zap.String("from", string(issue.Status)),
		zap.String("to", string(req.Status)),
		zap.String("changed_by", actor.SecondaryKey),
	)
	return updated, nil
}

func (s *issueService) Stats(ctx context.Context, actor *model.Session) (*model.DashboardStats, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	var scope *string
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleMunicipality:
		m := actor.Municipality
		scope = &m
	default:
		return nil, ErrForbidden
	}

	stats, err := s.Repo.Stats(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *issueService) ExportCSV(ctx context.Context, actor *model.Session, filters model.IssueFilters) (*bytes.Buffer, error) {
	if actor == nil || actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	issues, err := s.ListAll(ctx, actor, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for CSV export: %w", err)
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	header := []string{"ID", "OwnerID", "OwnerName", "Description", "Status", "Category", "Priority", "SpamScore",
		"Municipality", "Address", "Latitude", "Longitude", "Images", "CreatedAt", "UpdatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, i := range issues {
		var municipality string
		if i.Municipality != nil {
			municipality = *i.Municipality
		}
		row := []string{
			strconv.FormatInt(i.ID, 10),
			strconv.FormatInt(i.OwnerID, 10),
			i.OwnerName,
			i.Description,
			string(i.Status),
			i.Category,
			string(i.Priority),
			strconv.FormatFloat(i.SpamScore, 'f', 2, 64),
			municipality,
			i.Location.Address,
			strconv.FormatFloat(i.Location.Latitude, 'f', 6, 64),
			strconv.FormatFloat(i.Location.Longitude, 'f', 6, 64),
			strings.Join(i.Images, ";"),
			i.CreatedAt.Format(time.RFC3339),
			i.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}
	return buffer, nil
}
