package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civic_reporter/internal/metrics"
	"civic_reporter/internal/model"
	"civic_reporter/internal/repository"
	"civic_reporter/internal/session"
	"civic_reporter/internal/utils"
	"civic_reporter/internal/xerrors"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = xerrors.ErrInvalidCredentials
	ErrRateLimited        = xerrors.ErrRateLimited
)

// Sessions issues and resolves bearer tokens.
type Sessions interface {
	Issue(ctx context.Context, s *model.Session) (string, error)
	Resolve(ctx context.Context, token string) (*model.Session, error)
	Revoke(ctx context.Context, token string) error
}

// LoginLimiter throttles repeated staff login attempts.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, userID string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, userID string) error
}

// LoginResult is returned by every successful login.
type LoginResult struct {
	Token   string         `json:"token"`
	Session *model.Session `json:"session"`
}

// AuthService provides authentication related services
type AuthService interface {
	LoginCitizen(ctx context.Context, req model.CitizenLoginRequest, previousToken string) (*LoginResult, error)
	LoginStaff(ctx context.Context, role model.Role, req model.StaffLoginRequest, clientIP, previousToken string) (*LoginResult, error)
	Current(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
	CreateStaff(ctx context.Context, req model.CreateStaffRequest) (*model.StaffAccount, error)
}

type authService struct {
	citizenRepo repository.CitizenRepository
	staffRepo   repository.StaffRepository
	sessions    Sessions
	limiter     LoginLimiter
	ttl         time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. limiter and m may be nil.
func NewAuthService(
	citizenRepo repository.CitizenRepository,
	staffRepo repository.StaffRepository,
	sessions Sessions,
	limiter LoginLimiter,
	ttl time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		citizenRepo: citizenRepo,
		staffRepo:   staffRepo,
		sessions:    sessions,
		limiter:     limiter,
		ttl:         ttl,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ValidateCitizenLogin trims and checks a citizen's name and phone.
func ValidateCitizenLogin(req model.CitizenLoginRequest) (name, phone string, err error) {
	name = strings.TrimSpace(req.Name)
	phone = strings.TrimSpace(req.Phone)
	if name == "" {
		return "", "", xerrors.Validation("name is required")
	}
	if len(phone) != 10 {
		return "", "", xerrors.Validation("phone number must be exactly 10 digits")
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return "", "", xerrors.Validation("phone number must be exactly 10 digits")
		}
	}
	return name, phone, nil
}

// LoginCitizen upserts the citizen keyed by phone and starts a session.
func (s *authService) LoginCitizen(ctx context.Context, req model.CitizenLoginRequest, previousToken string) (*LoginResult, error) {
	name, phone, err := ValidateCitizenLogin(req)
	if err != nil {
		s.metrics.Login(string(model.RoleCitizen), "invalid")
		return nil, err
	}

	citizen, err := s.citizenRepo.UpsertByPhone(ctx, name, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert citizen: %w", err)
	}

	res, err := s.start(ctx, model.NewCitizenSession(session.NewID(), citizen, s.now(), s.ttl), previousToken)
	if err != nil {
		return nil, err
	}
	s.metrics.Login(string(model.RoleCitizen), "success")
	return res, nil
}

// LoginStaff checks an admin or municipality user's password.
func (s *authService) LoginStaff(ctx context.Context, role model.Role, req model.StaffLoginRequest, clientIP, previousToken string) (*LoginResult, error) {
	if !role.IsStaff() {
		return nil, xerrors.Validation("role %q cannot log in with a password", role)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Secret == "" {
		s.metrics.Login(string(role), "invalid")
		return nil, xerrors.Validation("user id and password are required")
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.CheckLoginAttempt(ctx, clientIP, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check login attempts: %w", xerrors.Wrap(xerrors.ErrBackendUnavailable, err))
		}
		if !allowed {
			s.metrics.Login(string(role), "rate_limited")
			s.logger.Warn("staff login rate limited", zap.String("user_id", userID), zap.String("ip", clientIP))
			return nil, ErrRateLimited
		}
	}

	account, err := s.staffRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error finding staff account: %w", err)
	}
	if account == nil || account.Role != role || !utils.CheckPasswordHash(req.Secret, account.PasswordHash) {
		s.metrics.Login(string(role), "failure")
		return nil, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.ResetLoginAttempts(ctx, clientIP, userID); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.String("user_id", userID), zap.Error(err))
		}
	}

	res, err := s.start(ctx, model.NewStaffSession(session.NewID(), account, s.now(), s.ttl), previousToken)
	if err != nil {
		return nil, err
	}
	s.metrics.Login(string(role), "success")
	return res, nil
}

// start revokes the caller's previous session, if any, then issues a new one.
func (s *authService) start(ctx context.Context, sess *model.Session, previousToken string) (*LoginResult, error) {
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("built invalid session: %w", err)
	}
	if previousToken != "" {
		if err := s.sessions.Revoke(ctx, previousToken); err != nil {
			return nil, fmt.Errorf("failed to revoke previous session: %w", err)
		}
	}

	token, err := s.sessions.Issue(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	s.logger.Info("session started",
		zap.String("role", string(sess.Role)),
		zap.Int64("identity_id", sess.IdentityID),
	)
	return &LoginResult{Token: token, Session: sess}, nil
}

// Current returns the session behind token, or nil.
func (s *authService) Current(ctx context.Context, token string) (*model.Session, error) {
	return s.sessions.Resolve(ctx, token)
}

// Logout ends the session behind token. It never fails for unknown tokens.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// CreateStaff provisions an admin or municipality account.
func (s *authService) CreateStaff(ctx context.Context, req model.CreateStaffRequest) (*model.StaffAccount, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, xerrors.Validation("user id is required")
	}
	if len(req.Password) < 8 {
		return nil, xerrors.Validation("password must be at least 8 characters")
	}

	account := &model.StaffAccount{UserID: userID, Role: req.Role}
	switch req.Role {
	case model.RoleAdmin:
		if req.Municipality != "" {
			return nil, xerrors.Validation("admin accounts have no municipality")
		}
	case model.RoleMunicipality:
		if !model.IsMunicipality(req.Municipality) {
			return nil, xerrors.Validation("unknown municipality %q", req.Municipality)
		}
		m := req.Municipality
		account.Municipality = &m
	default:
		return nil, xerrors.Validation("role must be admin or municipality")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = hashedPassword

	if err := s.staffRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create staff account in repository: %w", err)
	}
	s.logger.Info("staff account created", zap.String("user_id", userID), zap.String("role", string(req.Role)))
	return account, nil
}
