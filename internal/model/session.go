package model

import (
	"errors"
	"fmt"
	"time"
)

// SessionSchemaVersion is bumped whenever the persisted Session layout changes.
const SessionSchemaVersion = 1

// Session is the server-held proof of identity and role. Role is the tag;
// Municipality is only set for RoleMunicipality.
type Session struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	IdentityID    int64     `json:"identity_id"`
	DisplayName   string    `json:"display_name"`
	SecondaryKey  string    `json:"secondary_key"` // phone for citizens, user id for staff
	Municipality  string    `json:"municipality,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	SchemaVersion int       `json:"schema_version"`
}

// Validate checks that the fields required by the session's role are set.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is empty")
	}
	if s.SchemaVersion != SessionSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d", s.SchemaVersion)
	}
	switch s.Role {
	case RoleCitizen:
		if s.SecondaryKey == "" {
			return errors.New("citizen session without phone")
		}
		if s.Municipality != "" {
			return errors.New("citizen session must not carry a municipality")
		}
	case RoleAdmin:
		if s.SecondaryKey == "" {
			return errors.New("admin session without user id")
		}
		if s.Municipality != "" {
			return errors.New("admin session must not carry a municipality")
		}
	case RoleMunicipality:
		if s.SecondaryKey == "" {
			return errors.New("municipality session without user id")
		}
		if !IsMunicipality(s.Municipality) {
			return fmt.Errorf("municipality session with unknown municipality %q", s.Municipality)
		}
	default:
		return fmt.Errorf("unknown session role %q", s.Role)
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NewCitizenSession builds the session for a logged-in citizen.
func NewCitizenSession(id string, c *Citizen, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:            id,
		Role:          RoleCitizen,
		IdentityID:    c.ID,
		DisplayName:   c.Name,
		SecondaryKey:  c.Phone,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		SchemaVersion: SessionSchemaVersion,
	}
}

// NewStaffSession builds the session for an admin or municipality account.
func NewStaffSession(id string, a *StaffAccount, now time.Time, ttl time.Duration) *Session {
	s := &Session{
		ID:            id,
		Role:          a.Role,
		IdentityID:    a.ID,
		DisplayName:   a.UserID,
		SecondaryKey:  a.UserID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		SchemaVersion: SessionSchemaVersion,
	}
	if a.Role == RoleMunicipality && a.Municipality != nil {
		s.Municipality = *a.Municipality
	}
	return s
}
