package model

import "time"

// Status is the resolution state of an issue.
type Status string

const (
	StatusReported   Status = "reported"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusSpam       Status = "spam"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReported, StatusInProgress, StatusResolved, StatusSpam:
		return true
	default:
		return false
	}
}

// Priority is the triage level assigned by the analyzer.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Issue categories offered on the report form.
const (
	CategoryRoads          = "Roads"
	CategoryWater          = "Water"
	CategoryElectricity    = "Electricity"
	CategoryStreetLighting = "Street Lighting"
	CategoryGarbage        = "Garbage"
	CategoryEnvironment    = "Environment"
	CategoryBuilding       = "Building"
	CategoryOther          = "Other"
)

var Categories = []string{
	CategoryRoads,
	CategoryWater,
	CategoryElectricity,
	CategoryStreetLighting,
	CategoryGarbage,
	CategoryEnvironment,
	CategoryBuilding,
	CategoryOther,
}

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Location is where the citizen captured the issue.
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StatusChange is one entry of an issue's status history.
type StatusChange struct {
	Status        Status    `json:"status"`
	Note          *string   `json:"note,omitempty"`
	ChangedBy     string    `json:"changed_by"`
	ChangedByRole Role      `json:"changed_by_role"`
	ChangedAt     time.Time `json:"changed_at"`
}

// Issue is a citizen-submitted civic complaint.
type Issue struct {
	ID            int64          `json:"id"`
	OwnerID       int64          `json:"owner_id"`
	OwnerName     string         `json:"owner_name"`
	Description   string         `json:"description"`
	Status        Status         `json:"status"`
	Category      string         `json:"category"`
	Priority      Priority       `json:"priority"`
	SpamScore     float64        `json:"spam_score"`
	Municipality  *string        `json:"municipality,omitempty"` // nil when no jurisdiction matched
	Location      Location       `json:"location"`
	Images        []string       `json:"images"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	StatusHistory []StatusChange `json:"status_history,omitempty"`
}

// ImageUpload is one image attached to a new issue.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CreateIssueRequest carries a citizen's submission.
type CreateIssueRequest struct {
	Description string
	Category    string // optional; chosen on the category page
	Location    Location
	Images      []ImageUpload
}

// UpdateStatusRequest is the body of the status endpoints.
type UpdateStatusRequest struct {
	Status  Status  `json:"status" binding:"required,oneof=reported in-progress resolved spam"`
	Note    *string `json:"note"`
	Version *int    `json:"version"` // expected current version; omitted means "whatever I just read"
}

// IssueFilters are conjunctive predicates for dashboard listings.
type IssueFilters struct {
	Status       *Status
	Municipality *string
	Search       *string
}

// Analysis is what the analyzer returns for a new issue.
type Analysis struct {
	Category  string   `json:"category"`
	Priority  Priority `json:"priority"`
	SpamScore float64  `json:"spam_score"`
}

// DashboardStats backs the admin and municipality dashboards.
type DashboardStats struct {
	TotalIssues  int64 `json:"total_issues"`
	Reported     int64 `json:"reported"`
	InProgress   int64 `json:"in_progress"`
	Resolved     int64 `json:"resolved"`
	SpamDetected int64 `json:"spam_detected"`
}
