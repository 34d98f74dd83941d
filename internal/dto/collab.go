package dto

import (
	"fmt"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

// ProposedShare is one organization's proposed revenue share within an
// invitation batch
type ProposedShare struct {
	OrganizationID      string `json:"organization_id" binding:"required"`
	RevenueSharePercent int    `json:"revenue_share_percent" binding:"required"`
	Message             string `json:"message" binding:"max=500"`
}

// ProposeSharesRequest represents a batch of co-organizer invitations
type ProposeSharesRequest struct {
	Shares []ProposedShare `json:"shares" binding:"required"`
}

// Validate validates the ProposeSharesRequest
func (r *ProposeSharesRequest) Validate() (bool, string) {
	if len(r.Shares) == 0 {
		return false, "At least one proposed share is required"
	}
	seen := make(map[string]bool, len(r.Shares))
	for _, s := range r.Shares {
		if s.OrganizationID == "" {
			return false, "Organization ID is required for every proposed share"
		}
		if seen[s.OrganizationID] {
			return false, fmt.Sprintf("Organization %s appears more than once", s.OrganizationID)
		}
		seen[s.OrganizationID] = true
		if s.RevenueSharePercent <= 0 || s.RevenueSharePercent > domain.MaxCoOrganizerShare {
			return false, fmt.Sprintf("Revenue share must be between 1 and %d percent", domain.MaxCoOrganizerShare)
		}
		if len(s.Message) > domain.MessageMaxLength {
			return false, fmt.Sprintf("Message must not exceed %d characters", domain.MessageMaxLength)
		}
	}
	return true, ""
}

// RespondRequest represents a co-organizer's answer to a pending invitation
type RespondRequest struct {
	Accept bool `json:"accept"`
}

// AmendShareRequest represents the primary organizer adjusting a share
type AmendShareRequest struct {
	RevenueSharePercent int `json:"revenue_share_percent" binding:"required"`
}

// Validate validates the AmendShareRequest
func (r *AmendShareRequest) Validate() (bool, string) {
	if r.RevenueSharePercent < 0 || r.RevenueSharePercent > domain.MaxCoOrganizerShare {
		return false, fmt.Sprintf("Revenue share must be between 0 and %d percent", domain.MaxCoOrganizerShare)
	}
	return true, ""
}

// CoOrganizerResponse represents one agreement in API responses
type CoOrganizerResponse struct {
	OrganizationID      string     `json:"organization_id"`
	RevenueSharePercent int        `json:"revenue_share_percent"`
	Status              string     `json:"status"`
	InvitedAt           time.Time  `json:"invited_at"`
	RespondedAt         *time.Time `json:"responded_at,omitempty"`
	Message             string     `json:"message,omitempty"`
}

// CoOrganizerListResponse lists an event's agreements
type CoOrganizerListResponse struct {
	EventID      string                `json:"event_id"`
	CoOrganizers []CoOrganizerResponse `json:"co_organizers"`
	TotalShare   int                   `json:"total_accepted_share"`
}

// SplitPart is one participant's cut of the net revenue pool
type SplitPart struct {
	OrganizationID string `json:"organization_id"`
	SharePercent   int    `json:"share_percent"`
	Amount         int64  `json:"amount"`
	Role           string `json:"role"` // organizer or co_organizer
}

// RevenueSplitResponse is the full revenue breakdown for an event
type RevenueSplitResponse struct {
	EventID      string      `json:"event_id"`
	Currency     string      `json:"currency"`
	GrossRevenue int64       `json:"gross_revenue"`
	PlatformFee  int64       `json:"platform_fee"`
	NetRevenue   int64       `json:"net_revenue"`
	Parts        []SplitPart `json:"parts"`
}

// NewCoOrganizerResponse converts a domain agreement to its API shape
func NewCoOrganizerResponse(a domain.CoOrganizerAgreement) CoOrganizerResponse {
	return CoOrganizerResponse{
		OrganizationID:      a.OrganizationID,
		RevenueSharePercent: a.RevenueSharePercent,
		Status:              string(a.Status),
		InvitedAt:           a.InvitedAt,
		RespondedAt:         a.RespondedAt,
		Message:             a.Message,
	}
}

// NewCoOrganizerListResponse builds the list response for an event
func NewCoOrganizerListResponse(event *domain.Event) *CoOrganizerListResponse {
	out := &CoOrganizerListResponse{
		EventID:      event.ID,
		CoOrganizers: make([]CoOrganizerResponse, 0, len(event.CoOrganizers)),
		TotalShare:   event.AcceptedShareTotal(),
	}
	for _, a := range event.CoOrganizers {
		out.CoOrganizers = append(out.CoOrganizers, NewCoOrganizerResponse(a))
	}
	return out
}
