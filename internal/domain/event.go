package domain

import (
	"math"
	"time"

	"github.com/novatix/novatix-backend/pkg/money"
)

// Revenue sharing constraints
const (
	// MaxCoOrganizerShare is the largest share a single co-organizer may hold
	MaxCoOrganizerShare = 50
	// MaxTotalShare caps the sum of accepted plus proposed shares so the
	// primary organizer always retains at least 20% of net revenue
	MaxTotalShare = 80
	// MessageMaxLength bounds the free-text invitation message
	MessageMaxLength = 500
)

// AgreementStatus represents the lifecycle state of a co-organizer agreement
type AgreementStatus string

const (
	AgreementStatusPending  AgreementStatus = "pending"
	AgreementStatusAccepted AgreementStatus = "accepted"
	AgreementStatusDeclined AgreementStatus = "declined"
)

// validAgreementTransitions defines allowed status transitions.
// Key is current status, value is list of allowed next statuses.
var validAgreementTransitions = map[AgreementStatus][]AgreementStatus{
	AgreementStatusPending:  {AgreementStatusAccepted, AgreementStatusDeclined},
	AgreementStatusAccepted: {}, // Terminal state
	AgreementStatusDeclined: {}, // Terminal state
}

// IsTerminal returns true if the status is a terminal status
func (s AgreementStatus) IsTerminal() bool {
	return s == AgreementStatusAccepted || s == AgreementStatusDeclined
}

// IsValid returns true if the status is a valid agreement status
func (s AgreementStatus) IsValid() bool {
	_, exists := validAgreementTransitions[s]
	return exists
}

// CanTransitionTo returns true if transition to the target status is allowed
func (s AgreementStatus) CanTransitionTo(target AgreementStatus) bool {
	allowed, exists := validAgreementTransitions[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// CoOrganizerAgreement represents one organization's participation in an
// event's revenue share. Declined agreements are kept for audit but
// contribute zero to every revenue computation.
type CoOrganizerAgreement struct {
	OrganizationID      string          `json:"organization_id"`
	RevenueSharePercent int             `json:"revenue_share_percent"`
	Status              AgreementStatus `json:"status"`
	InvitedAt           time.Time       `json:"invited_at"`
	RespondedAt         *time.Time      `json:"responded_at,omitempty"`
	Message             string          `json:"message,omitempty"`
}

// Event represents an event in the system (the subset relevant to revenue
// sharing; ticket inventory lives in its own service)
type Event struct {
	ID                 string                 `json:"id"`
	TenantID           string                 `json:"tenant_id"`
	Name               string                 `json:"name"`
	Slug               string                 `json:"slug"`
	PrimaryOrganizerID string                 `json:"primary_organizer_id"`
	Status             string                 `json:"status"` // draft, published, cancelled, completed
	StartDate          time.Time              `json:"start_date"`
	TicketsSold        int                    `json:"tickets_sold"`
	TotalRevenue       money.Money            `json:"total_revenue"`
	PlatformFeeRate    float64                `json:"platform_fee_rate"` // fraction, e.g. 0.08
	CoOrganizers       []CoOrganizerAgreement `json:"co_organizers"`
	Version            int64                  `json:"version"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// EventStatus constants
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// FeeBps returns the platform fee rate as basis points for integer money math
func (e *Event) FeeBps() int64 {
	return int64(math.Round(e.PlatformFeeRate * 10000))
}

// AcceptedShareTotal returns the sum of revenue share percents over
// agreements in the accepted state
func (e *Event) AcceptedShareTotal() int {
	total := 0
	for _, a := range e.CoOrganizers {
		if a.Status == AgreementStatusAccepted {
			total += a.RevenueSharePercent
		}
	}
	return total
}

// Agreement returns a pointer to the agreement for the given organization,
// or nil if the organization is not a co-organizer
func (e *Event) Agreement(organizationID string) *CoOrganizerAgreement {
	for i := range e.CoOrganizers {
		if e.CoOrganizers[i].OrganizationID == organizationID {
			return &e.CoOrganizers[i]
		}
	}
	return nil
}

// HasCoOrganizer returns true if the organization already has an agreement
func (e *Event) HasCoOrganizer(organizationID string) bool {
	return e.Agreement(organizationID) != nil
}

// RemoveAgreement deletes the agreement for the given organization and
// returns true if one was removed
func (e *Event) RemoveAgreement(organizationID string) bool {
	for i := range e.CoOrganizers {
		if e.CoOrganizers[i].OrganizationID == organizationID {
			e.CoOrganizers = append(e.CoOrganizers[:i], e.CoOrganizers[i+1:]...)
			return true
		}
	}
	return false
}

// SharesFrozen returns true once any ticket has sold; attributed revenue
// must not retroactively shift
func (e *Event) SharesFrozen() bool {
	return e.TicketsSold > 0
}

// HasStarted returns true if the event start date has passed
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartDate)
}
