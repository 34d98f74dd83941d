package service

import (
	"context"
	"errors"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/internal/events"
	"github.com/novatix/novatix-backend/internal/repository"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/telemetry"
	"go.uber.org/zap"
)

// CollabService defines the interface for co-organizer revenue sharing
// operations. Every mutation validates all preconditions before persisting;
// a rejected request leaves the event untouched.
type CollabService interface {
	// Invite proposes a batch of co-organizer agreements
	Invite(ctx context.Context, userID, eventID string, req *dto.ProposeSharesRequest) (*dto.CoOrganizerListResponse, error)
	// Respond answers a pending invitation on behalf of the target organization
	Respond(ctx context.Context, userID, eventID, organizationID string, req *dto.RespondRequest) (*dto.CoOrganizerResponse, error)
	// Amend adjusts an accepted agreement's share before tickets sell
	Amend(ctx context.Context, userID, eventID, organizationID string, req *dto.AmendShareRequest) (*dto.CoOrganizerResponse, error)
	// Remove deletes an agreement outright before the event starts
	Remove(ctx context.Context, userID, eventID, organizationID string) error
	// List returns an event's agreements and the accepted share total
	List(ctx context.Context, eventID string) (*dto.CoOrganizerListResponse, error)
	// ComputeSplit derives the revenue breakdown for an event
	ComputeSplit(ctx context.Context, eventID string) (*dto.RevenueSplitResponse, error)
}

// collabService implements CollabService
type collabService struct {
	eventRepo      repository.EventRepository
	membershipRepo repository.MembershipRepository
	publisher      events.Publisher
	log            *logger.Logger
	capRejections  *telemetry.Counter
}

// NewCollabService creates a new CollabService
func NewCollabService(
	eventRepo repository.EventRepository,
	membershipRepo repository.MembershipRepository,
	publisher events.Publisher,
	log *logger.Logger,
) CollabService {
	capRejections, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "revenue_share_cap_rejections_total",
		Description: "Share proposals rejected by the 80 percent cap",
		Unit:        "1",
	})
	if err != nil {
		log.Warn("failed to create cap rejection counter", zap.Error(err))
	}
	return &collabService{
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		publisher:      publisher,
		log:            log,
		capRejections:  capRejections,
	}
}

// Invite proposes a batch of co-organizer agreements
func (s *collabService) Invite(ctx context.Context, userID, eventID string, req *dto.ProposeSharesRequest) (*dto.CoOrganizerListResponse, error) {
	if valid, errMsg := req.Validate(); !valid {
		return nil, &domain.ValidationError{Message: errMsg}
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, userID, event.PrimaryOrganizerID); err != nil {
		return nil, err
	}

	for _, share := range req.Shares {
		if share.OrganizationID == event.PrimaryOrganizerID {
			return nil, &domain.ValidationError{Message: "the primary organizer cannot be invited as a co-organizer"}
		}
		if event.HasCoOrganizer(share.OrganizationID) {
			return nil, &domain.StateConflictError{
				Reason: "organization " + share.OrganizationID + " is already a co-organizer",
			}
		}
		org, err := s.membershipRepo.GetOrganization(ctx, share.OrganizationID)
		if err != nil {
			return nil, err
		}
		if org == nil {
			return nil, &domain.NotFoundError{Resource: "organization", ID: share.OrganizationID}
		}
	}

	if err := ValidateProposedShares(event.AcceptedShareTotal(), req.Shares); err != nil {
		var capErr *domain.CapExceededError
		if errors.As(err, &capErr) && s.capRejections != nil {
			s.capRejections.Inc(ctx)
		}
		return nil, err
	}

	now := time.Now()
	for _, share := range req.Shares {
		event.CoOrganizers = append(event.CoOrganizers, domain.CoOrganizerAgreement{
			OrganizationID:      share.OrganizationID,
			RevenueSharePercent: share.RevenueSharePercent,
			Status:              domain.AgreementStatusPending,
			InvitedAt:           now,
			Message:             share.Message,
		})
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	for _, share := range req.Shares {
		s.publisher.Publish(ctx, events.TopicCollabInvited, &events.CollabEvent{
			EventType:           "collab.invited",
			EventID:             event.ID,
			OrganizationID:      share.OrganizationID,
			RevenueSharePercent: share.RevenueSharePercent,
			Status:              string(domain.AgreementStatusPending),
			ActorUserID:         userID,
			Timestamp:           now,
		})
	}
	s.log.InfoContext(ctx, "co-organizers invited",
		zap.String("event_id", event.ID),
		zap.Int("count", len(req.Shares)),
	)

	return dto.NewCoOrganizerListResponse(event), nil
}

// Respond answers a pending invitation on behalf of the target organization
func (s *collabService) Respond(ctx context.Context, userID, eventID, organizationID string, req *dto.RespondRequest) (*dto.CoOrganizerResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// Admin capability over the target organization, not the primary organizer
	if err := s.requireAdmin(ctx, userID, organizationID); err != nil {
		return nil, err
	}

	agreement := event.Agreement(organizationID)
	if agreement == nil {
		return nil, &domain.NotFoundError{Resource: "agreement", ID: organizationID}
	}

	target := domain.AgreementStatusDeclined
	if req.Accept {
		target = domain.AgreementStatusAccepted
	}
	if !agreement.Status.CanTransitionTo(target) {
		return nil, &domain.StateConflictError{
			Reason: "invitation is not pending (current status: " + string(agreement.Status) + ")",
		}
	}

	// Pending shares consume no cap, so the cap binds here: an acceptance
	// that would push the accepted total past the cap is rejected and the
	// invitation stays pending
	if target == domain.AgreementStatusAccepted {
		if err := ValidateAcceptedShare(event.AcceptedShareTotal(), agreement.RevenueSharePercent); err != nil {
			if s.capRejections != nil {
				s.capRejections.Inc(ctx)
			}
			return nil, err
		}
	}

	now := time.Now()
	agreement.Status = target
	agreement.RespondedAt = &now

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TopicCollabResponded, &events.CollabEvent{
		EventType:           "collab.responded",
		EventID:             event.ID,
		OrganizationID:      organizationID,
		RevenueSharePercent: agreement.RevenueSharePercent,
		Status:              string(target),
		ActorUserID:         userID,
		Timestamp:           now,
	})
	s.log.InfoContext(ctx, "invitation answered",
		zap.String("event_id", event.ID),
		zap.String("organization_id", organizationID),
		zap.String("status", string(target)),
	)

	resp := dto.NewCoOrganizerResponse(*agreement)
	return &resp, nil
}

// Amend adjusts an accepted agreement's share before tickets sell
func (s *collabService) Amend(ctx context.Context, userID, eventID, organizationID string, req *dto.AmendShareRequest) (*dto.CoOrganizerResponse, error) {
	if valid, errMsg := req.Validate(); !valid {
		return nil, &domain.ValidationError{Message: errMsg}
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, userID, event.PrimaryOrganizerID); err != nil {
		return nil, err
	}

	agreement := event.Agreement(organizationID)
	if agreement == nil {
		return nil, &domain.NotFoundError{Resource: "agreement", ID: organizationID}
	}
	if agreement.Status != domain.AgreementStatusAccepted {
		return nil, &domain.StateConflictError{Reason: "only accepted agreements can be amended"}
	}
	if event.HasStarted(time.Now()) {
		return nil, &domain.StateConflictError{Reason: "event has already started"}
	}
	if event.SharesFrozen() {
		return nil, &domain.StateConflictError{Reason: "shares are frozen once tickets have sold"}
	}

	acceptedExcluding := event.AcceptedShareTotal() - agreement.RevenueSharePercent
	if err := ValidateAmendedShare(acceptedExcluding, req.RevenueSharePercent); err != nil {
		var capErr *domain.CapExceededError
		if errors.As(err, &capErr) && s.capRejections != nil {
			s.capRejections.Inc(ctx)
		}
		return nil, err
	}

	agreement.RevenueSharePercent = req.RevenueSharePercent

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TopicCollabAmended, &events.CollabEvent{
		EventType:           "collab.amended",
		EventID:             event.ID,
		OrganizationID:      organizationID,
		RevenueSharePercent: req.RevenueSharePercent,
		Status:              string(agreement.Status),
		ActorUserID:         userID,
		Timestamp:           time.Now(),
	})

	resp := dto.NewCoOrganizerResponse(*agreement)
	return &resp, nil
}

// Remove deletes an agreement outright before the event starts
func (s *collabService) Remove(ctx context.Context, userID, eventID, organizationID string) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if event.HasStarted(time.Now()) {
		return &domain.StateConflictError{Reason: "event has already started"}
	}

	// Either side of the agreement may remove it
	primaryErr := s.requireAdmin(ctx, userID, event.PrimaryOrganizerID)
	if primaryErr != nil {
		var authErr *domain.AuthorizationError
		if !errors.As(primaryErr, &authErr) {
			return primaryErr
		}
		if err := s.requireAdmin(ctx, userID, organizationID); err != nil {
			return err
		}
	}

	if !event.RemoveAgreement(organizationID) {
		return &domain.NotFoundError{Resource: "agreement", ID: organizationID}
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.TopicCollabRemoved, &events.CollabEvent{
		EventType:      "collab.removed",
		EventID:        event.ID,
		OrganizationID: organizationID,
		ActorUserID:    userID,
		Timestamp:      time.Now(),
	})
	s.log.InfoContext(ctx, "co-organizer removed",
		zap.String("event_id", event.ID),
		zap.String("organization_id", organizationID),
	)

	return nil
}

// List returns an event's agreements and the accepted share total
func (s *collabService) List(ctx context.Context, eventID string) (*dto.CoOrganizerListResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return dto.NewCoOrganizerListResponse(event), nil
}

// ComputeSplit derives the revenue breakdown for an event
func (s *collabService) ComputeSplit(ctx context.Context, eventID string) (*dto.RevenueSplitResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return ComputeRevenueSplit(event), nil
}

func (s *collabService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, &domain.NotFoundError{Resource: "event", ID: eventID}
	}
	return event, nil
}

func (s *collabService) requireAdmin(ctx context.Context, userID, organizationID string) error {
	isAdmin, err := s.membershipRepo.IsAdmin(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return &domain.AuthorizationError{UserID: userID, OrganizationID: organizationID}
	}
	return nil
}
