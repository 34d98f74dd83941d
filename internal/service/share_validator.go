package service

import (
	"fmt"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
)

// ValidateProposedShares checks a batch of new invitations against the
// current accepted total. Pure; no side effects. Rules apply in order:
// per-share range, duplicate targets, then the total cap.
func ValidateProposedShares(existingAcceptedTotal int, proposed []dto.ProposedShare) error {
	seen := make(map[string]bool, len(proposed))
	sum := 0
	for _, p := range proposed {
		if p.RevenueSharePercent <= 0 || p.RevenueSharePercent > domain.MaxCoOrganizerShare {
			return &domain.ValidationError{
				Message: fmt.Sprintf("revenue share must be between 1 and %d percent", domain.MaxCoOrganizerShare),
			}
		}
		if seen[p.OrganizationID] {
			return &domain.DuplicateTargetError{OrganizationID: p.OrganizationID}
		}
		seen[p.OrganizationID] = true
		sum += p.RevenueSharePercent
	}

	attempted := existingAcceptedTotal + sum
	if attempted > domain.MaxTotalShare {
		return &domain.CapExceededError{Attempted: attempted, Allowed: domain.MaxTotalShare}
	}
	return nil
}

// ValidateAcceptedShare checks that accepting a pending invitation keeps the
// accepted total within the cap. Pending shares consume no cap until
// accepted, so acceptance is where the cap binds: concurrent invitations may
// each pass batch validation while pending, but only acceptances that fit
// under the cap may land.
func ValidateAcceptedShare(existingAcceptedTotal, share int) error {
	attempted := existingAcceptedTotal + share
	if attempted > domain.MaxTotalShare {
		return &domain.CapExceededError{Attempted: attempted, Allowed: domain.MaxTotalShare}
	}
	return nil
}

// ValidateAmendedShare checks a replacement share for an accepted agreement.
// existingAcceptedTotal must already exclude the agreement being amended.
// Zeroing a share is a removal, not an amendment.
func ValidateAmendedShare(existingAcceptedTotal, newShare int) error {
	if newShare <= 0 || newShare > domain.MaxCoOrganizerShare {
		return &domain.ValidationError{
			Message: fmt.Sprintf("amended share must be between 1 and %d percent; remove the co-organizer to zero it out", domain.MaxCoOrganizerShare),
		}
	}

	attempted := existingAcceptedTotal + newShare
	if attempted > domain.MaxTotalShare {
		return &domain.CapExceededError{Attempted: attempted, Allowed: domain.MaxTotalShare}
	}
	return nil
}
