package service

import (
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
)

// Participant roles in a revenue split
const (
	RoleOrganizer   = "organizer"
	RoleCoOrganizer = "co_organizer"
)

// ComputeRevenueSplit derives the full revenue breakdown for an event.
// Pure function over the event; never a source of truth.
//
// The platform fee comes off gross revenue first; every percentage share is
// then taken from the remaining pool. Integer division truncates each
// co-organizer amount, and the organizer absorbs the rounding remainder so
// the parts always sum to exactly the net pool.
func ComputeRevenueSplit(event *domain.Event) *dto.RevenueSplitResponse {
	gross := event.TotalRevenue
	fee := gross.BasisPointsShare(event.FeeBps())
	net := gross.Subtract(fee)

	parts := make([]dto.SplitPart, 0, len(event.CoOrganizers)+1)
	distributed := int64(0)
	acceptedTotal := 0
	for _, a := range event.CoOrganizers {
		if a.Status != domain.AgreementStatusAccepted {
			continue
		}
		amount := net.PercentShare(int64(a.RevenueSharePercent))
		parts = append(parts, dto.SplitPart{
			OrganizationID: a.OrganizationID,
			SharePercent:   a.RevenueSharePercent,
			Amount:         amount.Amount,
			Role:           RoleCoOrganizer,
		})
		distributed += amount.Amount
		acceptedTotal += a.RevenueSharePercent
	}

	organizer := dto.SplitPart{
		OrganizationID: event.PrimaryOrganizerID,
		SharePercent:   100 - acceptedTotal,
		Amount:         net.Amount - distributed,
		Role:           RoleOrganizer,
	}
	parts = append([]dto.SplitPart{organizer}, parts...)

	return &dto.RevenueSplitResponse{
		EventID:      event.ID,
		Currency:     gross.Currency,
		GrossRevenue: gross.Amount,
		PlatformFee:  fee.Amount,
		NetRevenue:   net.Amount,
		Parts:        parts,
	}
}
