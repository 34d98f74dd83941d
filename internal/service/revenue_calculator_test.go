package service

import (
	"testing"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/pkg/money"
)

func splitEvent(revenue int64, feeRate float64, acceptedShares ...int) *domain.Event {
	event := &domain.Event{
		ID:                 "evt-1",
		PrimaryOrganizerID: "org-primary",
		TotalRevenue:       money.THB(revenue),
		PlatformFeeRate:    feeRate,
	}
	for i, share := range acceptedShares {
		event.CoOrganizers = append(event.CoOrganizers, domain.CoOrganizerAgreement{
			OrganizationID:      "org-" + string(rune('a'+i)),
			RevenueSharePercent: share,
			Status:              domain.AgreementStatusAccepted,
			InvitedAt:           time.Now(),
		})
	}
	return event
}

func TestComputeRevenueSplit_SingleCoOrganizer(t *testing.T) {
	// 1000.00 gross at 8% fee with one 30% co-organizer
	split := ComputeRevenueSplit(splitEvent(100000, 0.08, 30))

	if split.PlatformFee != 8000 {
		t.Errorf("PlatformFee = %d, want 8000", split.PlatformFee)
	}
	if split.NetRevenue != 92000 {
		t.Errorf("NetRevenue = %d, want 92000", split.NetRevenue)
	}
	if len(split.Parts) != 2 {
		t.Fatalf("len(Parts) = %d, want 2", len(split.Parts))
	}

	organizer := split.Parts[0]
	if organizer.Role != RoleOrganizer {
		t.Errorf("Parts[0].Role = %s, want %s", organizer.Role, RoleOrganizer)
	}
	if organizer.Amount != 64400 {
		t.Errorf("organizer amount = %d, want 64400", organizer.Amount)
	}
	if organizer.SharePercent != 70 {
		t.Errorf("organizer share = %d, want 70", organizer.SharePercent)
	}

	coOrganizer := split.Parts[1]
	if coOrganizer.Amount != 27600 {
		t.Errorf("co-organizer amount = %d, want 27600", coOrganizer.Amount)
	}
}

func TestComputeRevenueSplit_NoCoOrganizers(t *testing.T) {
	split := ComputeRevenueSplit(splitEvent(100000, 0.08))

	if len(split.Parts) != 1 {
		t.Fatalf("len(Parts) = %d, want 1", len(split.Parts))
	}
	if split.Parts[0].Amount != split.NetRevenue {
		t.Errorf("organizer amount = %d, want full net %d", split.Parts[0].Amount, split.NetRevenue)
	}
	if split.Parts[0].SharePercent != 100 {
		t.Errorf("organizer share = %d, want 100", split.Parts[0].SharePercent)
	}
}

func TestComputeRevenueSplit_DeclinedSharesContributeZero(t *testing.T) {
	event := splitEvent(100000, 0.08, 30)
	event.CoOrganizers = append(event.CoOrganizers, domain.CoOrganizerAgreement{
		OrganizationID:      "org-declined",
		RevenueSharePercent: 40,
		Status:              domain.AgreementStatusDeclined,
	}, domain.CoOrganizerAgreement{
		OrganizationID:      "org-pending",
		RevenueSharePercent: 20,
		Status:              domain.AgreementStatusPending,
	})

	split := ComputeRevenueSplit(event)
	if len(split.Parts) != 2 {
		t.Fatalf("len(Parts) = %d, want 2 (declined and pending excluded)", len(split.Parts))
	}
	if split.Parts[0].Amount != 64400 {
		t.Errorf("organizer amount = %d, want 64400", split.Parts[0].Amount)
	}
}

func TestComputeRevenueSplit_PartsSumToNet(t *testing.T) {
	cases := []struct {
		name   string
		gross  int64
		fee    float64
		shares []int
	}{
		{"no shares", 99999, 0.08, nil},
		{"one share with truncation", 99999, 0.08, []int{33}},
		{"three shares at cap", 12345, 0.05, []int{50, 20, 10}},
		{"tiny pool", 7, 0.03, []int{33, 33}},
		{"zero revenue", 0, 0.08, []int{40}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := ComputeRevenueSplit(splitEvent(tc.gross, tc.fee, tc.shares...))

			sum := int64(0)
			for _, part := range split.Parts {
				sum += part.Amount
			}
			if sum != split.NetRevenue {
				t.Errorf("sum of parts = %d, want net %d", sum, split.NetRevenue)
			}
			if split.PlatformFee+split.NetRevenue != split.GrossRevenue {
				t.Errorf("fee %d + net %d != gross %d", split.PlatformFee, split.NetRevenue, split.GrossRevenue)
			}
		})
	}
}

func TestComputeRevenueSplit_RemainderGoesToOrganizer(t *testing.T) {
	// Net pool 100 with a 33% share: co-organizer gets 33, organizer 67
	split := ComputeRevenueSplit(splitEvent(100, 0, 33))

	if split.Parts[1].Amount != 33 {
		t.Errorf("co-organizer amount = %d, want 33", split.Parts[1].Amount)
	}
	if split.Parts[0].Amount != 67 {
		t.Errorf("organizer amount = %d, want 67", split.Parts[0].Amount)
	}
}
