package service

import (
	"errors"
	"testing"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
)

func shares(percents ...int) []dto.ProposedShare {
	out := make([]dto.ProposedShare, 0, len(percents))
	for i, p := range percents {
		out = append(out, dto.ProposedShare{
			OrganizationID:      "org-" + string(rune('a'+i)),
			RevenueSharePercent: p,
		})
	}
	return out
}

func TestValidateProposedShares(t *testing.T) {
	tests := []struct {
		name     string
		existing int
		proposed []dto.ProposedShare
		wantErr  bool
	}{
		{"single share within cap", 0, shares(30), false},
		{"multiple shares at cap", 0, shares(50, 30), false},
		{"existing plus proposed at cap", 40, shares(40), false},
		{"exceeds cap", 60, shares(25), true},
		{"share above individual max", 0, shares(51), true},
		{"zero share", 0, shares(0), true},
		{"negative share", 0, shares(-10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProposedShares(tt.existing, tt.proposed)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProposedShares() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProposedShares_CapExceededDetail(t *testing.T) {
	err := ValidateProposedShares(60, shares(25))
	var capErr *domain.CapExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapExceededError, got %T", err)
	}
	if capErr.Attempted != 85 {
		t.Errorf("Attempted = %d, want 85", capErr.Attempted)
	}
	if capErr.Allowed != 80 {
		t.Errorf("Allowed = %d, want 80", capErr.Allowed)
	}
}

func TestValidateProposedShares_DuplicateTarget(t *testing.T) {
	proposed := []dto.ProposedShare{
		{OrganizationID: "org-a", RevenueSharePercent: 10},
		{OrganizationID: "org-a", RevenueSharePercent: 20},
	}
	err := ValidateProposedShares(0, proposed)
	var dupErr *domain.DuplicateTargetError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateTargetError, got %T", err)
	}
	if dupErr.OrganizationID != "org-a" {
		t.Errorf("OrganizationID = %s, want org-a", dupErr.OrganizationID)
	}
}

func TestValidateAmendedShare(t *testing.T) {
	tests := []struct {
		name     string
		existing int
		newShare int
		wantErr  bool
	}{
		{"amend within cap", 30, 40, false},
		{"amend to individual max", 0, 50, false},
		{"amend exactly at cap", 40, 40, false},
		{"amend exceeds cap", 50, 31, true},
		{"amend above individual max", 0, 51, true},
		{"amend to zero is rejected", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmendedShare(tt.existing, tt.newShare)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAmendedShare() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAmendedShare_ZeroIsValidationError(t *testing.T) {
	err := ValidateAmendedShare(10, 0)
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestValidateAcceptedShare(t *testing.T) {
	tests := []struct {
		name     string
		existing int
		share    int
		wantErr  bool
	}{
		{"fits under cap", 20, 50, false},
		{"lands exactly on cap", 30, 50, false},
		{"exceeds cap", 50, 50, true},
		{"exceeds cap by one", 31, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAcceptedShare(tt.existing, tt.share)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAcceptedShare() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptedShare_CapExceededDetail(t *testing.T) {
	err := ValidateAcceptedShare(50, 50)
	var capErr *domain.CapExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapExceededError, got %T", err)
	}
	if capErr.Attempted != 100 || capErr.Allowed != domain.MaxTotalShare {
		t.Errorf("detail = {%d, %d}, want {100, %d}", capErr.Attempted, capErr.Allowed, domain.MaxTotalShare)
	}
}
