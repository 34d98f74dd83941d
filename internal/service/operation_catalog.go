package service

import (
	"sort"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
)

// Metered AI generation operations
const (
	OperationEventDescription = "event_description"
	OperationSocialPost       = "social_post"
	OperationSEOMetadata      = "seo_metadata"
	OperationEmailCampaign    = "email_campaign"
	OperationSponsorshipPitch = "sponsorship_pitch"
)

// OperationDescriptor maps a metered operation to its cost and entitlement
type OperationDescriptor struct {
	Name        string
	CreditCost  int
	MinimumPlan domain.Plan
}

// operationCatalog is the static table of metered operations
var operationCatalog = map[string]OperationDescriptor{
	OperationEventDescription: {Name: OperationEventDescription, CreditCost: 1, MinimumPlan: domain.PlanFree},
	OperationSocialPost:       {Name: OperationSocialPost, CreditCost: 1, MinimumPlan: domain.PlanFree},
	OperationSEOMetadata:      {Name: OperationSEOMetadata, CreditCost: 2, MinimumPlan: domain.PlanPro},
	OperationEmailCampaign:    {Name: OperationEmailCampaign, CreditCost: 3, MinimumPlan: domain.PlanPro},
	OperationSponsorshipPitch: {Name: OperationSponsorshipPitch, CreditCost: 5, MinimumPlan: domain.PlanPremium},
}

// LookupOperation resolves an operation descriptor. Unknown operations fail
// closed: they are priced at 1 credit and gated behind the premium plan so
// nothing is ever silently free.
func LookupOperation(name string) OperationDescriptor {
	if desc, ok := operationCatalog[name]; ok {
		return desc
	}
	return OperationDescriptor{Name: name, CreditCost: 1, MinimumPlan: domain.PlanPremium}
}

// KnownOperation reports whether the operation is in the catalog
func KnownOperation(name string) bool {
	_, ok := operationCatalog[name]
	return ok
}

// ListOperations returns the catalog with availability resolved against the
// caller's plan, in stable name order
func ListOperations(plan domain.Plan) *dto.OperationListResponse {
	names := make([]string, 0, len(operationCatalog))
	for name := range operationCatalog {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &dto.OperationListResponse{
		Plan:       string(plan),
		Operations: make([]dto.OperationInfo, 0, len(names)),
	}
	for _, name := range names {
		desc := operationCatalog[name]
		out.Operations = append(out.Operations, dto.OperationInfo{
			Operation:   desc.Name,
			Cost:        desc.CreditCost,
			MinimumPlan: string(desc.MinimumPlan),
			Available:   plan.AtLeast(desc.MinimumPlan),
		})
	}
	return out
}
