package repository

import (
	"context"
	"sync"

	"github.com/novatix/novatix-backend/internal/domain"
)

// MemoryMembershipRepository implements MembershipRepository with
// in-memory storage. Used in tests and local development.
type MemoryMembershipRepository struct {
	mu            sync.RWMutex
	organizations map[string]*domain.Organization
	memberships   map[string]map[string]domain.MemberRole // userID -> orgID -> role
}

// NewMemoryMembershipRepository creates a new MemoryMembershipRepository
func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{
		organizations: make(map[string]*domain.Organization),
		memberships:   make(map[string]map[string]domain.MemberRole),
	}
}

// AddOrganization registers an organization
func (r *MemoryMembershipRepository) AddOrganization(org *domain.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *org
	r.organizations[org.ID] = &copied
}

// AddMembership registers a user's role in an organization
func (r *MemoryMembershipRepository) AddMembership(userID, organizationID string, role domain.MemberRole) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.memberships[userID] == nil {
		r.memberships[userID] = make(map[string]domain.MemberRole)
	}
	r.memberships[userID][organizationID] = role
}

// GetOrganization retrieves an organization by ID
func (r *MemoryMembershipRepository) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, exists := r.organizations[id]
	if !exists {
		return nil, nil
	}
	copied := *org
	return &copied, nil
}

// IsAdmin returns true if the user holds the admin role in the organization
func (r *MemoryMembershipRepository) IsAdmin(ctx context.Context, userID, organizationID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles, exists := r.memberships[userID]
	if !exists {
		return false, nil
	}
	return roles[organizationID] == domain.MemberRoleAdmin, nil
}
