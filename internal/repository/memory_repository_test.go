package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

func TestMemoryEventRepository_VersionConflict(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()

	event := &domain.Event{ID: "evt-1", Name: "Expo"}
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first, _ := repo.GetByID(ctx, "evt-1")
	second, _ := repo.GetByID(ctx, "evt-1")

	first.Name = "Expo 2026"
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}

	second.Name = "Expo Classic"
	err := repo.Update(ctx, second)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("second Update() error = %v, want ErrVersionConflict", err)
	}

	stored, _ := repo.GetByID(ctx, "evt-1")
	if stored.Name != "Expo 2026" {
		t.Errorf("Name = %s, want Expo 2026 (loser must not overwrite)", stored.Name)
	}
}

func TestMemoryEventRepository_GetMissingReturnsNil(t *testing.T) {
	repo := NewMemoryEventRepository()

	event, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if event != nil {
		t.Errorf("event = %+v, want nil", event)
	}
}

func TestMemoryEventRepository_ReadsDoNotAlias(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()

	event := &domain.Event{
		ID: "evt-1",
		CoOrganizers: []domain.CoOrganizerAgreement{
			{OrganizationID: "org-a", RevenueSharePercent: 30, Status: domain.AgreementStatusPending},
		},
	}
	if err := repo.Create(ctx, event); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded, _ := repo.GetByID(ctx, "evt-1")
	loaded.CoOrganizers[0].RevenueSharePercent = 99

	fresh, _ := repo.GetByID(ctx, "evt-1")
	if fresh.CoOrganizers[0].RevenueSharePercent != 30 {
		t.Errorf("share = %d, want 30 (mutating a read copy must not leak)", fresh.CoOrganizers[0].RevenueSharePercent)
	}
}

func reservationFor(amount int) *domain.CreditReservation {
	now := time.Now()
	return &domain.CreditReservation{
		ID:        "res-" + now.Format("150405.000000000"),
		Operation: "social_post",
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
}

func TestMemoryCreditAccountRepository_ReserveConcurrency(t *testing.T) {
	repo := NewMemoryCreditAccountRepository()
	ctx := context.Background()

	account := domain.NewCreditAccount("user-1", domain.PlanFree)
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Free plan starts at 5; ten concurrent single-credit reservations
	// must admit exactly five
	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := reservationFor(1)
			res.ID = res.ID + "-" + string(rune('a'+i))
			errs[i] = repo.Reserve(ctx, "user-1", res)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}
	if winners != 5 {
		t.Errorf("winners = %d, want 5", winners)
	}

	stored, _ := repo.GetByOwner(ctx, "user-1")
	if stored.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", stored.Remaining)
	}
	if stored.Reserved != 5 {
		t.Errorf("Reserved = %d, want 5", stored.Reserved)
	}
	if err := stored.CheckInvariant(); err != nil {
		t.Errorf("invariant violated: %v", err)
	}
}

func TestMemoryCreditAccountRepository_CommitAndRelease(t *testing.T) {
	repo := NewMemoryCreditAccountRepository()
	ctx := context.Background()

	account := domain.NewCreditAccount("user-1", domain.PlanPro)
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	committed := reservationFor(2)
	if err := repo.Reserve(ctx, "user-1", committed); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	released := reservationFor(3)
	released.ID = "res-release"
	if err := repo.Reserve(ctx, "user-1", released); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	afterCommit, err := repo.CommitReservation(ctx, committed.ID, domain.LedgerEntry{
		At:     time.Now(),
		Action: domain.LedgerActionUsed,
		Amount: 2,
	})
	if err != nil {
		t.Fatalf("CommitReservation() error = %v", err)
	}
	if afterCommit.Used != 2 {
		t.Errorf("Used = %d, want 2", afterCommit.Used)
	}
	if len(afterCommit.History) != 1 {
		t.Errorf("len(History) = %d, want 1", len(afterCommit.History))
	}

	afterRelease, err := repo.ReleaseReservation(ctx, released.ID)
	if err != nil {
		t.Fatalf("ReleaseReservation() error = %v", err)
	}
	if afterRelease.Remaining != 48 {
		t.Errorf("Remaining = %d, want 48", afterRelease.Remaining)
	}
	if afterRelease.Reserved != 0 {
		t.Errorf("Reserved = %d, want 0", afterRelease.Reserved)
	}
	if err := afterRelease.CheckInvariant(); err != nil {
		t.Errorf("invariant violated: %v", err)
	}

	// Settling twice fails
	if _, err := repo.CommitReservation(ctx, committed.ID, domain.LedgerEntry{}); err == nil {
		t.Error("second CommitReservation should fail")
	}
	if _, err := repo.ReleaseReservation(ctx, released.ID); err == nil {
		t.Error("second ReleaseReservation should fail")
	}
}

func TestMemoryCreditAccountRepository_ExpiredReservations(t *testing.T) {
	repo := NewMemoryCreditAccountRepository()
	ctx := context.Background()

	account := domain.NewCreditAccount("user-1", domain.PlanPro)
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	expired := reservationFor(1)
	expired.ID = "res-expired"
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	if err := repo.Reserve(ctx, "user-1", expired); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	live := reservationFor(1)
	live.ID = "res-live"
	if err := repo.Reserve(ctx, "user-1", live); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	found, err := repo.ExpiredReservations(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("ExpiredReservations() error = %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("len(found) = %d, want 1", len(found))
	}
	if found[0].ID != "res-expired" {
		t.Errorf("found %s, want res-expired", found[0].ID)
	}
}

func TestMemoryMembershipRepository(t *testing.T) {
	repo := NewMemoryMembershipRepository()
	ctx := context.Background()

	repo.AddOrganization(&domain.Organization{ID: "org-a", Name: "Org A", IsActive: true})
	repo.AddMembership("user-1", "org-a", domain.MemberRoleAdmin)
	repo.AddMembership("user-2", "org-a", domain.MemberRoleMember)

	org, err := repo.GetOrganization(ctx, "org-a")
	if err != nil || org == nil {
		t.Fatalf("GetOrganization() = %v, %v", org, err)
	}

	missing, err := repo.GetOrganization(ctx, "org-z")
	if err != nil || missing != nil {
		t.Errorf("GetOrganization(missing) = %v, %v, want nil, nil", missing, err)
	}

	if admin, _ := repo.IsAdmin(ctx, "user-1", "org-a"); !admin {
		t.Error("user-1 should be admin")
	}
	if admin, _ := repo.IsAdmin(ctx, "user-2", "org-a"); admin {
		t.Error("user-2 should not be admin")
	}
	if admin, _ := repo.IsAdmin(ctx, "user-3", "org-a"); admin {
		t.Error("unknown user should not be admin")
	}
}
