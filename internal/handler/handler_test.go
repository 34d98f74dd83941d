package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/events"
	"github.com/novatix/novatix-backend/internal/gateway"
	"github.com/novatix/novatix-backend/internal/repository"
	"github.com/novatix/novatix-backend/internal/service"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/middleware"
	"github.com/novatix/novatix-backend/pkg/money"
	"github.com/novatix/novatix-backend/pkg/response"
)

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Generate(ctx context.Context, req *gateway.GenerationRequest) (*gateway.GenerationResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &gateway.GenerationResult{Text: p.text, TokensUsed: 10}, nil
}

// testIdentity injects auth context the way JWTMiddleware would after
// verifying a token
func testIdentity(userID, plan string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyPlan, plan)
		c.Next()
	}
}

type handlerFixture struct {
	eventRepo *repository.MemoryEventRepository
	members   *repository.MemoryMembershipRepository
	collab    *CollabHandler
	gen       *GenerationHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	eventRepo := repository.NewMemoryEventRepository()
	creditRepo := repository.NewMemoryCreditAccountRepository()
	members := repository.NewMemoryMembershipRepository()

	members.AddOrganization(&domain.Organization{ID: "org-primary", Name: "Primary", IsActive: true})
	members.AddOrganization(&domain.Organization{ID: "org-partner", Name: "Partner", IsActive: true})
	members.AddOrganization(&domain.Organization{ID: "org-extra", Name: "Extra", IsActive: true})
	members.AddMembership("user-admin", "org-primary", domain.MemberRoleAdmin)

	event := &domain.Event{
		ID:                 "evt-1",
		Name:               "Summer Festival",
		PrimaryOrganizerID: "org-primary",
		Status:             domain.EventStatusPublished,
		StartDate:          time.Now().Add(30 * 24 * time.Hour),
		TotalRevenue:       money.THB(100000),
		PlatformFeeRate:    0.08,
	}
	if err := eventRepo.Create(context.Background(), event); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	log := logger.Get()
	publisher := events.NewNoopPublisher()
	collabSvc := service.NewCollabService(eventRepo, members, publisher, log)
	ledgerSvc := service.NewLedgerService(creditRepo, publisher, log, 5*time.Minute, 0)
	genSvc := service.NewGenerationService(ledgerSvc, &stubProvider{text: "Generated copy."}, log, 30*time.Second)

	return &handlerFixture{
		eventRepo: eventRepo,
		members:   members,
		collab:    NewCollabHandler(collabSvc),
		gen:       NewGenerationHandler(genSvc, ledgerSvc),
	}
}

func (f *handlerFixture) router(userID, plan string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", testIdentity(userID, plan))
	{
		api.POST("/events/:id/co-organizers", f.collab.Invite)
		api.POST("/events/:id/co-organizers/:orgId/respond", f.collab.Respond)
		api.GET("/events/:id/co-organizers", f.collab.List)
		api.GET("/events/:id/revenue-split", f.collab.RevenueSplit)
		api.POST("/ai/generate", f.gen.Generate)
		api.GET("/ai/credits", f.gen.Credits)
		api.GET("/ai/operations", f.gen.ListOperations)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, *response.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, &envelope
}

func TestCollabHandler_Invite(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-admin", "pro")

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/events/evt-1/co-organizers", gin.H{
		"shares": []gin.H{{"organization_id": "org-partner", "revenue_share_percent": 30}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if !envelope.Success {
		t.Error("Success = false, want true")
	}
}

func TestCollabHandler_Invite_CapExceededDetails(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-admin", "pro")

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/events/evt-1/co-organizers", gin.H{
		"shares": []gin.H{
			{"organization_id": "org-partner", "revenue_share_percent": 45},
			{"organization_id": "org-extra", "revenue_share_percent": 40},
		},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
	if envelope.Error == nil || envelope.Error.Code != response.ErrCodeCapExceeded {
		t.Fatalf("error = %+v, want CAP_EXCEEDED", envelope.Error)
	}
	if envelope.Error.Details["attempted"] != "85" || envelope.Error.Details["allowed"] != "80" {
		t.Errorf("details = %v, want attempted 85 allowed 80", envelope.Error.Details)
	}
}

func TestCollabHandler_Invite_Forbidden(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-nobody", "free")

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/events/evt-1/co-organizers", gin.H{
		"shares": []gin.H{{"organization_id": "org-partner", "revenue_share_percent": 30}},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
	if envelope.Error == nil || envelope.Error.Code != response.ErrCodeForbidden {
		t.Fatalf("error = %+v, want FORBIDDEN", envelope.Error)
	}
}

func TestCollabHandler_EventNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-admin", "pro")

	w, envelope := doJSON(t, r, http.MethodGet, "/api/v1/events/evt-missing/revenue-split", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
	if envelope.Error == nil || envelope.Error.Code != response.ErrCodeNotFound {
		t.Fatalf("error = %+v, want NOT_FOUND", envelope.Error)
	}
}

func TestGenerationHandler_Generate(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-1", "pro")

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/ai/generate", gin.H{
		"operation": "seo_metadata",
		"prompt":    "Summer Festival in Bangkok",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", envelope.Data)
	}
	if data["content"] != "Generated copy." {
		t.Errorf("content = %v", data["content"])
	}
	if data["credits_charged"] != float64(2) {
		t.Errorf("credits_charged = %v, want 2", data["credits_charged"])
	}
}

func TestGenerationHandler_Generate_PlanRequired(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-1", "free")

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/ai/generate", gin.H{
		"operation": "sponsorship_pitch",
		"prompt":    "p",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
	if envelope.Error == nil || envelope.Error.Code != response.ErrCodePlanRequired {
		t.Fatalf("error = %+v, want PLAN_REQUIRED", envelope.Error)
	}
	if envelope.Error.Details["minimum_plan"] != "premium" {
		t.Errorf("minimum_plan = %s, want premium", envelope.Error.Details["minimum_plan"])
	}
}

func TestGenerationHandler_Generate_InsufficientCredits(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-1", "free")

	// Free plan holds 5 credits; the sixth single-credit call runs dry
	for i := 0; i < 5; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/api/v1/ai/generate", gin.H{
			"operation": "social_post",
			"prompt":    "p",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("drain call %d status = %d: %s", i, w.Code, w.Body.String())
		}
	}

	w, envelope := doJSON(t, r, http.MethodPost, "/api/v1/ai/generate", gin.H{
		"operation": "social_post",
		"prompt":    "p",
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402: %s", w.Code, w.Body.String())
	}
	if envelope.Error.Details["required"] != "1" || envelope.Error.Details["available"] != "0" {
		t.Errorf("details = %v, want required 1 available 0", envelope.Error.Details)
	}
}

func TestGenerationHandler_Credits(t *testing.T) {
	f := newHandlerFixture(t)
	r := f.router("user-1", "premium")

	w, envelope := doJSON(t, r, http.MethodGet, "/api/v1/ai/credits", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", envelope.Data)
	}
	if data["total"] != float64(200) {
		t.Errorf("total = %v, want 200", data["total"])
	}
	if data["remaining"] != float64(200) {
		t.Errorf("remaining = %v, want 200", data["remaining"])
	}
}
