package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/novatix/novatix-backend/pkg/telemetry"
)

// AuditAction is the business operation a request performed
type AuditAction string

const (
	AuditActionInvite   AuditAction = "invite"
	AuditActionRespond  AuditAction = "respond"
	AuditActionAmend    AuditAction = "amend"
	AuditActionRemove   AuditAction = "remove"
	AuditActionGenerate AuditAction = "generate"
	AuditActionTopUp    AuditAction = "topup"
	AuditActionReset    AuditAction = "reset"
	AuditActionWrite    AuditAction = "write"
	AuditActionView     AuditAction = "view"
)

// AuditEntry is one recorded mutation: who did what to which resource
type AuditEntry struct {
	ID           string      `json:"id"`
	UserID       *string     `json:"user_id,omitempty"`
	UserEmail    string      `json:"user_email,omitempty"`
	UserRole     string      `json:"user_role,omitempty"`
	Plan         string      `json:"plan,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   *string     `json:"resource_id,omitempty"`
	StatusCode   int         `json:"status_code"`
	IPAddress    string      `json:"ip_address,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	TraceID      string      `json:"trace_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// DB is the PostgreSQL connection pool for storing audit entries
	DB *pgxpool.Pool
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries per batch insert (default: 100)
	BatchSize int
	// SkipPaths lists paths to skip; a trailing * matches any suffix
	SkipPaths []string
	// SkipMethods lists HTTP methods to skip (default: GET, HEAD, OPTIONS)
	SkipMethods []string
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(db *pgxpool.Pool) *AuditConfig {
	return &AuditConfig{
		DB:            db,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		BatchSize:     100,
		SkipPaths:     []string{"/health", "/ready", "/metrics"},
		SkipMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}
}

// auditSink receives flushed batches. The postgres sink is the production
// target; tests swap in a memory sink.
type auditSink interface {
	write(ctx context.Context, entries []*AuditEntry)
}

const insertAuditSQL = `
	INSERT INTO audit_entries (
		id, user_id, user_email, user_role, plan,
		action, resource_type, resource_id, status_code,
		ip_address, user_agent, request_id, trace_id, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13, $14
	)
`

type postgresSink struct {
	db *pgxpool.Pool
}

func (s *postgresSink) write(ctx context.Context, entries []*AuditEntry) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertAuditSQL,
			e.ID, e.UserID, e.UserEmail, e.UserRole, e.Plan,
			string(e.Action), e.ResourceType, e.ResourceID, e.StatusCode,
			e.IPAddress, e.UserAgent, e.RequestID, e.TraceID, e.CreatedAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			// Audit writes never block or fail the request path
			return
		}
	}
}

type memorySink struct {
	mu      sync.Mutex
	entries []*AuditEntry
}

func (s *memorySink) write(ctx context.Context, entries []*AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

func (s *memorySink) all() []*AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// AuditLogger buffers entries and flushes them to its sink in batches
type AuditLogger struct {
	config    *AuditConfig
	sink      auditSink
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAuditLogger creates an audit logger writing to Postgres
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	return newAuditLogger(config, &postgresSink{db: config.DB})
}

func newAuditLogger(config *AuditConfig, sink auditSink) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	al := &AuditLogger{
		config: config,
		sink:   sink,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log queues an entry without blocking; a full buffer drops the entry
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
	}
}

// Close flushes buffered entries and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		al.sink.write(ctx, batch)
		cancel()
		batch = make([]*AuditEntry, 0, al.config.BatchSize)
	}

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// AuditMiddleware records every mutating API request after it completes
func AuditMiddleware(logger *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := logger.config

		for _, path := range config.SkipPaths {
			if matchPath(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		startTime := time.Now()
		c.Next()

		entry := &AuditEntry{
			ID:         uuid.New().String(),
			StatusCode: c.Writer.Status(),
			CreatedAt:  startTime,
		}

		if userID, ok := GetUserID(c); ok && userID != "" {
			entry.UserID = &userID
		}
		if email, ok := GetEmail(c); ok {
			entry.UserEmail = email
		}
		if role, ok := GetRole(c); ok {
			entry.UserRole = role
		}
		if plan, ok := GetPlan(c); ok {
			entry.Plan = plan
		}

		entry.Action = actionForRoute(c.Request.Method, c.Request.URL.Path)
		entry.ResourceType, entry.ResourceID = resourceForPath(c.Request.URL.Path)

		entry.IPAddress = clientIP(c)
		entry.UserAgent = c.GetHeader("User-Agent")
		entry.RequestID = c.GetHeader("X-Request-ID")
		entry.TraceID = telemetry.GetTraceID(c.Request.Context())

		logger.Log(entry)
	}
}

// matchPath reports whether path matches pattern; a trailing * in the
// pattern matches any suffix
func matchPath(path, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return path == pattern
}

// actionForRoute maps a request onto the business operation it performs
func actionForRoute(method, path string) AuditAction {
	switch {
	case strings.HasSuffix(path, "/respond"):
		return AuditActionRespond
	case strings.Contains(path, "/co-organizers"):
		switch method {
		case http.MethodPost:
			return AuditActionInvite
		case http.MethodPatch, http.MethodPut:
			return AuditActionAmend
		case http.MethodDelete:
			return AuditActionRemove
		}
	case strings.HasSuffix(path, "/ai/generate"):
		return AuditActionGenerate
	case strings.HasSuffix(path, "/ai/credits/topup"):
		return AuditActionTopUp
	case strings.HasSuffix(path, "/ai/credits/reset"):
		return AuditActionReset
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return AuditActionWrite
	default:
		return AuditActionView
	}
}

// resourceForPath resolves the audited resource from the route shape.
// Co-organizer routes attribute to the agreement's organization when the
// path carries one, otherwise to the event; AI routes attribute to the
// caller's credit account or generation.
func resourceForPath(path string) (resourceType string, resourceID *string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	// Strip the /api/v1 prefix
	for len(parts) > 0 && (parts[0] == "api" || strings.HasPrefix(parts[0], "v")) {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return "unknown", nil
	}

	switch parts[0] {
	case "events":
		// events/:id/co-organizers[/:orgId[/respond]]
		if len(parts) >= 4 && parts[2] == "co-organizers" {
			return "co_organizer", &parts[3]
		}
		if len(parts) >= 2 {
			return "event", &parts[1]
		}
		return "event", nil
	case "ai":
		if len(parts) >= 2 {
			switch parts[1] {
			case "generate":
				return "generation", nil
			case "credits":
				return "credit_account", nil
			case "operations":
				return "operation_catalog", nil
			}
		}
	}
	return parts[0], nil
}

// clientIP extracts the caller address, preferring proxy headers
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
