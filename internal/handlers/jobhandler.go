package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
	"github.com/justsurfingit/job-ledger-sync/internal/services"
)

// LedgerHandler exposes the ledger and the sync/enrich runs over HTTP.
// Only one run touches the ledger at a time; a request that arrives while
// another is active gets 409.
type LedgerHandler struct {
	SyncService *services.SyncService
	Store       services.LedgerStore

	running sync.Mutex
}

// NewLedgerHandler creates the handler with dependencies
func NewLedgerHandler(s *services.SyncService, store services.LedgerStore) *LedgerHandler {
	return &LedgerHandler{SyncService: s, Store: store}
}

// NewRouter wires the routes under /api/v1.
func NewRouter(h *LedgerHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)

		api.GET("/applications", h.ListApplications)
		api.POST("/applications", h.CreateApplication)
		api.POST("/sync", h.Sync)
		api.POST("/enrich", h.Enrich)
	}
	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListApplications is GET /applications, optionally filtered by ?status=.
func (h *LedgerHandler) ListApplications(c *gin.Context) {
	ledger, err := h.Store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ledger: " + err.Error()})
		return
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filtered := make([]models.JobApplication, 0, len(ledger))
		for _, rec := range ledger {
			if strings.EqualFold(string(rec.Status), status) {
				filtered = append(filtered, rec)
			}
		}
		ledger = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(ledger), "applications": ledger})
}

// CreateApplication is POST /applications, a manual ledger entry.
func (h *LedgerHandler) CreateApplication(c *gin.Context) {
	var req dtos.ApplicationCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if req.AppliedDate != "" {
		if _, err := time.Parse(time.DateOnly, req.AppliedDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "applied_date must be YYYY-MM-DD"})
			return
		}
	}
	status := models.Status(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.StatusApplied
	}
	rec := models.JobApplication{
		Company:     req.CompanyName,
		RoleTitle:   req.Title,
		JobLink:     req.JobLink,
		AppliedDate: req.AppliedDate,
		Status:      status,
		JobText:     req.JobText,
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "another run is in progress"})
		return
	}
	defer h.running.Unlock()

	ctx := c.Request.Context()
	ledger, err := h.Store.Load(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ledger: " + err.Error()})
		return
	}
	ledger = append(ledger, rec)
	if err := h.Store.Persist(ctx, ledger); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save ledger: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Sync is POST /sync with {"mode": "scan-confirmations"|"scan-rejections"|"scan-all"}.
func (h *LedgerHandler) Sync(c *gin.Context) {
	var req dtos.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	mode, err := services.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "another run is in progress"})
		return
	}
	defer h.running.Unlock()

	result, err := h.SyncService.Reconcile(c.Request.Context(), h.Store, mode)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, services.ErrMailUnreachable) {
			code = http.StatusBadGateway
		}
		c.JSON(code, gin.H{"error": "Sync failed: " + err.Error(), "run_id": result.RunID})
		return
	}
	c.JSON(http.StatusOK, syncResponse(result))
}

// Enrich is POST /enrich; it backfills the ledger in place.
func (h *LedgerHandler) Enrich(c *gin.Context) {
	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "another run is in progress"})
		return
	}
	defer h.running.Unlock()

	result, err := h.SyncService.Enrich(c.Request.Context(), h.Store, h.Store)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, services.ErrNoSummarizer) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"error": "Enrichment failed: " + err.Error(), "run_id": result.RunID})
		return
	}
	resp := dtos.EnrichResponse{
		RunID:   result.RunID,
		Updated: result.Report.Updated,
		Skipped: result.Report.Skipped,
		Failed:  len(result.Report.Failures),
	}
	for _, f := range result.Report.Failures {
		resp.Failures = append(resp.Failures, f.Error())
	}
	c.JSON(http.StatusOK, resp)
}

func syncResponse(r services.SyncResult) dtos.SyncResponse {
	resp := dtos.SyncResponse{RunID: r.RunID, Mode: string(r.Mode), Total: r.Total}
	for _, p := range r.Passes {
		resp.Inserted += p.Inserted
		resp.Updated += p.Updated
		resp.Duplicates += p.Duplicates
	}
	for _, c := range r.Collect {
		resp.Skipped += c.Skipped
	}
	return resp
}
