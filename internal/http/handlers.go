package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// pageData feeds templates/index.html.
type pageData struct {
	Filter  string
	Totals  core.Totals
	Entries []core.Entry
	Types   []core.TransactionType
	Count   int
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and reads from the backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ping(ctx); err != nil {
		checks["backend"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
	} else {
		checks["backend"] = "ok"
	}

	checks["cache"] = map[string]any{"summary_entries": s.summaryCache.Size()}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", s.tracer.TotalRequests())
	metric("ledger_transactions", "gauge", "Records currently in the ledger", s.svc.Store().Len())
	metric("ledger_revision", "counter", "Mutations applied since startup", s.svc.Revision())
	metric("summary_cache_hits_total", "counter", "Summary cache hits", s.cacheHits.Load())
	metric("summary_cache_misses_total", "counter", "Summary cache misses", s.cacheMisses.Load())
	metric("summary_cache_entries", "gauge", "Current summary cache entries", s.summaryCache.Size())
	metric("rate_limit_rejected_total", "counter", "Requests refused by the rate limiter", s.rateLimiter.Rejected())
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", s.rateLimiter.ActiveClients())
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.templates == nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	filter := s.filterFromQuery(r)
	entries := s.svc.List(filter)
	data := pageData{
		Filter:  filter,
		Totals:  s.summary(ctx, filter),
		Entries: entries,
		Types:   []core.TransactionType{core.Income, core.Expense},
		Count:   s.svc.Store().Len(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Index template execution failed",
			log.FieldOperation, log.OpRender, log.FieldError, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// handleCreateTransaction handles the dashboard form. An incomplete
// submission is ignored; the browser always lands back on the dashboard.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Parse form error", log.FieldError, err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	filter := ParseFilterDate(r.PostForm, formFilterKey)

	tx := ParseTransactionForm(r.PostForm)
	if _, err := s.svc.Add(ctx, tx); core.IsSubmissionError(err) {
		logger.DebugContext(ctx, "Ignoring incomplete submission", log.FieldError, err)
	} else {
		// a failed write still leaves the record in memory
		s.invalidateSummaries()
	}

	RedirectHome(w, r, filter)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, err := ParseIndex(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	filter := ""
	if err := r.ParseForm(); err == nil {
		filter = ParseFilterDate(r.PostForm, formFilterKey)
	}

	_ = s.svc.Remove(ctx, index)
	s.invalidateSummaries()
	RedirectHome(w, r, filter)
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	filter := s.filterFromQuery(r)
	NewResponse().JSON(map[string]any{
		"transactions": toEntryViews(s.svc.List(filter)),
		"filter":       filter,
	}).Write(w)
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tx, err := NewRequestBodyParser(w, r).Transaction()
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	entry, err := s.svc.Add(ctx, tx)
	if core.IsSubmissionError(err) {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	s.invalidateSummaries()
	if err != nil {
		InternalServerError("failed to persist transaction").Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/transactions/%d", entry.Index)).
		JSON(toEntryView(entry)).
		Write(w)
}

func (s *Server) handleAPIGet(w http.ResponseWriter, r *http.Request) {
	index, err := ParseIndex(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry, ok := s.svc.Get(index)
	if !ok {
		ErrorResponse(http.StatusNotFound, fmt.Sprintf("no transaction at index %d", index)).Write(w)
		return
	}
	NewResponse().JSON(toEntryView(entry)).Write(w)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	index, err := ParseIndex(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	err = s.svc.Remove(r.Context(), index)
	s.invalidateSummaries()
	if err != nil {
		InternalServerError("failed to persist removal").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	filter := s.filterFromQuery(r)
	NewResponse().JSON(summaryView{
		Totals: s.summary(r.Context(), filter),
		Filter: filter,
	}).Write(w)
}

// filterFromQuery reads ?date=.
func (s *Server) filterFromQuery(r *http.Request) string {
	return ParseFilterDate(r.URL.Query(), queryFilterKey)
}
