// Package web exposes the ledger over HTTP. Every route under
// /api/companies/{company}/ is scoped by the X-Tenant-ID header plus the
// company URL parameter; no handler ever reads data without an explicit
// scope.
package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ledger-core/internal/app"
	"ledger-core/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
// allowedOrigins is a comma-separated origin list; empty disables CORS.
func NewHandler(svc app.ApplicationService, log *zap.Logger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	if origins := splitAndTrim(allowedOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Route("/api/companies/{company}", func(r chi.Router) {
			r.Get("/accounts", h.listAccounts)
			r.Get("/trial-balance", h.trialBalance)
			r.Get("/accounts/{accountCode}/statement", h.accountStatement)

			r.Post("/journal-entries", h.postEntry)
			r.Post("/journal-entries/validate", h.validateEntry)
			r.Get("/journal-entries/{id}", h.getEntry)
			r.Post("/journal-entries/{id}/reverse", h.reverseEntry)

			r.Get("/reports/balance-sheet", h.balanceSheet)
			r.Get("/reports/pl", h.profitAndLoss)
			r.Get("/reports/cash-flow", h.cashFlow)

			r.Post("/ai/interpret", h.interpretEvent)
			r.Get("/integrity", h.verifyIntegrity)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// scopeFromRequest builds the tenant/company scope every handler operates
// under. Tenancy comes from the X-Tenant-ID header, the company from the
// URL. Both are required; there is no default scope.
func scopeFromRequest(r *http.Request) (core.Scope, error) {
	tenantID, err := strconv.Atoi(r.Header.Get("X-Tenant-ID"))
	if err != nil || tenantID <= 0 {
		return core.Scope{}, errors.New("missing or invalid X-Tenant-ID header")
	}
	companyID, err := strconv.Atoi(chi.URLParam(r, "company"))
	if err != nil || companyID <= 0 {
		return core.Scope{}, errors.New("invalid company id in path")
	}
	return core.Scope{TenantID: tenantID, CompanyID: companyID}, nil
}

func (h *Handler) requireScope(w http.ResponseWriter, r *http.Request) (core.Scope, bool) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_SCOPE", http.StatusBadRequest)
		return core.Scope{}, false
	}
	return scope, true
}

// decodeJSON decodes the request body into v, writing the appropriate
// error response on failure: 413 when the body exceeds the limit set by
// RequestBodyLimit, 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// ── Chart and balances ────────────────────────────────────────────────────────

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListAccounts(r.Context(), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetTrialBalance(r.Context(), scope, r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// accountStatement handles GET .../accounts/{accountCode}/statement.
// When format=csv, streams CSV instead of JSON.
func (h *Handler) accountStatement(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}

	accountCode := chi.URLParam(r, "accountCode")
	result, err := h.svc.GetAccountStatement(r.Context(), app.AccountStatementRequest{
		Scope:       scope,
		AccountCode: accountCode,
		FromDate:    r.URL.Query().Get("from"),
		ToDate:      r.URL.Query().Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="statement-`+accountCode+`.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Date", "Memo", "Debit", "Credit", "Balance"})
		for _, line := range result.Lines {
			_ = cw.Write([]string{
				line.Date.Format("2006-01-02"),
				csvSafe(line.Memo),
				line.Debit.StringFixed(2),
				line.Credit.StringFixed(2),
				line.Balance.StringFixed(2),
			})
		}
		cw.Flush()
		return
	}

	writeJSON(w, result)
}

// csvSafe prevents CSV formula injection by prefixing cells that begin
// with a formula-triggering character with a single quote.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// ── Journal entries ───────────────────────────────────────────────────────────

// entryRequest is the JSON body for posting or validating an entry.
type entryRequest struct {
	Date           string `json:"date"`
	Memo           string `json:"memo"`
	Reference      string `json:"reference"`
	IdempotencyKey string `json:"idempotency_key"`
	Lines          []struct {
		AccountCode string `json:"account_code"`
		Debit       string `json:"debit"`
		Credit      string `json:"credit"`
	} `json:"lines"`
}

func (req entryRequest) draft(scope core.Scope) core.EntryDraft {
	draft := core.EntryDraft{
		Scope:          scope,
		Date:           req.Date,
		Memo:           req.Memo,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
		Lines:          make([]core.DraftLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		draft.Lines = append(draft.Lines, core.DraftLine{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return draft
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	var req entryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.PostEntry(r.Context(), req.draft(scope))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) validateEntry(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	var req entryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ValidateEntry(r.Context(), req.draft(scope)); err != nil {
		writeValidationError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "valid"})
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid entry id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetEntry(r.Context(), scope, entryID)
	if err != nil {
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid entry id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var body struct {
		Date string `json:"date"`
		Memo string `json:"memo"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.ReverseEntry(r.Context(), app.ReverseEntryRequest{
		Scope:   scope,
		EntryID: entryID,
		Date:    body.Date,
		Memo:    body.Memo,
	})
	if err != nil {
		writeValidationError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Statements ────────────────────────────────────────────────────────────────

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.GetBalanceSheet(r.Context(), scope, q.Get("as_of"), q.Get("compare"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.GetProfitAndLoss(r.Context(), scope,
		q.Get("from"), q.Get("to"), q.Get("compare_from"), q.Get("compare_to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.GetCashFlow(r.Context(), scope, q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── AI and integrity ──────────────────────────────────────────────────────────

func (h *Handler) interpretEvent(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, r, "text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.InterpretEvent(r.Context(), scope, body.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) verifyIntegrity(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.requireScope(w, r)
	if !ok {
		return
	}
	result, err := h.svc.VerifyIntegrity(r.Context(), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
