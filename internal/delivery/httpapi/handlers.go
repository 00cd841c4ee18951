package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	applogs "github.com/vaultkeep/audit-service/internal/application/logs"
	"github.com/vaultkeep/audit-service/internal/domain/shared"
	"github.com/vaultkeep/audit-service/pkg/secure"
)

// purgeMessageType identifies a purge exchange on the wire.
const purgeMessageType = "purge_logs"

// sessionHeader carries the session identifier the transport key is looked
// up by. Session validation itself belongs to the auth service.
const sessionHeader = "X-Session-ID"

// SessionKeyStore resolves per-session transport keys.
type SessionKeyStore interface {
	Get(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

// Handler serves the audit log query and purge endpoints.
type Handler struct {
	pages   *applogs.PageHandler
	purges  *applogs.PurgeHandler
	keys    SessionKeyStore
	timeout time.Duration
}

// NewHandler creates a new Handler. keys may be nil when no session key
// store is available; purges are then rejected.
func NewHandler(pages *applogs.PageHandler, purges *applogs.PurgeHandler, keys SessionKeyStore, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Handler{pages: pages, purges: purges, keys: keys, timeout: timeout}
}

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
}

type pageResponse struct {
	TotalCount    int64       `json:"total_count"`
	FilteredCount int64       `json:"filtered_count"`
	Rows          interface{} `json:"rows"`
}

type purgeEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type purgeRequestPayload struct {
	Category     string `json:"category"`
	DateStart    string `json:"date_start,omitempty"`
	DateEnd      string `json:"date_end,omitempty"`
	UserFilter   string `json:"user_filter,omitempty"`
	ActionFilter string `json:"action_filter,omitempty"`
	AllRecords   bool   `json:"all_records,omitempty"`
	Confirmed    bool   `json:"confirmed"`
}

type purgeResultPayload struct {
	Category     string `json:"category"`
	DeletedCount int64  `json:"deleted_count"`
}

type purgeResponse struct {
	Error bool   `json:"error"`
	Data  string `json:"data"`
}

// GetPage handles GET /api/v1/logs/{category}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	category := chi.URLParam(r, "category")
	q := r.URL.Query()

	query := applogs.PageQuery{
		Category:   category,
		Offset:     intParam(q.Get("offset")),
		Limit:      intParam(q.Get("limit")),
		SortColumn: q.Get("sort"),
		SortOrder:  q.Get("dir"),
		Search:     q.Get("search"),
		Scope:      q.Get("scope"),
	}

	result, err := h.pages.Handle(ctx, query)
	if err != nil {
		recordPageRequest(category, false)
		writeDomainError(w, err)
		return
	}

	recordPageRequest(category, true)
	writeJSON(w, http.StatusOK, pageResponse{
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
		Rows:          result.Rows,
	})
}

// PostPurge handles POST /api/v1/logs/purge. The payload is sealed with the
// caller's session transport key; the response payload is sealed with the
// same key. Protocol-level failures use the plain {error, message} shape.
func (h *Handler) PostPurge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if h.keys == nil {
		writeError(w, http.StatusServiceUnavailable, "session key store is unavailable")
		return
	}

	sessionID, err := uuid.Parse(r.Header.Get(sessionHeader))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or malformed session ID")
		return
	}

	key, err := h.keys.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrSessionKeyNotFound) {
			writeError(w, http.StatusUnauthorized, "unknown session")
			return
		}
		log.Error().Err(err).Msg("Failed to load session key")
		writeDomainError(w, err)
		return
	}

	var envelope purgeEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if envelope.Type != purgeMessageType {
		writeError(w, http.StatusBadRequest, "unsupported message type")
		return
	}

	var payload purgeRequestPayload
	if err := secure.Open(key, envelope.Data, &payload); err != nil {
		writeError(w, http.StatusBadRequest, shared.ErrBadEnvelope.Error())
		return
	}

	cmd := applogs.PurgeCommand{
		Category:     payload.Category,
		UserFilter:   payload.UserFilter,
		ActionFilter: payload.ActionFilter,
		AllRecords:   payload.AllRecords,
		Confirmed:    payload.Confirmed,
	}
	if cmd.DateStart, err = parseDate(payload.DateStart, false); err != nil {
		writeError(w, http.StatusBadRequest, "malformed start date")
		return
	}
	if cmd.DateEnd, err = parseDate(payload.DateEnd, true); err != nil {
		writeError(w, http.StatusBadRequest, "malformed end date")
		return
	}

	result, err := h.purges.Handle(ctx, cmd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	recordPurgedRows(string(result.Category), result.DeletedCount)

	sealed, err := secure.Seal(key, purgeResultPayload{
		Category:     string(result.Category),
		DeletedCount: result.DeletedCount,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to seal purge response")
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{Error: false, Data: sealed})
}

// parseDate accepts a plain date or an RFC 3339 instant. Plain end dates are
// shifted to the last instant of that day so the range stays inclusive.
func parseDate(s string, end bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if end {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// writeDomainError maps domain errors onto HTTP statuses. Validation errors
// are the caller's fault; anything unrecognized is treated as a store
// failure so transient backend trouble reads as retryable. Store failures
// carry a DomainError code for the log; the response body never exposes it.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCategory),
		errors.Is(err, shared.ErrInvalidDateRange),
		errors.Is(err, shared.ErrInvalidFilter),
		errors.Is(err, shared.ErrUnconfirmed),
		errors.Is(err, shared.ErrEmptyPurgeScope):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			log.Error().Str("code", domainErr.Code).Err(domainErr.Err).Msg("Store operation failed")
		} else {
			log.Error().Err(err).Msg("Store operation failed")
		}
		writeError(w, http.StatusServiceUnavailable, shared.ErrStoreUnavailable.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: true, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
