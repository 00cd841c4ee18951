package logs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	domainlogs "github.com/vaultkeep/audit-service/internal/domain/logs"
	"github.com/vaultkeep/audit-service/internal/domain/shared"
)

// PurgeCommand is one purge attempt. Confirmed must be set by an explicit
// user acknowledgment; it is never inferred from the presence of filters.
type PurgeCommand struct {
	Category     string
	DateStart    *time.Time
	DateEnd      *time.Time
	UserFilter   string
	ActionFilter string
	AllRecords   bool
	Confirmed    bool
}

// PurgeHandler handles the only destructive operation in the service. It is
// stateless per call; the delete itself is a single statement, so a store
// failure never leaves a partially purged category.
type PurgeHandler struct {
	repo domainlogs.Repository
}

// NewPurgeHandler creates a new PurgeHandler.
func NewPurgeHandler(repo domainlogs.Repository) *PurgeHandler {
	return &PurgeHandler{repo: repo}
}

// Handle validates and executes a purge. Validation failures are never
// silently corrected: any of them aborts the call before the store is
// touched. The Unconfirmed guard holds even for direct callers that bypass
// the client state machine.
func (h *PurgeHandler) Handle(ctx context.Context, cmd PurgeCommand) (*domainlogs.PurgeResult, error) {
	if !cmd.Confirmed {
		return nil, shared.ErrUnconfirmed
	}

	category, err := domainlogs.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	params := domainlogs.PurgeParams{
		Category:     category,
		DateStart:    cmd.DateStart,
		DateEnd:      cmd.DateEnd,
		UserFilter:   cmd.UserFilter,
		ActionFilter: cmd.ActionFilter,
		AllRecords:   cmd.AllRecords,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	deleted, err := h.repo.Purge(ctx, params)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("category", string(category)).
		Int64("deleted", deleted).
		Bool("all_records", cmd.AllRecords).
		Msg("Audit log purge completed")

	return &domainlogs.PurgeResult{
		Category:     category,
		DeletedCount: deleted,
	}, nil
}
