package logview

import (
	"context"
	"errors"
)

// FormState is the lifecycle state of one purge attempt.
type FormState int

// Purge form states. Entering any filter moves the form to
// AwaitingConfirmation; so does changing a filter after a confirmation, which
// drops the confirmation so a stale acknowledgment can never authorize a
// different delete scope.
const (
	StateIdle FormState = iota
	StateAwaitingConfirmation
	StateConfirmed
	StateExecuting
	StateCompleted
	StateFailed
)

func (s FormState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateConfirmed:
		return "confirmed"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Purge form errors.
var (
	ErrUnconfirmed = errors.New("purge not confirmed")
	ErrEmptyScope  = errors.New("purge scope is empty")
)

// PurgeForm collects a delete scope for the active category and gates its
// execution behind an explicit confirmation step.
type PurgeForm struct {
	state    FormState
	category Category

	dateStart    string
	dateEnd      string
	userFilter   string
	actionFilter string
	allRecords   bool

	result *PurgeResult
	err    error
}

// NewPurgeForm creates an empty form in the Idle state.
func NewPurgeForm() *PurgeForm {
	return &PurgeForm{}
}

// State returns the form's current lifecycle state.
func (f *PurgeForm) State() FormState { return f.state }

// Category returns the category the form is bound to.
func (f *PurgeForm) Category() Category { return f.category }

// Result returns the outcome of the last completed purge, if any.
func (f *PurgeForm) Result() *PurgeResult { return f.result }

// Err returns the failure of the last attempted purge, if any.
func (f *PurgeForm) Err() error { return f.err }

// Rebind attaches the form to a category and resets it completely. Called on
// every tab switch: a confirmation never survives a change of category.
func (f *PurgeForm) Rebind(cat Category) {
	*f = PurgeForm{category: cat}
}

// SetDateRange sets the inclusive date range, as plain YYYY-MM-DD values.
func (f *PurgeForm) SetDateRange(start, end string) {
	f.dateStart = start
	f.dateEnd = end
	f.filtersChanged()
}

// ClearDateRange removes the date range. Any pending confirmation is
// dropped; with no other filters left the form returns to Idle.
func (f *PurgeForm) ClearDateRange() {
	f.dateStart = ""
	f.dateEnd = ""
	f.filtersChanged()
}

// SetUserFilter restricts the purge to one user login.
func (f *PurgeForm) SetUserFilter(login string) {
	f.userFilter = login
	f.filtersChanged()
}

// SetActionFilter restricts the purge to one action code.
func (f *PurgeForm) SetActionFilter(action string) {
	f.actionFilter = action
	f.filtersChanged()
}

// SetAllRecords explicitly selects a full-category purge.
func (f *PurgeForm) SetAllRecords(all bool) {
	f.allRecords = all
	f.filtersChanged()
}

// Confirm records the user's explicit acknowledgment of the current scope.
func (f *PurgeForm) Confirm() error {
	if f.state != StateAwaitingConfirmation {
		return ErrEmptyScope
	}
	f.state = StateConfirmed
	return nil
}

// Execute runs the confirmed purge. The confirmation gate is enforced here
// again regardless of how the caller reached this point. On store failure the
// form's filters and confirmation are cleared so the next attempt starts
// from a clean scope.
func (f *PurgeForm) Execute(ctx context.Context, svc Service) (*PurgeResult, error) {
	if f.state != StateConfirmed {
		return nil, ErrUnconfirmed
	}
	if !f.hasScope() {
		return nil, ErrEmptyScope
	}

	f.state = StateExecuting
	result, err := svc.Purge(ctx, PurgeRequest{
		Category:     f.category,
		DateStart:    f.dateStart,
		DateEnd:      f.dateEnd,
		UserFilter:   f.userFilter,
		ActionFilter: f.actionFilter,
		AllRecords:   f.allRecords,
		Confirmed:    true,
	})
	if err != nil {
		cat := f.category
		*f = PurgeForm{category: cat, state: StateFailed, err: err}
		return nil, err
	}

	f.state = StateCompleted
	f.result = result
	f.err = nil
	return result, nil
}

// filtersChanged recomputes the state after any scope mutation. A prior
// confirmation, completion, or failure never carries over.
func (f *PurgeForm) filtersChanged() {
	f.result = nil
	f.err = nil
	if f.hasScope() {
		f.state = StateAwaitingConfirmation
	} else {
		f.state = StateIdle
	}
}

func (f *PurgeForm) hasScope() bool {
	return f.dateStart != "" || f.dateEnd != "" ||
		f.userFilter != "" || f.actionFilter != "" || f.allRecords
}
