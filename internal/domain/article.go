package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ArticleStatus enumerates article generation lifecycle states.
type ArticleStatus string

const (
	ArticleStatusQueued     ArticleStatus = "queued"
	ArticleStatusGenerating ArticleStatus = "generating"
	ArticleStatusCompleted  ArticleStatus = "completed"
	ArticleStatusError      ArticleStatus = "error"
)

// Valid reports whether s is a known status.
func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleStatusQueued, ArticleStatusGenerating, ArticleStatusCompleted, ArticleStatusError:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s ArticleStatus) Terminal() bool {
	return s == ArticleStatusCompleted || s == ArticleStatusError
}

// CanTransition reports whether moving from one status to another is a
// forward step. Staying in place is not a transition.
func CanTransition(from, to ArticleStatus) bool {
	switch from {
	case ArticleStatusQueued:
		return to == ArticleStatusGenerating || to == ArticleStatusCompleted || to == ArticleStatusError
	case ArticleStatusGenerating:
		return to == ArticleStatusCompleted || to == ArticleStatusError
	default:
		return false
	}
}

// Article is a single generation job and, once completed, its output.
type Article struct {
	ID            string
	UserID        string
	Status        ArticleStatus
	TaskID        string
	Title         *string
	BodyMarkdown  *string
	CoverImageURL *string
	ErrorMessage  *string
	InputJSON     json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ArticleUpdate is a partial mutation of an article. Nil fields are left alone.
type ArticleUpdate struct {
	Status        *ArticleStatus
	Title         *string
	BodyMarkdown  *string
	CoverImageURL *string
	ErrorMessage  *string
}

// IsZero reports whether the update carries no changes.
func (u ArticleUpdate) IsZero() bool {
	return u.Status == nil && u.Title == nil && u.BodyMarkdown == nil &&
		u.CoverImageURL == nil && u.ErrorMessage == nil
}

// Merge applies u onto the article following the lifecycle rules and reports
// whether anything changed. The status only moves forward, an errored article
// is frozen, and populated output fields are never overwritten. Output fields
// are only written when the resulting status is completed, the error message
// only when it is error.
func (a *Article) Merge(u ArticleUpdate, now time.Time) bool {
	if a.Status == ArticleStatusError {
		return false
	}

	target := a.Status
	if u.Status != nil && CanTransition(a.Status, *u.Status) {
		target = *u.Status
	}

	changed := target != a.Status
	a.Status = target

	switch target {
	case ArticleStatusCompleted:
		changed = fillEmpty(&a.Title, u.Title) || changed
		changed = fillEmpty(&a.BodyMarkdown, u.BodyMarkdown) || changed
		changed = fillEmpty(&a.CoverImageURL, u.CoverImageURL) || changed
	case ArticleStatusError:
		changed = fillEmpty(&a.ErrorMessage, u.ErrorMessage) || changed
	}

	if changed {
		a.UpdatedAt = now
	}
	return changed
}

// Apply folds a provider outcome into the article. It returns the partial
// update that has to be persisted and whether the article changed.
func (a *Article) Apply(o GenerationOutcome, now time.Time) (ArticleUpdate, bool) {
	var u ArticleUpdate
	switch o.State {
	case OutcomePending:
		if a.Status != ArticleStatusQueued {
			return u, false
		}
		u.Status = statusPtr(ArticleStatusGenerating)
	case OutcomeCompleted:
		u.Status = statusPtr(ArticleStatusCompleted)
		u.Title = nonBlank(o.Title)
		u.BodyMarkdown = nonBlank(o.BodyMarkdown)
		u.CoverImageURL = nonBlank(o.CoverImageURL)
	case OutcomeFailed:
		reason := strings.TrimSpace(o.Reason)
		if reason == "" {
			reason = DefaultFailureReason
		}
		u.Status = statusPtr(ArticleStatusError)
		u.ErrorMessage = &reason
	default:
		return u, false
	}
	if !a.Merge(u, now) {
		return ArticleUpdate{}, false
	}
	return u, true
}

// NeedsRepair reports whether a completed article is missing any output.
func (a *Article) NeedsRepair() bool {
	return a.Status == ArticleStatusCompleted &&
		(isEmpty(a.Title) || isEmpty(a.BodyMarkdown) || isEmpty(a.CoverImageURL))
}

// DefaultFailureReason is recorded when the provider fails without a message.
const DefaultFailureReason = "generation failed"

// OutcomeState enumerates what the provider reports for a task.
type OutcomeState string

const (
	OutcomePending   OutcomeState = "pending"
	OutcomeCompleted OutcomeState = "completed"
	OutcomeFailed    OutcomeState = "failed"
)

// GenerationOutcome is the provider's view of a dispatched task.
type GenerationOutcome struct {
	State         OutcomeState
	Title         string
	BodyMarkdown  string
	CoverImageURL string
	Reason        string
}

func fillEmpty(dst **string, src *string) bool {
	if src == nil || strings.TrimSpace(*src) == "" || !isEmpty(*dst) {
		return false
	}
	v := *src
	*dst = &v
	return true
}

func isEmpty(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func nonBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func statusPtr(s ArticleStatus) *ArticleStatus {
	return &s
}
