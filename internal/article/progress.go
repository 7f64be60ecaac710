package article

import "articlegen/internal/domain"

// StepStatus is the display state of one pipeline step.
type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepActive  StepStatus = "active"
	StepPending StepStatus = "pending"
	StepFailed  StepStatus = "failed"
)

// ProgressStep is one labelled entry of the progress timeline.
type ProgressStep struct {
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
}

// ProgressView is what a client renders while polling a job.
type ProgressView struct {
	Percent int            `json:"percent"`
	Phase   string         `json:"phase"`
	Steps   []ProgressStep `json:"steps"`
}

// Steps are fixed; only their statuses vary with the article status.
var stepLabels = []string{
	"Queued",
	"Researching references",
	"Drafting article",
	"Generating cover image",
	"Finalizing",
}

const (
	percentQueued     = 5
	percentGenerating = 45
	percentCompleted  = 100

	// generatingStep is the index of the step shown as in progress while the
	// provider works.
	generatingStep = 2
)

// Project derives the progress view of an article from its status alone. It
// performs no I/O and returns the same view for the same status.
func Project(a domain.Article) ProgressView {
	switch a.Status {
	case domain.ArticleStatusQueued:
		return ProgressView{Percent: percentQueued, Phase: "Waiting in queue", Steps: timeline(0, StepActive)}
	case domain.ArticleStatusCompleted:
		return ProgressView{Percent: percentCompleted, Phase: "Article ready", Steps: timeline(len(stepLabels), StepDone)}
	case domain.ArticleStatusError:
		return ProgressView{Percent: percentGenerating, Phase: "Generation failed", Steps: timeline(generatingStep, StepFailed)}
	default:
		return ProgressView{Percent: percentGenerating, Phase: stepLabels[generatingStep], Steps: timeline(generatingStep, StepActive)}
	}
}

// timeline marks every step before current as done, current as state and the
// rest as pending.
func timeline(current int, state StepStatus) []ProgressStep {
	steps := make([]ProgressStep, len(stepLabels))
	for i, label := range stepLabels {
		status := StepPending
		switch {
		case i < current:
			status = StepDone
		case i == current:
			status = state
		}
		steps[i] = ProgressStep{Label: label, Status: status}
	}
	return steps
}
