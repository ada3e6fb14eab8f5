// Package wizard drives the report entry flow from the client side: a
// linear sequence of steps, each saved through the REST API before the
// flow moves on, with a debounced auto-save on the teaching form.
package wizard

// Step is one page of the wizard.
type Step int

const (
	StepTeaching Step = iota
	StepResearch
	StepService
	StepGeneralNotes
	StepReview
)

var stepNames = [...]string{
	StepTeaching:     "teaching",
	StepResearch:     "research",
	StepService:      "service",
	StepGeneralNotes: "general_notes",
	StepReview:       "review",
}

// Steps lists every step in order.
func Steps() []Step {
	return []Step{StepTeaching, StepResearch, StepService, StepGeneralNotes, StepReview}
}

func (s Step) String() string {
	if s < StepTeaching || s > StepReview {
		return "unknown"
	}
	return stepNames[s]
}

// First reports whether s is the opening step.
func (s Step) First() bool { return s == StepTeaching }

// Last reports whether s is the review step, the only one that can submit.
func (s Step) Last() bool { return s == StepReview }

// ParseStep maps a step name back to its Step.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}
