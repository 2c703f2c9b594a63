// Package checkout drives the browser-side checkout: which payment method is
// active, which form is visible, and the completion sequence of each method.
package checkout

import (
	"checkout-flow-api/models"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseAwaitingForm
	PhaseReady
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseAwaitingForm:
		return "awaiting_form"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	PayLabel        = "Pay"
	ProcessingLabel = "Processing..."
)

// State is everything the view needs to render the checkout. It is a value:
// the controller replaces it on every change and hands copies to the view.
type State struct {
	Method      models.PaymentMethod
	Phase       Phase
	PayEnabled  bool
	PayLabel    string
	Status      string
	Error       string
	Success     string
	Context     *models.PaymentContext
	WidgetReady bool
}

// Visible reports whether the form of m is shown. At most one form is visible.
func (s State) Visible(m models.PaymentMethod) bool {
	return m != models.MethodNone && s.Method == m
}

// Transition returns the state entered when the user selects m. Whatever the
// previous method had in flight is dropped. Selecting the active method again
// leaves the state untouched.
func Transition(prev State, m models.PaymentMethod) State {
	if m == prev.Method {
		return prev
	}

	next := State{Method: m, PayLabel: PayLabel}
	switch m {
	case models.MethodCard, models.MethodRedirectOnly:
		next.Phase = PhaseReady
		next.PayEnabled = true
	case models.MethodContextBased:
		next.Phase = PhaseInitializing
		next.Status = StatusInitializing
	default:
		next.Method = models.MethodNone
		next.Phase = PhaseIdle
	}
	return next
}
