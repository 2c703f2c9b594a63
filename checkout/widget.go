package checkout

import (
	"checkout-flow-api/types"
)

// Widget is the hosted payment widget of the context-based method. Callbacks
// may run on any goroutine and may run before the call returns.
type Widget interface {
	Init(clientToken string) error
	// Load may report more than once, e.g. first show_form and later ready.
	Load(cb func(LoadResult))
	Authorize(data types.AuthorizationData, cb func(AuthorizeResult))
}

// LoadResult is the raw shape reported by the widget's load step.
type LoadResult struct {
	Ready    bool   `json:"ready"`
	ShowForm bool   `json:"show_form"`
	Error    string `json:"error,omitempty"`
}

// AuthorizeResult is the raw shape reported by the widget's authorize step.
type AuthorizeResult struct {
	Approved           bool   `json:"approved"`
	ShowForm           bool   `json:"show_form"`
	AuthorizationToken string `json:"authorization_token,omitempty"`
	Error              string `json:"error,omitempty"`
}

type LoadOutcome int

const (
	LoadUnknown LoadOutcome = iota
	LoadReady
	LoadAwaitingForm
	LoadFailed
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadReady:
		return "ready"
	case LoadAwaitingForm:
		return "awaiting_form"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Classify maps the load report to exactly one named outcome. An error wins
// over any flag.
func (r LoadResult) Classify() LoadOutcome {
	switch {
	case r.Error != "":
		return LoadFailed
	case r.Ready:
		return LoadReady
	case r.ShowForm:
		return LoadAwaitingForm
	default:
		return LoadUnknown
	}
}

type AuthorizeOutcome int

const (
	AuthorizeNotApproved AuthorizeOutcome = iota
	AuthorizeApproved
	AuthorizeShowForm
)

func (o AuthorizeOutcome) String() string {
	switch o {
	case AuthorizeApproved:
		return "approved"
	case AuthorizeShowForm:
		return "show_form"
	default:
		return "not_approved"
	}
}

func (r AuthorizeResult) Classify() AuthorizeOutcome {
	switch {
	case r.Approved:
		return AuthorizeApproved
	case r.ShowForm:
		return AuthorizeShowForm
	default:
		return AuthorizeNotApproved
	}
}
