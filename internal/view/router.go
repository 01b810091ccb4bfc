// Package view models which screen a client session should be showing. The
// router performs no I/O; it only reacts to auth notifications and explicit
// user actions.
package view

// Screen is the view-routing state.
type Screen string

const (
	// ScreenLoading holds until the first auth notification arrives.
	// Nothing is rendered while in it.
	ScreenLoading Screen = "loading"
	ScreenAuth    Screen = "auth"
	ScreenConsent Screen = "consent"
	ScreenJournal Screen = "journal"
	ScreenCrisis  Screen = "crisis"
)

// Router is the per-session screen state machine. It is not safe for
// concurrent use; the Registry serializes access.
type Router struct {
	screen Screen
	crisis bool
}

func NewRouter() *Router {
	return &Router{screen: ScreenLoading}
}

// Current returns the visible screen. An active crisis overlay wins over
// everything else.
func (r *Router) Current() Screen {
	if r.crisis {
		return ScreenCrisis
	}
	return r.screen
}

// HandleAuthState applies an identity-provider notification. Losing the
// identity forces Auth from any state and clears the crisis overlay.
func (r *Router) HandleAuthState(authenticated bool) {
	if !authenticated {
		r.screen = ScreenAuth
		r.crisis = false
		return
	}
	// Only the initial Loading->authenticated and Auth->authenticated edges
	// advance to Consent; a repeated notification mid-session is a no-op.
	if r.screen == ScreenLoading || r.screen == ScreenAuth {
		r.screen = ScreenConsent
	}
}

// AcceptConsent moves Consent to Journal. Any other state ignores it.
func (r *Router) AcceptConsent() bool {
	if r.screen != ScreenConsent || r.crisis {
		return false
	}
	r.screen = ScreenJournal
	return true
}

// TriggerCrisis raises the crisis overlay. Only reachable from Journal.
func (r *Router) TriggerCrisis() bool {
	if r.screen != ScreenJournal || r.crisis {
		return false
	}
	r.crisis = true
	return true
}

// DismissCrisis lowers the overlay and returns to Journal.
func (r *Router) DismissCrisis() bool {
	if !r.crisis {
		return false
	}
	r.crisis = false
	return true
}
