package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"checkout-flow-api/config"
	"checkout-flow-api/logger"
	"checkout-flow-api/models"
)

const (
	checkoutSessionName = "checkout-session"
	sessionKeyMethod    = "method"
	sessionKeyContextID = "payment_context_id"
)

// CheckoutSessions keeps the per-browser checkout state: the active method and
// the payment context that is waiting to be finalized. It is best effort; a
// session failure never fails a payment.
type CheckoutSessions struct {
	store  sessions.Store
	logger *zap.SugaredLogger
}

func NewCheckoutSessions(cfg config.SessionConfig, log *zap.SugaredLogger) *CheckoutSessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CheckoutSessions{store: store, logger: log}
}

func (cs *CheckoutSessions) get(r *http.Request) *sessions.Session {
	session, err := cs.store.Get(r, checkoutSessionName)
	if err != nil {
		// A stale or foreign cookie still yields a fresh session.
		logger.For(r.Context(), cs.logger).Warnw("error getting checkout session", "error", err)
	}
	return session
}

func (cs *CheckoutSessions) save(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		logger.For(r.Context(), cs.logger).Warnw("error saving checkout session", "error", err)
	}
}

// Select overwrites the active method. Any context belonging to the previous
// method is dropped.
func (cs *CheckoutSessions) Select(w http.ResponseWriter, r *http.Request, method models.PaymentMethod) {
	session := cs.get(r)
	if session == nil {
		return
	}
	if prev, _ := session.Values[sessionKeyMethod].(string); prev != method.String() {
		delete(session.Values, sessionKeyContextID)
	}
	session.Values[sessionKeyMethod] = method.String()
	cs.save(w, r, session)
}

// IssueContext records a freshly created context for the context-based method.
func (cs *CheckoutSessions) IssueContext(w http.ResponseWriter, r *http.Request, contextID string) {
	session := cs.get(r)
	if session == nil {
		return
	}
	session.Values[sessionKeyMethod] = models.MethodContextBased.String()
	session.Values[sessionKeyContextID] = contextID
	cs.save(w, r, session)
}

// ConsumeContext discards the session's context once it has been finalized.
func (cs *CheckoutSessions) ConsumeContext(w http.ResponseWriter, r *http.Request, contextID string) {
	session := cs.get(r)
	if session == nil {
		return
	}
	if current, _ := session.Values[sessionKeyContextID].(string); current != contextID {
		return
	}
	delete(session.Values, sessionKeyContextID)
	cs.save(w, r, session)
}

func (cs *CheckoutSessions) Summary(r *http.Request) models.SessionSummary {
	var summary models.SessionSummary

	session := cs.get(r)
	if session == nil {
		return summary
	}
	if name, ok := session.Values[sessionKeyMethod].(string); ok {
		summary.Method, _ = models.ParsePaymentMethod(name)
	}
	summary.PaymentContextID, _ = session.Values[sessionKeyContextID].(string)
	return summary
}
