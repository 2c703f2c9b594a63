package checkout

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkout-flow-api/apperr"
	"checkout-flow-api/models"
	"checkout-flow-api/types"
)

const (
	StatusInitializing = "Initializing payment widget..."
	StatusWidgetReady  = "Payment widget ready. Click Pay to proceed."
	StatusCompleteForm = "Please complete the payment form"
	StatusAuthorizing  = "Authorizing..."
	StatusFinalizing   = "Authorized, finalizing payment..."
	StatusRedirecting  = "Redirecting..."
	StatusProcessing   = "Processing payment..."

	MessageSuccess     = "Payment successful!"
	MessageNotApproved = "Payment not approved"
	MessageNoRedirect  = "No redirect URL for payment"
	MessageUnknownLoad = "Unknown error loading payment widget"

	errLoadPrefix        = "Error loading payment form: "
	errWidgetUnavailable = "payment widget library not loaded"
)

const (
	DefaultSuccessPath  = "/success"
	DefaultSuccessDelay = time.Second
)

// ErrNotInitialized is reported when pay is clicked before the widget is ready.
var ErrNotInitialized = errors.New("payment widget not initialized")

type View interface {
	Render(State)
}

type Navigator interface {
	Navigate(url string)
}

// CardForm holds the raw card inputs as typed by the user.
type CardForm struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
}

// Details normalizes the raw inputs. Unparseable numbers become zero and are
// caught by validation.
func (f CardForm) Details() models.CardDetails {
	month, _ := strconv.Atoi(strings.TrimSpace(f.ExpiryMonth))
	year, _ := strconv.Atoi(strings.TrimSpace(f.ExpiryYear))
	return models.CardDetails{
		Number:      models.NormalizeCardNumber(f.Number),
		ExpiryMonth: month,
		ExpiryYear:  year,
		CVV:         strings.TrimSpace(f.CVV),
	}
}

type Option func(*Controller)

// WithWidget installs the hosted widget. Without one the context-based method
// reports an initialization error.
func WithWidget(w Widget) Option {
	return func(c *Controller) { c.widget = w }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithScheduler replaces the timer used for the delayed success navigation.
func WithScheduler(after func(d time.Duration, f func())) Option {
	return func(c *Controller) { c.after = after }
}

// WithSuccessDelay sets how long the success message stays visible before
// navigating to DefaultSuccessPath.
func WithSuccessDelay(d time.Duration) Option {
	return func(c *Controller) { c.successDelay = d }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) { c.logger = log }
}

// Controller owns the checkout State. User actions return immediately;
// network calls and widget steps run in the background and report back
// through the View. Results that arrive after the user switched method are
// discarded.
//
// The View is called with the controller's lock held and must not call back
// into the controller.
type Controller struct {
	api    API
	view   View
	nav    Navigator
	widget Widget
	logger *zap.SugaredLogger

	now          func() time.Time
	after        func(d time.Duration, f func())
	successDelay time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	wg    sync.WaitGroup
}

func NewController(api API, view View, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		api:          api,
		view:         view,
		nav:          nav,
		logger:       zap.NewNop().Sugar(),
		now:          time.Now,
		successDelay: DefaultSuccessDelay,
		state:        State{PayLabel: PayLabel},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.after == nil {
		c.after = c.afterFunc
	}
	return c
}

func (c *Controller) afterFunc(d time.Duration, f func()) {
	c.wg.Add(1)
	time.AfterFunc(d, func() {
		defer c.wg.Done()
		f()
	})
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every background step started by the controller has
// returned, including a pending success navigation. After PayContext it also
// waits for the widget's authorize callback, which must eventually fire.
// Load callbacks only update state and are not awaited.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) spawn(f func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
}

// update applies fn if gen is still the current selection and renders the
// result. It reports whether fn ran.
func (c *Controller) update(gen uint64, fn func(s *State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	fn(&c.state)
	c.render()
	return true
}

func (c *Controller) render() {
	if c.view != nil {
		c.view.Render(c.state)
	}
}

func (c *Controller) navigate(url string) {
	c.logger.Debugw("navigating", "url", url)
	if c.nav != nil {
		c.nav.Navigate(url)
	}
}

// succeed shows the success message and navigates to the success page after
// the configured delay.
func (c *Controller) succeed(gen uint64) {
	applied := c.update(gen, func(s *State) {
		s.Phase = PhaseSucceeded
		s.PayEnabled = false
		s.Success = MessageSuccess
		s.Status = ""
		s.Error = ""
	})
	if !applied {
		return
	}
	c.after(c.successDelay, func() {
		c.mu.Lock()
		current := c.gen == gen
		c.mu.Unlock()
		if current {
			c.navigate(DefaultSuccessPath)
		}
	})
}

func (c *Controller) fail(gen uint64, msg string) {
	c.update(gen, func(s *State) {
		s.Phase = PhaseFailed
		s.PayEnabled = true
		s.PayLabel = PayLabel
		s.Error = msg
		s.Status = ""
	})
}

// Select activates m, hiding every other form. Selecting the context-based
// method starts its initialization in the background.
func (c *Controller) Select(m models.PaymentMethod) {
	c.mu.Lock()
	next := Transition(c.state, m)
	if next == c.state {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.state = next
	c.render()
	c.mu.Unlock()

	c.logger.Debugw("payment method selected", "method", m.String())

	if m.RequiresSetup() {
		c.spawn(func() { c.initContext(gen) })
	}
}

func (c *Controller) initContext(gen uint64) {
	pc, err := c.api.CreatePaymentContext(context.Background())
	if err != nil {
		c.logger.Warnw("payment context creation failed", "error", err)
		c.failInit(gen, err.Error())
		return
	}

	if !c.update(gen, func(s *State) { s.Context = pc }) {
		return
	}

	if c.widget == nil {
		c.failInit(gen, errWidgetUnavailable)
		return
	}
	if err := c.widget.Init(pc.PartnerMetadata.ClientToken); err != nil {
		c.failInit(gen, err.Error())
		return
	}

	c.widget.Load(func(res LoadResult) { c.onLoad(gen, res) })
}

// failInit reports an initialization error. The pay action stays disabled.
func (c *Controller) failInit(gen uint64, msg string) {
	c.update(gen, func(s *State) {
		s.Phase = PhaseFailed
		s.PayEnabled = false
		s.WidgetReady = false
		s.Error = msg
		s.Status = ""
	})
}

func (c *Controller) onLoad(gen uint64, res LoadResult) {
	outcome := res.Classify()
	c.logger.Debugw("widget load reported", "outcome", outcome.String())

	switch outcome {
	case LoadReady:
		c.update(gen, func(s *State) {
			s.Phase = PhaseReady
			s.WidgetReady = true
			s.PayEnabled = true
			s.Status = StatusWidgetReady
			s.Error = ""
		})
	case LoadAwaitingForm:
		c.update(gen, func(s *State) {
			s.Phase = PhaseAwaitingForm
			s.WidgetReady = false
			s.PayEnabled = false
			s.Status = StatusCompleteForm
		})
	case LoadFailed:
		c.failInit(gen, errLoadPrefix+res.Error)
	default:
		c.failInit(gen, MessageUnknownLoad)
	}
}

// SubmitCard validates the card locally and, if it passes, submits it.
// Validation failures never reach the network.
func (c *Controller) SubmitCard(form CardForm) {
	c.mu.Lock()
	if c.state.Method != models.MethodCard || !c.state.PayEnabled {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.state.Error = ""
	c.state.Success = ""

	card := form.Details()
	if err := card.Validate(c.now()); err != nil {
		c.state.Phase = PhaseFailed
		c.state.Error = validationMessage(err)
		c.render()
		c.mu.Unlock()
		return
	}

	c.state.Phase = PhaseSubmitting
	c.state.PayEnabled = false
	c.state.PayLabel = ProcessingLabel
	c.render()
	c.mu.Unlock()

	c.spawn(func() {
		res, err := c.api.SubmitCard(context.Background(), card)
		if err != nil {
			c.logger.Warnw("card payment failed", "error", err)
			c.fail(gen, err.Error())
			return
		}

		outcome := models.OutcomeFromCardResult(res)
		switch {
		case outcome.RedirectURL != "":
			applied := c.update(gen, func(s *State) {
				s.Phase = PhaseSucceeded
				s.PayEnabled = false
			})
			if applied {
				c.navigate(outcome.RedirectURL)
			}
		case outcome.Status.Succeeded():
			c.succeed(gen)
		default:
			c.fail(gen, outcome.Message)
		}
	})
}

func validationMessage(err error) string {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// PayContext authorizes through the widget and finalizes the payment. Before
// the widget is ready it only reports ErrNotInitialized.
func (c *Controller) PayContext() {
	c.mu.Lock()
	if c.state.Method != models.MethodContextBased {
		c.mu.Unlock()
		return
	}
	if !c.state.WidgetReady || c.widget == nil {
		c.state.Error = ErrNotInitialized.Error()
		c.render()
		c.mu.Unlock()
		return
	}
	if !c.state.PayEnabled {
		c.mu.Unlock()
		return
	}

	gen := c.gen
	c.state.Phase = PhaseSubmitting
	c.state.PayEnabled = false
	c.state.Status = StatusAuthorizing
	c.state.Error = ""
	c.render()
	c.mu.Unlock()

	// The widget may answer from its own goroutine after Authorize returns.
	// The slot taken here is held until the first callback so Wait covers it.
	c.wg.Add(1)
	var once sync.Once
	c.spawn(func() {
		c.widget.Authorize(types.DemoAuthorizationData(), func(res AuthorizeResult) {
			defer once.Do(c.wg.Done)
			c.onAuthorize(gen, res)
		})
	})
}

func (c *Controller) onAuthorize(gen uint64, res AuthorizeResult) {
	outcome := res.Classify()
	c.logger.Debugw("widget authorize reported", "outcome", outcome.String())

	switch outcome {
	case AuthorizeApproved:
		var contextID string
		applied := c.update(gen, func(s *State) {
			s.Status = StatusFinalizing
			if s.Context != nil {
				contextID = s.Context.ID
			}
		})
		if applied {
			c.spawn(func() { c.finalize(gen, contextID) })
		}
	case AuthorizeShowForm:
		c.update(gen, func(s *State) {
			s.Phase = PhaseReady
			s.PayEnabled = true
			s.Status = StatusCompleteForm
		})
	default:
		c.fail(gen, MessageNotApproved)
	}
}

func (c *Controller) finalize(gen uint64, contextID string) {
	rec, err := c.api.FinalizePayment(context.Background(), contextID)
	if err != nil {
		c.logger.Warnw("payment finalization failed", "error", err)
		c.fail(gen, err.Error())
		return
	}

	outcome := models.OutcomeFromRecord(rec)
	if !outcome.Status.Succeeded() {
		c.fail(gen, outcome.Message)
		return
	}

	// The context has been spent at the processor.
	c.update(gen, func(s *State) { s.Context = nil })
	c.succeed(gen)
}

// PayRedirect obtains the redirect target and navigates there.
func (c *Controller) PayRedirect() {
	c.mu.Lock()
	if c.state.Method != models.MethodRedirectOnly || !c.state.PayEnabled {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.state.Phase = PhaseSubmitting
	c.state.PayEnabled = false
	c.state.Status = StatusProcessing
	c.state.Error = ""
	c.render()
	c.mu.Unlock()

	c.spawn(func() {
		res, err := c.api.CreateRedirectPayment(context.Background())
		if err != nil {
			c.logger.Warnw("redirect payment failed", "error", err)
			c.fail(gen, err.Error())
			return
		}
		if res == nil || res.RedirectURL == "" {
			c.fail(gen, MessageNoRedirect)
			return
		}

		applied := c.update(gen, func(s *State) {
			s.Phase = PhaseSucceeded
			s.Status = StatusRedirecting
		})
		if applied {
			c.navigate(res.RedirectURL)
		}
	})
}
