package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/printer"
)

const (
	outcomePrecondition = "precondition"
	outcomeConflict     = "conflict"
	outcomeFailed       = "submission_failed"
	outcomeSuccess      = "success"

	printOutcomePrinted  = "printed"
	printOutcomeFailed   = "failed"
	printOutcomeDisabled = "disabled"

	defaultPrintFallback = 30 * time.Second
	defaultSubmitTimeout = 30 * time.Second
)

// Service turns the active tab into a backend order, prints the receipt and
// disposes of the tab.
type Service interface {
	Checkout(ctx context.Context, req Request) (*Result, error)
	Readiness(ctx context.Context, req Request) Readiness
}

// Result describes a submitted order. Done is closed once the finished tab has
// been removed or reset, which may happen after Checkout returns when a
// receipt is printing.
type Result struct {
	OrderID    int64
	OrderName  string
	TabID      int
	TabKey     string
	Printed    bool
	PrintError error
	Done       <-chan struct{}
}

// Readiness lists the rules currently preventing payment on the active tab.
type Readiness struct {
	TabID      int         `json:"tab_id"`
	Ready      bool        `json:"ready"`
	Violations []Violation `json:"violations"`
}

type tabStore interface {
	ActiveTab() tabs.Tab
	TabByKey(key string) (tabs.Tab, bool)
	Retire(ctx context.Context, key string) tabs.RetireOutcome
}

type orderBackend interface {
	ListSources(ctx context.Context) ([]backend.Source, error)
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.Order, error)
	GetOrderPrint(ctx context.Context, orderID int64) (string, error)
}

type checkoutMetrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
	IncPrint(outcome string)
	IncCleanup(trigger string)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Store   tabStore
	Orders  orderBackend
	Printer printer.Printer
	Logger  *logger.Logger
	Metrics checkoutMetrics

	SourceAlias   string
	PickupNote    string
	PrintFallback time.Duration
	PrintSettle   time.Duration
	SubmitTimeout time.Duration
}

type service struct {
	store   tabStore
	orders  orderBackend
	printer printer.Printer
	logg    *logger.Logger
	metrics checkoutMetrics

	sourceAlias   string
	pickupNote    string
	printFallback time.Duration
	printSettle   time.Duration
	submitTimeout time.Duration

	afterFunc func(time.Duration, func()) stopper
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
	sourceID int64
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (*service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tab store required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order backend required")
	}
	if params.Printer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "printer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	alias := strings.TrimSpace(params.SourceAlias)
	if alias == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "source alias required")
	}
	fallback := params.PrintFallback
	if fallback <= 0 {
		fallback = defaultPrintFallback
	}
	submitTimeout := params.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}

	return &service{
		store:         params.Store,
		orders:        params.Orders,
		printer:       params.Printer,
		logg:          params.Logger,
		metrics:       params.Metrics,
		sourceAlias:   alias,
		pickupNote:    params.PickupNote,
		printFallback: fallback,
		printSettle:   params.PrintSettle,
		submitTimeout: submitTimeout,
		afterFunc:     realAfterFunc,
		now:           time.Now,
		inFlight:      map[string]struct{}{},
	}, nil
}

func (s *service) Readiness(ctx context.Context, req Request) Readiness {
	tab := s.store.ActiveTab()
	violations := Evaluate(tab, req)
	if violations == nil {
		violations = []Violation{}
	}
	return Readiness{TabID: tab.ID, Ready: len(violations) == 0, Violations: violations}
}

// Checkout validates the active tab, submits it and schedules cleanup. A
// precondition or submission failure leaves the tab untouched.
//
// The guard is taken on the tab key before the tab is read, so an attempt that
// raced a finishing checkout sees the retired tab rather than the paid cart.
func (s *service) Checkout(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	key := s.store.ActiveTab().Key
	if !s.acquire(key) {
		s.observe(outcomeConflict, started)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}
	tab, ok := s.store.TabByKey(key)
	if !ok {
		s.release(key)
		s.observe(outcomeConflict, started)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "tab closed while checkout started")
	}
	ctx = s.logg.WithTabID(ctx, tab.ID)
	if req.LocationID > 0 {
		ctx = s.logg.WithLocationID(ctx, req.LocationID)
	}
	if req.Operator != nil {
		ctx = s.logg.WithOperatorID(ctx, strconv.FormatInt(req.Operator.ID, 10))
	}

	if violations := Evaluate(tab, req); len(violations) > 0 {
		s.release(key)
		s.observe(outcomePrecondition, started)
		s.logg.Info(s.logg.WithField(ctx, "reason", string(violations[0].Reason)), "checkout.blocked")
		return nil, preconditionError(violations[0])
	}

	// An order the backend accepted is never rolled back, so the caller's
	// cancellation does not reach submission.
	workCtx := context.WithoutCancel(ctx)

	order, err := s.submit(workCtx, tab, req)
	if err != nil {
		s.release(tab.Key)
		s.observe(outcomeFailed, started)
		s.logg.Error(ctx, "checkout.submission_failed", err)
		return nil, err
	}
	s.observe(outcomeSuccess, started)
	ctx = s.logg.WithField(ctx, "order_id", order.ID)
	s.logg.Info(ctx, "checkout.order_created")

	latch := newCleanupLatch(func(trigger string) {
		outcome := s.store.Retire(workCtx, tab.Key)
		s.release(tab.Key)
		if s.metrics != nil {
			s.metrics.IncCleanup(trigger)
		}
		s.logg.Info(s.logg.WithFields(workCtx, map[string]any{
			"trigger": trigger,
			"outcome": string(outcome),
		}), "checkout.tab_retired")
	})

	result := &Result{
		OrderID:   order.ID,
		OrderName: order.Name,
		TabID:     tab.ID,
		TabKey:    tab.Key,
		Done:      latch.Done(),
	}

	if !tab.PrintReceipt {
		s.countPrint(printOutcomeDisabled)
		latch.fire(triggerImmediate)
		return result, nil
	}

	if err := s.print(workCtx, order, latch); err != nil {
		s.countPrint(printOutcomeFailed)
		s.logg.Error(workCtx, "checkout.print_failed", err)
		result.PrintError = pkgerrors.Wrap(pkgerrors.CodePrint, err, "receipt could not be printed")
		latch.fire(triggerPrintFailed)
		return result, nil
	}
	s.countPrint(printOutcomePrinted)
	result.Printed = true
	return result, nil
}

func (s *service) submit(ctx context.Context, tab tabs.Tab, req Request) (*backend.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	sourceID, err := s.resolveSource(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateOrder(ctx, BuildOrder(tab, req, sourceID, s.pickupNote))
	if err != nil {
		return nil, submissionError(err)
	}
	return order, nil
}

func (s *service) resolveSource(ctx context.Context) (int64, error) {
	s.mu.Lock()
	cached := s.sourceID
	s.mu.Unlock()
	if cached > 0 {
		return cached, nil
	}

	sources, err := s.orders.ListSources(ctx)
	if err != nil {
		return 0, submissionError(err)
	}
	for _, src := range sources {
		if strings.EqualFold(src.Alias, s.sourceAlias) {
			s.mu.Lock()
			s.sourceID = src.ID
			s.mu.Unlock()
			return src.ID, nil
		}
	}
	return 0, pkgerrors.Newf(pkgerrors.CodeSubmission, "order source %q not found", s.sourceAlias)
}

// print fetches the receipt and hands it to the printer. Cleanup then waits
// for the printer's completion signal or the fallback timer.
func (s *service) print(ctx context.Context, order *backend.Order, latch *cleanupLatch) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	html, err := s.orders.GetOrderPrint(fetchCtx, order.ID)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if s.printSettle > 0 {
		time.Sleep(s.printSettle)
	}

	title := order.Name
	if title == "" {
		title = fmt.Sprintf("Order #%d", order.ID)
	}
	latch.arm(s.afterFunc(s.printFallback, func() { latch.fire(triggerFallback) }))
	return s.printer.Print(ctx, printer.Document{Title: title, HTML: html}, func() {
		latch.fire(triggerPrinted)
	})
}

func (s *service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

func (s *service) observe(outcome string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome, s.now().Sub(started))
	}
}

func (s *service) countPrint(outcome string) {
	if s.metrics != nil {
		s.metrics.IncPrint(outcome)
	}
}

func submissionError(err error) error {
	message := backend.ServerMessage(err)
	if message == "" {
		message = "order could not be created, please try again"
	}
	return pkgerrors.Wrap(pkgerrors.CodeSubmission, err, message)
}
