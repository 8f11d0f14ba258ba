package tabs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pos-terminal/internal/money"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// Persister writes the whole session after every mutation.
type Persister interface {
	Save(ctx context.Context, session Session) error
}

// persistTimeout bounds one session write. Writes are detached from the
// caller's cancellation so an aborted request still saves its mutation.
const persistTimeout = 5 * time.Second

type persistMetrics interface {
	IncPersistFailure()
}

// StoreParams wires a Store.
type StoreParams struct {
	// Initial is the restored session; nil starts from DefaultSession.
	Initial   *Session
	Persister Persister
	TaxRate   decimal.Decimal
	Logger    *logger.Logger
	Metrics   persistMetrics
	// MemoryOnly starts without writing, leaving the durable copy untouched.
	// Used when the restore could not reach the state store.
	MemoryOnly bool
}

// Store owns the order session. Every mutator runs to completion under the
// store lock and then persists the full session. Persistence is best effort:
// after the first failed write the store keeps working in memory only.
type Store struct {
	mu        sync.Mutex
	session   Session
	persister Persister
	taxRate   decimal.Decimal
	logg      *logger.Logger
	metrics   persistMetrics
	degraded  bool
}

// Balance is the money view of the active tab shown in the payment dialog.
type Balance struct {
	money.Totals
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// RetireOutcome reports what Retire did to a finished tab.
type RetireOutcome string

const (
	RetireRemoved RetireOutcome = "removed"
	RetireReset   RetireOutcome = "reset"
	RetireMissing RetireOutcome = "missing"
)

func NewStore(params StoreParams) (*Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	session := DefaultSession()
	if params.Initial != nil {
		session = Normalize(*params.Initial)
	}
	return &Store{
		session:   session,
		persister: params.Persister,
		taxRate:   params.TaxRate,
		logg:      params.Logger,
		metrics:   params.Metrics,
		degraded:  params.MemoryOnly,
	}, nil
}

// Session returns a deep copy of the current session.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// Len is the number of open tabs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.session.Tabs)
}

// ActiveTab returns a copy of the active tab.
func (s *Store) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked().clone()
}

// Tab returns a copy of the tab with the given positional id.
func (s *Store) Tab(id int) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.session.indexOf(id)
	if idx < 0 {
		return Tab{}, false
	}
	return s.session.Tabs[idx].clone(), true
}

// TabByKey finds a tab by its stable key regardless of reindexing.
func (s *Store) TabByKey(key string) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.session.indexOfKey(key)
	if idx < 0 {
		return Tab{}, false
	}
	return s.session.Tabs[idx].clone(), true
}

// AddTab appends an empty tab and makes it active.
func (s *Store) AddTab(ctx context.Context) Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := NewTab(len(s.session.Tabs)+1, "")
	s.session.Tabs = append(s.session.Tabs, tab)
	s.session.ActiveTabID = tab.ID
	s.persistLocked(ctx)
	return tab.clone()
}

// RemoveTab drops a tab and reindexes the rest. Removing the last remaining
// tab is a no-op.
func (s *Store) RemoveTab(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.session.indexOf(id)
	if idx < 0 {
		return errTabNotFound(id)
	}
	if len(s.session.Tabs) == 1 {
		return nil
	}
	s.removeLocked(idx)
	s.persistLocked(ctx)
	return nil
}

// ResetTab empties a tab in place, keeping its id, name and position.
func (s *Store) ResetTab(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.session.indexOf(id)
	if idx < 0 {
		return errTabNotFound(id)
	}
	s.resetLocked(idx)
	s.persistLocked(ctx)
	return nil
}

// Retire disposes of a finished tab: removed when other tabs exist, reset in
// place when it is the only one. Retiring a tab that is already gone does
// nothing, so repeated calls are safe.
func (s *Store) Retire(ctx context.Context, key string) RetireOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.session.indexOfKey(key)
	if idx < 0 {
		return RetireMissing
	}
	outcome := RetireReset
	if len(s.session.Tabs) > 1 {
		s.removeLocked(idx)
		outcome = RetireRemoved
	} else {
		s.resetLocked(idx)
	}
	s.persistLocked(ctx)
	return outcome
}

func (s *Store) SetActiveTab(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.indexOf(id) < 0 {
		return errTabNotFound(id)
	}
	s.session.ActiveTabID = id
	s.persistLocked(ctx)
	return nil
}

// AddToCart increments the line for the product or appends a new line with quantity 1.
func (s *Store) AddToCart(ctx context.Context, product Product) (Tab, error) {
	if product.ID <= 0 {
		return Tab{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if product.Price.IsNegative() {
		return Tab{}, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	return s.mutateActive(ctx, func(tab *Tab) error {
		if idx := tab.lineIndex(product.ID); idx >= 0 {
			tab.Cart[idx].Quantity++
			return nil
		}
		tab.Cart = append(tab.Cart, CartLine{Product: product, Quantity: 1})
		return nil
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, productID int64) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		idx := tab.lineIndex(productID)
		if idx < 0 {
			return errLineNotFound(productID)
		}
		tab.Cart = append(tab.Cart[:idx], tab.Cart[idx+1:]...)
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		idx := tab.lineIndex(productID)
		if idx < 0 {
			return errLineNotFound(productID)
		}
		if quantity <= 0 {
			tab.Cart = append(tab.Cart[:idx], tab.Cart[idx+1:]...)
			return nil
		}
		tab.Cart[idx].Quantity = quantity
		return nil
	})
}

func (s *Store) UpdateItemNote(ctx context.Context, productID int64, note string) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		idx := tab.lineIndex(productID)
		if idx < 0 {
			return errLineNotFound(productID)
		}
		tab.Cart[idx].Note = note
		return nil
	})
}

// ClearCart drops every line from the active tab.
func (s *Store) ClearCart(ctx context.Context) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		tab.Cart = []CartLine{}
		return nil
	})
}

func (s *Store) UpdateNote(ctx context.Context, note string) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		tab.Note = note
		return nil
	})
}

func (s *Store) UpdatePrintReceipt(ctx context.Context, enabled bool) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		tab.PrintReceipt = enabled
		return nil
	})
}

// UpdateDiscount sets the active tab's discount percentage, 0 to 100 inclusive.
func (s *Store) UpdateDiscount(ctx context.Context, percent decimal.Decimal) (Tab, error) {
	if percent.IsNegative() || percent.GreaterThan(maxDiscountPercent) {
		return Tab{}, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return s.mutateActive(ctx, func(tab *Tab) error {
		tab.DiscountPercent = percent
		return nil
	})
}

// UpdateTransactions replaces the active tab's payments wholesale.
func (s *Store) UpdateTransactions(ctx context.Context, transactions []Transaction) (Tab, error) {
	for _, tx := range transactions {
		if err := validateTransaction(tx); err != nil {
			return Tab{}, err
		}
	}
	return s.mutateActive(ctx, func(tab *Tab) error {
		tab.Transactions = append([]Transaction{}, transactions...)
		return nil
	})
}

// AddTransaction records a payment entry committed from the payment dialog.
func (s *Store) AddTransaction(ctx context.Context, methodID int64, methodName string, amount decimal.Decimal) (Transaction, error) {
	tx := Transaction{
		ID:                uuid.NewString(),
		PaymentMethodID:   methodID,
		PaymentMethodName: strings.TrimSpace(methodName),
		Amount:            amount,
	}
	if err := validateTransaction(tx); err != nil {
		return Transaction{}, err
	}
	_, err := s.mutateActive(ctx, func(tab *Tab) error {
		tab.Transactions = append(append([]Transaction{}, tab.Transactions...), tx)
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// RemoveTransaction drops one payment from the active tab.
func (s *Store) RemoveTransaction(ctx context.Context, transactionID string) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		kept := make([]Transaction, 0, len(tab.Transactions))
		for _, tx := range tab.Transactions {
			if tx.ID != transactionID {
				kept = append(kept, tx)
			}
		}
		if len(kept) == len(tab.Transactions) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		tab.Transactions = kept
		return nil
	})
}

// UpdateCustomer binds a customer to the active tab; a nil id clears the binding.
func (s *Store) UpdateCustomer(ctx context.Context, customerID *int64, snapshot *CustomerSnapshot) (Tab, error) {
	return s.mutateActive(ctx, func(tab *Tab) error {
		if customerID == nil {
			tab.CustomerID = nil
			tab.Customer = nil
			return nil
		}
		id := *customerID
		tab.CustomerID = &id
		tab.Customer = nil
		if snapshot != nil {
			copied := *snapshot
			tab.Customer = &copied
		}
		return nil
	})
}

// Totals computes the active tab's money breakdown.
func (s *Store) Totals() money.Totals {
	return s.Balance().Totals
}

// Balance adds what has been paid and what remains to the active tab's totals.
func (s *Store) Balance() Balance {
	tab := s.ActiveTab()
	return BalanceFor(tab, s.taxRate)
}

// TaxRate is the rate the store computes totals with.
func (s *Store) TaxRate() decimal.Decimal {
	return s.taxRate
}

// BalanceFor computes the money view of a single tab.
func BalanceFor(tab Tab, taxRate decimal.Decimal) Balance {
	lines := make([]money.Line, 0, len(tab.Cart))
	for _, line := range tab.Cart {
		lines = append(lines, money.Line{UnitPrice: line.Product.Price, Quantity: line.Quantity})
	}
	totals := money.ComputeTotals(lines, tab.DiscountPercent, taxRate)

	amounts := make([]decimal.Decimal, 0, len(tab.Transactions))
	for _, tx := range tab.Transactions {
		amounts = append(amounts, tx.Amount)
	}
	paid := money.Paid(amounts)
	return Balance{
		Totals:    totals,
		Paid:      paid,
		Remaining: money.Remaining(totals.Total, paid),
	}
}

func (s *Store) mutateActive(ctx context.Context, fn func(tab *Tab) error) (Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.session.indexOf(s.session.ActiveTabID)
	if idx < 0 {
		return Tab{}, errTabNotFound(s.session.ActiveTabID)
	}
	working := s.session.Tabs[idx].clone()
	if err := fn(&working); err != nil {
		return Tab{}, err
	}
	s.session.Tabs[idx] = working
	s.persistLocked(ctx)
	return working.clone(), nil
}

func (s *Store) activeLocked() Tab {
	idx := s.session.indexOf(s.session.ActiveTabID)
	if idx < 0 {
		return s.session.Tabs[0]
	}
	return s.session.Tabs[idx]
}

func (s *Store) removeLocked(idx int) {
	activeIdx := s.session.indexOf(s.session.ActiveTabID)
	remaining := make([]Tab, 0, len(s.session.Tabs)-1)
	remaining = append(remaining, s.session.Tabs[:idx]...)
	remaining = append(remaining, s.session.Tabs[idx+1:]...)
	s.session.Tabs = reindex(remaining)
	s.session.ActiveTabID = nextActiveID(idx, activeIdx)
}

func (s *Store) resetLocked(idx int) {
	current := s.session.Tabs[idx]
	s.session.Tabs[idx] = NewTab(current.ID, current.Key)
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.persister == nil || s.degraded {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.persister.Save(saveCtx, s.session.clone()); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "tabs.persist_cancelled")
			return
		}
		s.degraded = true
		if s.metrics != nil {
			s.metrics.IncPersistFailure()
		}
		s.logg.Error(ctx, "tabs.persist_failed", err)
		s.logg.Warn(ctx, "tabs.persist_disabled")
	}
}

func validateTransaction(tx Transaction) error {
	if tx.PaymentMethodID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if !tx.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	return nil
}

func errTabNotFound(id int) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "tab %d not found", id)
}

func errLineNotFound(productID int64) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d is not in the cart", productID)
}
