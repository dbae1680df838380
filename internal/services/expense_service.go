package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ExpenseStore is the persistence port behind the accessor.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
	InsertExpense(ctx context.Context, e core.Expense) error
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

// BulkDeleter is implemented by stores that can remove all of a user's
// expenses atomically.
type BulkDeleter interface {
	DeleteExpensesForUser(ctx context.Context, userID string) (int64, error)
}

// EventPublisher announces committed mutations.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error
}

// fetchTimeout bounds a shared list fetch, which outlives the caller
// that started it.
const fetchTimeout = 30 * time.Second

type Option func(*ExpenseService)

// WithClock overrides the time source used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithIDGenerator overrides the expense ID source.
func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// userState tracks the last accepted snapshot of one user's expenses.
//
// issued is the last generation handed to a fetch and stored the
// generation of snapshot. A fetch result is accepted only when its
// generation is newer than both stored and floor, the service generation
// at the time the state was created. epoch changes on every mutation so
// that reads started after a write never join a fetch started before it.
type userState struct {
	issued   uint64
	stored   uint64
	floor    uint64
	epoch    uint64
	snapshot []core.Expense
}

// ExpenseService is the single access path to a user's expenses. Every
// mutation persists first and then re-lists from storage.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	now       func() time.Time
	newID     func() string

	group singleflight.Group

	mu     sync.Mutex
	users  map[string]*userState
	gens   uint64
	epochs uint64
}

func NewExpenseService(store ExpenseStore, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		users: make(map[string]*userState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's expenses, newest date first. Concurrent calls
// for the same user share one fetch. The shared fetch is detached from
// the caller's cancellation; each caller stops waiting when its own ctx
// is done.
func (s *ExpenseService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	if userID == "" {
		return nil, core.ErrUnauthenticated
	}

	key := userID + "@" + strconv.FormatUint(s.Version(userID), 10)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneExpenses(res.Val.([]core.Expense)), nil
	}
}

func (s *ExpenseService) fetch(ctx context.Context, userID string) ([]core.Expense, error) {
	gen := s.nextGeneration(userID)

	start := time.Now()
	list, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list expenses",
			"user_id", userID,
			"generation", gen,
			"error", err)
		return nil, core.Unavailable("list expenses", err)
	}

	accepted := s.accept(userID, gen, list)
	slog.DebugContext(ctx, "Fetched expenses",
		"user_id", userID,
		"generation", gen,
		"count", len(list),
		"stale", !accepted,
		"duration_ms", time.Since(start).Milliseconds())
	snap, _ := s.Snapshot(userID)
	return snap, nil
}

func (s *ExpenseService) nextGeneration(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(userID)
	s.gens++
	st.issued = s.gens
	return st.issued
}

// accept stores list as the user's snapshot unless a newer fetch already
// stored one.
func (s *ExpenseService) accept(userID string, gen uint64, list []core.Expense) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(userID)
	if gen <= st.stored || gen <= st.floor {
		return false
	}
	st.stored = gen
	st.snapshot = cloneExpenses(list)
	return true
}

func (s *ExpenseService) stateLocked(userID string) *userState {
	st, ok := s.users[userID]
	if !ok {
		st = &userState{floor: s.gens, epoch: s.epochs}
		s.users[userID] = st
	}
	return st
}

// forget drops the user's state. Versions issued afterwards never repeat
// one issued before.
func (s *ExpenseService) forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	s.epochs++
}

// Snapshot returns the last accepted list for userID and its generation.
// Generation 0 means nothing has been fetched yet.
func (s *ExpenseService) Snapshot(userID string) ([]core.Expense, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		return nil, 0
	}
	return cloneExpenses(st.snapshot), st.stored
}

// Version changes whenever the user's expenses are mutated through this
// service. It is suitable as a cache key for derived views.
func (s *ExpenseService) Version(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.users[userID]; ok {
		return st.epoch
	}
	return 0
}

func (s *ExpenseService) bump(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs++
	s.stateLocked(userID).epoch = s.epochs
}

// Create validates draft, persists a new expense and returns it as read
// back from storage.
func (s *ExpenseService) Create(ctx context.Context, userID string, draft core.Draft) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, core.ErrUnauthenticated
	}
	fields, err := draft.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:        s.newID(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	fields.Apply(&e)

	if err := s.store.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, core.Unavailable("create expense", err)
	}
	s.bump(userID)

	slog.InfoContext(ctx, "Expense created",
		"user_id", userID,
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", string(e.Category))

	saved := s.readBack(ctx, userID, e)
	s.publish(ctx, amqp.KindCreated, userID, e.ID)
	return saved, nil
}

// Update rewrites the mutable fields of an existing expense. CreatedAt is
// preserved.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, draft core.Draft) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, core.ErrUnauthenticated
	}
	fields, err := draft.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	current, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, core.Unavailable("get expense", err)
	}

	fields.Apply(&current)
	current.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateExpense(ctx, current); err != nil {
		return core.Expense{}, core.Unavailable("update expense", err)
	}
	s.bump(userID)

	slog.InfoContext(ctx, "Expense updated",
		"user_id", userID,
		"expense_id", id)

	saved := s.readBack(ctx, userID, current)
	s.publish(ctx, amqp.KindUpdated, userID, id)
	return saved, nil
}

// Delete removes one expense.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return core.Unavailable("delete expense", err)
	}
	s.bump(userID)

	slog.InfoContext(ctx, "Expense deleted",
		"user_id", userID,
		"expense_id", id)

	s.refresh(ctx, userID)
	s.publish(ctx, amqp.KindDeleted, userID, id)
	return nil
}

// DeleteAllForUser removes every expense of the user. Stores implementing
// BulkDeleter do it atomically. Otherwise expenses are deleted one by one
// and a *core.PartialDeleteError lists those that remain after a failure.
// On success the user's cached state is released.
func (s *ExpenseService) DeleteAllForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrUnauthenticated
	}

	var err error
	if bulk, ok := s.store.(BulkDeleter); ok {
		var n int64
		n, err = bulk.DeleteExpensesForUser(ctx, userID)
		if err == nil {
			slog.InfoContext(ctx, "Deleted all expenses", "user_id", userID, "count", n)
		}
		err = core.Unavailable("delete expenses for user", err)
	} else {
		err = s.deleteEach(ctx, userID)
	}

	s.bump(userID)
	if err != nil {
		s.refresh(ctx, userID)
		return err
	}
	s.publish(ctx, amqp.KindPurged, userID, "")
	s.forget(userID)
	return nil
}

func (s *ExpenseService) deleteEach(ctx context.Context, userID string) error {
	list, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return core.Unavailable("list expenses", err)
	}

	var (
		deleted   int
		remaining []string
		firstErr  error
	)
	for _, e := range list {
		err := s.store.DeleteExpense(ctx, userID, e.ID)
		switch {
		case err == nil, errors.Is(err, core.ErrNotFound):
			deleted++
		default:
			remaining = append(remaining, e.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(remaining) > 0 {
		slog.ErrorContext(ctx, "Partial delete of user expenses",
			"user_id", userID,
			"deleted", deleted,
			"remaining", len(remaining),
			"error", firstErr)
		return &core.PartialDeleteError{Deleted: deleted, Remaining: remaining, Err: firstErr}
	}

	slog.InfoContext(ctx, "Deleted all expenses", "user_id", userID, "count", deleted)
	return nil
}

// readBack re-lists after a write and returns the stored form of e. The
// write has already succeeded, so a failed re-list falls back to e.
func (s *ExpenseService) readBack(ctx context.Context, userID string, e core.Expense) core.Expense {
	list, err := s.List(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Re-list after write failed", "user_id", userID, "error", err)
		return e
	}
	for _, got := range list {
		if got.ID == e.ID {
			return got
		}
	}
	return e
}

func (s *ExpenseService) refresh(ctx context.Context, userID string) {
	if _, err := s.List(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Re-list after write failed", "user_id", userID, "error", err)
	}
}

func (s *ExpenseService) publish(ctx context.Context, kind, userID, expenseID string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseChangedMessage(kind, userID, expenseID)
	if err := s.publisher.PublishExpenseChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense change",
			"kind", kind,
			"user_id", userID,
			"expense_id", expenseID,
			"error", err)
	}
}

func cloneExpenses(in []core.Expense) []core.Expense {
	if in == nil {
		return []core.Expense{}
	}
	return append([]core.Expense(nil), in...)
}

// Close releases the store when it holds resources.
func (s *ExpenseService) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close expense store: %w", err)
		}
	}
	return nil
}
