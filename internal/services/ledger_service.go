// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/ratio"
	"kakeibo/internal/storage"
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ChangePublisher announces committed writes. *amqp.Client implements it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg amqp.ChangeMessage) error
}

// LedgerService validates writes, stamps authorship and publishes change
// notifications after each commit.
type LedgerService struct {
	store     storage.Store
	publisher ChangePublisher
	newID     func() string
}

// NewLedgerService returns a service writing to store. publisher may be nil.
func NewLedgerService(store storage.Store, publisher ChangePublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		newID:     uuid.NewString,
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// CreateTransaction stores t for actor. Owner and creator default to actor.
func (s *LedgerService) CreateTransaction(ctx context.Context, actor string, t core.Transaction) (core.Transaction, error) {
	t.ID = s.newID()
	if t.UserID == "" {
		t.UserID = actor
	}
	if t.CreatorID == "" {
		t.CreatorID = actor
	}
	t.InvolvedUserIDs = core.Involve(t.InvolvedUserIDs, actor)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, amqp.Transactions, amqp.OpCreate, t.ID)
	return t, nil
}

// UpdateTransaction edits an existing transaction. Owner and creator are
// kept; actor joins the involved users.
func (s *LedgerService) UpdateTransaction(ctx context.Context, actor string, t core.Transaction) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.UserID = old.UserID
	t.CreatorID = old.CreatorID
	t.InvolvedUserIDs = core.Involve(old.InvolvedUserIDs, actor)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.Transactions, amqp.OpUpdate, t.ID)
	return t, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.Transactions, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *LedgerService) CreateFixedCost(ctx context.Context, actor string, fc core.FixedCost) (core.FixedCost, error) {
	fc.ID = s.newID()
	if fc.UserID == "" {
		fc.UserID = actor
	}
	if fc.CreatorID == "" {
		fc.CreatorID = actor
	}
	fc.InvolvedUserIDs = core.Involve(fc.InvolvedUserIDs, actor)
	if err := fc.Validate(); err != nil {
		return core.FixedCost{}, invalid(err)
	}
	if err := s.store.CreateFixedCost(ctx, fc); err != nil {
		return core.FixedCost{}, fmt.Errorf("create fixed cost: %w", err)
	}
	s.publish(ctx, amqp.FixedCosts, amqp.OpCreate, fc.ID)
	return fc, nil
}

// ReviseFixedCost applies e on behalf of actor; see storage.FixedCostEdit.
func (s *LedgerService) ReviseFixedCost(ctx context.Context, actor string, e storage.FixedCostEdit) (core.FixedCost, error) {
	e.EditorID = actor
	if err := validateEdit(e); err != nil {
		return core.FixedCost{}, invalid(err)
	}
	if err := s.store.ReviseFixedCost(ctx, e); err != nil {
		return core.FixedCost{}, fmt.Errorf("revise fixed cost: %w", err)
	}
	s.publish(ctx, amqp.FixedCosts, amqp.OpUpdate, e.ID)
	if !e.ReflectDate.IsZero() {
		// reassigned transactions changed too
		s.publish(ctx, amqp.Transactions, amqp.OpUpdate, "")
	}
	return s.store.GetFixedCost(ctx, e.ID)
}

func validateEdit(e storage.FixedCostEdit) error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return core.ErrEmptyCategory
	}
	if !e.Frequency.Valid() {
		return core.ErrInvalidFrequency
	}
	if e.ReflectDate.IsZero() {
		return e.Date.Validate()
	}
	return e.ReflectDate.Validate()
}

func (s *LedgerService) DeleteFixedCost(ctx context.Context, id string) error {
	if err := s.store.DeleteFixedCost(ctx, id); err != nil {
		return fmt.Errorf("delete fixed cost: %w", err)
	}
	s.publish(ctx, amqp.FixedCosts, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) GetFixedCost(ctx context.Context, id string) (core.FixedCost, error) {
	return s.store.GetFixedCost(ctx, id)
}

func (s *LedgerService) ListFixedCosts(ctx context.Context) ([]core.FixedCost, error) {
	return s.store.ListFixedCosts(ctx)
}

// CreateCategory stores c. The ratio must be "none" or a valid "A:B".
func (s *LedgerService) CreateCategory(ctx context.Context, actor string, c core.Category) (core.Category, error) {
	c.ID = s.newID()
	if c.UserID == "" {
		c.UserID = actor
	}
	c, err := normalizeCategory(c)
	if err != nil {
		return core.Category{}, invalid(err)
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.publish(ctx, amqp.Categories, amqp.OpCreate, c.ID)
	return s.store.GetCategory(ctx, c.ID)
}

// UpdateCategory renames c or changes its ratio. The kind cannot change.
func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	old, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = old.Kind
	c.Position = old.Position
	if c.UserID == "" {
		c.UserID = old.UserID
	}
	c, err = normalizeCategory(c)
	if err != nil {
		return core.Category{}, invalid(err)
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.publish(ctx, amqp.Categories, amqp.OpUpdate, c.ID)
	return s.store.GetCategory(ctx, c.ID)
}

// normalizeCategory defaults an empty ratio to "none" and validates c.
func normalizeCategory(c core.Category) (core.Category, error) {
	if c.Ratio == "" {
		c.Ratio = core.RatioNone
	}
	if c.Ratio != core.RatioNone && !ratio.Valid(c.Ratio) {
		return c, fmt.Errorf("invalid ratio %q", c.Ratio)
	}
	return c, c.Validate()
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, amqp.Categories, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) ReorderCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalid(errors.New("no categories to reorder"))
	}
	if err := s.store.ReorderCategories(ctx, ids); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	s.publish(ctx, amqp.Categories, amqp.OpUpdate, "")
	return nil
}

// publish is best effort: the write is already committed.
func (s *LedgerService) publish(ctx context.Context, c amqp.Collection, op amqp.Op, id string) {
	if s.publisher == nil {
		return
	}
	version, err := s.store.Version(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read ledger version", "error", err)
		return
	}
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeMessage(c, op, id, version)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", c,
			"op", op,
			"id", id,
			"error", err)
	}
}

// Close closes the store and the publisher when it holds resources.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
