package categorization

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
)

// Store is the part of the transaction repository used by migration.
type Store interface {
	ListByCategories(ctx context.Context, categories ...statement.Category) ([]transactions.StoredTransaction, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, category statement.Category) error
}

// Service re-applies the current rules to stored transactions.
type Service struct {
	engine *Engine
	store  Store
	logger *slog.Logger
}

// NewService creates a migration service.
func NewService(engine *Engine, store Store, logger *slog.Logger) *Service {
	return &Service{engine: engine, store: store, logger: logger}
}

// Engine returns the rule engine the service migrates with.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Migrate re-runs the rules on stored Transfers and Other transactions and
// persists the ones that now land in a more specific category. Transactions
// already in a specific category are never touched.
func (s *Service) Migrate(ctx context.Context) (checked, updated int, err error) {
	items, err := s.store.ListByCategories(ctx, statement.Transfers, statement.Other)
	if err != nil {
		return 0, 0, fmt.Errorf("load migration candidates: %w", err)
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return checked, updated, err
		}
		checked++

		next, ok := s.engine.Recategorize(it.Transaction)
		if !ok {
			continue
		}
		if err := s.store.UpdateCategory(ctx, it.ID, next); err != nil {
			return checked, updated, fmt.Errorf("update %s: %w", it.ID, err)
		}
		updated++
		s.logger.Debug("transaction recategorized",
			slog.String("id", it.ID.String()),
			slog.String("from", string(it.CategoryOrOther())),
			slog.String("to", string(next)),
		)
	}

	s.logger.Info("category migration finished",
		slog.Int("checked", checked),
		slog.Int("updated", updated),
	)
	return checked, updated, nil
}
