package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectColumns = `id, date, processing_date, amount::text, amount_original::text,
		currency, description, category, card_number, bank, created_at`

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts tx. The unique constraint on (date, amount, description, bank)
// turns a duplicate into a no-op.
func (r *PostgresRepository) Add(ctx context.Context, tx statement.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (id, date, processing_date, amount, amount_original,
			currency, description, category, card_number, bank)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10)
		ON CONFLICT (date, amount, description, bank) DO NOTHING`

	var original *string
	if tx.AmountOriginal != nil {
		s := tx.AmountOriginal.StringFixed(2)
		original = &s
	}
	var category *string
	if tx.Category != nil {
		s := string(*tx.Category)
		category = &s
	}
	var card *string
	if tx.CardNumber != "" {
		card = &tx.CardNumber
	}
	currency := tx.Currency
	if currency == "" {
		currency = "RUB"
	}

	tag, err := r.db.Exec(ctx, query,
		uuid.New(),
		tx.Timestamp,
		tx.PostingTimestamp,
		tx.Amount.StringFixed(2),
		original,
		currency,
		tx.Description,
		category,
		card,
		tx.Bank,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddAll inserts txs one by one and counts duplicates.
func (r *PostgresRepository) AddAll(ctx context.Context, txs []statement.Transaction) (int, int, error) {
	added, duplicates := 0, 0
	for _, tx := range txs {
		ok, err := r.Add(ctx, tx)
		if err != nil {
			return added, duplicates, err
		}
		if ok {
			added++
		} else {
			duplicates++
		}
	}
	return added, duplicates, nil
}

// List returns transactions matching f ordered by date descending.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]StoredTransaction, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Category != nil {
		add("category = $%d", string(*f.Category))
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if f.Bank != "" {
		add("bank = $%d", f.Bank)
	}

	query := "SELECT " + selectColumns + " FROM transactions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC"
	// Internal transfers are filtered after the scan, so the limit has to wait too.
	if f.Limit > 0 && f.IncludeInternalTransfers {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return applyTransferFilter(items, f), nil
}

// ListByCategories returns every transaction in one of categories.
func (r *PostgresRepository) ListByCategories(ctx context.Context, categories ...statement.Category) ([]StoredTransaction, error) {
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		keys = append(keys, string(c))
	}
	query := "SELECT " + selectColumns + " FROM transactions WHERE category = ANY($1) ORDER BY date DESC"
	return r.query(ctx, query, keys)
}

// UpdateCategory replaces the category of a stored transaction.
func (r *PostgresRepository) UpdateCategory(ctx context.Context, id uuid.UUID, category statement.Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET category = $1 WHERE id = $2`, string(category), id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every stored transaction.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]StoredTransaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		item, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (StoredTransaction, error) {
	var (
		item       StoredTransaction
		processing *time.Time
		amount     string
		original   *string
		category   *string
		card       *string
	)
	err := row.Scan(
		&item.ID,
		&item.Timestamp,
		&processing,
		&amount,
		&original,
		&item.Currency,
		&item.Description,
		&category,
		&card,
		&item.Bank,
		&item.ImportedAt,
	)
	if err != nil {
		return item, fmt.Errorf("failed to scan transaction: %w", err)
	}

	item.PostingTimestamp = processing
	if item.Amount, err = decimal.NewFromString(amount); err != nil {
		return item, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if original != nil {
		d, err := decimal.NewFromString(*original)
		if err != nil {
			return item, fmt.Errorf("invalid stored original amount %q: %w", *original, err)
		}
		item.AmountOriginal = &d
	}
	if category != nil {
		// Unknown keys from older schemas are treated as uncategorized.
		if c := statement.Category(*category); c.Valid() {
			item.Category = &c
		}
	}
	if card != nil {
		item.CardNumber = *card
	}
	return item, nil
}
