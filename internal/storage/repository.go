// Package storage persists the ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
	"ledgerlens/internal/store"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = store.ErrNotFound

const dateLayout = "2006-01-02"

const txColumns = `id, raw_date, date, amount_cents, category, subcategory,
	payment_method, description, ref_check_no, payee_payer, status,
	receipt_picture, account, tag, tax, quantity, split_total, row_id, type_id`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceAll swaps the entire ledger for txs in a single transaction, so a
// failed import leaves the previous dataset intact.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := dbtx.PrepareContext(ctx, `INSERT INTO transactions (
		raw_date, date, amount_cents, category, subcategory, payment_method,
		description, ref_check_no, payee_payer, status, receipt_picture,
		account, tag, tax, quantity, split_total, row_id, type_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			t.RawDate, dateColumn(t), t.AmountCents, t.Category, t.Subcategory,
			t.PaymentMethod, t.Description, t.RefCheckNo, t.PayeePayer,
			t.Status, t.ReceiptPicture, t.Account, t.Tag, t.Tax, t.Quantity,
			t.SplitTotal, t.RowID, t.TypeID,
		); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Ledger replaced", "rows", len(txs))
	return nil
}

// All returns the full ledger in insertion order.
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Transaction, error) {
	return r.selectTransactions(ctx,
		fmt.Sprintf(`SELECT %s FROM transactions ORDER BY id`, txColumns))
}

// Query returns transactions matching the filter, with the date bounds and
// the hierarchical category rule pushed down to SQL. The free-text clause is
// skipped when a selection is active, same as the in-memory engine.
func (r *SQLiteRepository) Query(ctx context.Context, f core.FilterState, mapping *core.CategoryMapping) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)

	if f.From != nil {
		where = append(where, `date IS NOT NULL AND date >= ?`)
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		where = append(where, `date IS NOT NULL AND date <= ?`)
		args = append(args, f.To.Format(dateLayout))
	}

	if f.HasSelection() {
		var parts []string
		if len(f.Subcategories) > 0 {
			ph := make([]string, 0, len(f.Subcategories))
			for sub := range f.Subcategories {
				ph = append(ph, "?")
				args = append(args, sub)
			}
			parts = append(parts, fmt.Sprintf(`(subcategory != '' AND subcategory IN (%s))`, strings.Join(ph, ",")))
		}
		// A category with one of its own subcategories selected is refined:
		// its rows only match through that subcategory.
		var unrefined []string
		for cat := range f.Categories {
			refined := false
			for _, sub := range mapping.Subcategories(cat) {
				if _, ok := f.Subcategories[sub]; ok {
					refined = true
					break
				}
			}
			if !refined {
				unrefined = append(unrefined, cat)
			}
		}
		if len(unrefined) > 0 {
			ph := make([]string, 0, len(unrefined))
			for _, cat := range unrefined {
				ph = append(ph, "?")
				args = append(args, cat)
			}
			parts = append(parts, fmt.Sprintf(`category IN (%s)`, strings.Join(ph, ",")))
		}
		if len(parts) == 0 {
			return nil, nil
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
	} else if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, `(LOWER(description) LIKE ? OR LOWER(category) LIKE ?
			OR LOWER(subcategory) LIKE ? OR LOWER(payee_payer) LIKE ?)`)
		args = append(args, like, like, like, like)
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions`, txColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date IS NOT NULL, date, id`
	return r.selectTransactions(ctx, query, args...)
}

// Update rewrites one transaction's editable fields by id.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		raw_date = ?, date = ?, amount_cents = ?, category = ?, subcategory = ?,
		payment_method = ?, description = ?, ref_check_no = ?, payee_payer = ?,
		status = ?, receipt_picture = ?, account = ?, tag = ?, tax = ?,
		quantity = ?, split_total = ?, row_id = ?, type_id = ?
		WHERE id = ?`,
		t.RawDate, dateColumn(t), t.AmountCents, t.Category, t.Subcategory,
		t.PaymentMethod, t.Description, t.RefCheckNo, t.PayeePayer, t.Status,
		t.ReceiptPicture, t.Account, t.Tag, t.Tax, t.Quantity, t.SplitTotal,
		t.RowID, t.TypeID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ObservedMapping builds a CategoryMapping from the distinct
// (category, subcategory) pairs present in the ledger.
func (r *SQLiteRepository) ObservedMapping(ctx context.Context) (*core.CategoryMapping, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category, subcategory
		FROM transactions WHERE category != '' ORDER BY category, subcategory`)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()

	m := core.NewCategoryMapping()
	for rows.Next() {
		var cat, sub string
		if err := rows.Scan(&cat, &sub); err != nil {
			return nil, fmt.Errorf("scan category pair: %w", err)
		}
		m.Add(cat, sub)
	}
	return m, rows.Err()
}

// ListBudgets returns all budgets ordered by key.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]budget.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, subcategory, monthly_cents
		FROM budgets ORDER BY category, subcategory`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []budget.Budget
	for rows.Next() {
		var b budget.Budget
		if err := rows.Scan(&b.Category, &b.Subcategory, &b.MonthlyCents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertBudget creates or replaces the budget for its (category, subcategory)
// key.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b budget.Budget) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets (category, subcategory, monthly_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(category, subcategory) DO UPDATE SET monthly_cents = excluded.monthly_cents`,
		b.Category, b.Subcategory, b.MonthlyCents)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// DeleteBudget removes a budget by key. Missing keys return ErrNotFound.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category, subcategory string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE category = ? AND subcategory = ?`, category, subcategory)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIgnored returns the full ignore-list.
func (r *SQLiteRepository) ListIgnored(ctx context.Context) ([]insights.Ignored, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, identifier FROM ignored_insights ORDER BY kind, identifier`)
	if err != nil {
		return nil, fmt.Errorf("list ignored insights: %w", err)
	}
	defer rows.Close()

	var out []insights.Ignored
	for rows.Next() {
		var ig insights.Ignored
		if err := rows.Scan(&ig.Kind, &ig.Identifier); err != nil {
			return nil, fmt.Errorf("scan ignored insight: %w", err)
		}
		out = append(out, ig)
	}
	return out, rows.Err()
}

// AddIgnored records a batch of suppressions in one transaction. Duplicates
// are no-ops so the operation is idempotent.
func (r *SQLiteRepository) AddIgnored(ctx context.Context, batch []insights.Ignored) error {
	if len(batch) == 0 {
		return nil
	}
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ignore batch: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO ignored_insights (kind, identifier) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ignore insert: %w", err)
	}
	defer stmt.Close()

	for _, ig := range batch {
		if _, err := stmt.ExecContext(ctx, string(ig.Kind), ig.Identifier); err != nil {
			return fmt.Errorf("insert ignored insight: %w", err)
		}
	}
	return dbtx.Commit()
}

// RemoveIgnored deletes one suppression. Missing entries return ErrNotFound.
func (r *SQLiteRepository) RemoveIgnored(ctx context.Context, ig insights.Ignored) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ignored_insights WHERE kind = ? AND identifier = ?`,
		string(ig.Kind), ig.Identifier)
	if err != nil {
		return fmt.Errorf("remove ignored insight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) selectTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			dateStr sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.RawDate, &dateStr, &t.AmountCents, &t.Category,
			&t.Subcategory, &t.PaymentMethod, &t.Description, &t.RefCheckNo,
			&t.PayeePayer, &t.Status, &t.ReceiptPicture, &t.Account, &t.Tag,
			&t.Tax, &t.Quantity, &t.SplitTotal, &t.RowID, &t.TypeID,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if dateStr.Valid {
			t.Date, t.DateValid = core.ParseDate(dateStr.String)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// dateColumn renders the sortable date column, NULL for undated rows.
func dateColumn(t core.Transaction) any {
	if !t.DateValid {
		return nil
	}
	return t.Date.Format(dateLayout)
}
