package slots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Only these columns may appear in generated SQL.
var slotColumns = map[string]string{
	FieldDate:          "slot_date",
	FieldTime:          "time_label",
	FieldState:         "state",
	FieldStateAbbr:     "state_abbreviation",
	FieldProvider:      "provider",
	FieldProviderID:    "provider_id",
	FieldAppointmentID: "appointment_id",
	FieldAvailable:     "available",
}

var sqlOps = map[Op]string{OpEq: "=", OpGte: ">=", OpLte: "<=", OpGt: ">", OpLt: "<"}

const selectSlots = `SELECT slot_date, time_label, state, state_abbreviation, provider, provider_id, appointment_id, available FROM `

// PostgresStore reads slots from the appointment_slots table created by the
// migrations package.
type PostgresStore struct {
	db     rowQuerier
	tables map[string]bool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("slots: pgx pool required")
	}
	return newPostgresStoreWithQuerier(pool)
}

func newPostgresStoreWithQuerier(db rowQuerier) *PostgresStore {
	if db == nil {
		panic("slots: querier required")
	}
	return &PostgresStore{db: db, tables: map[string]bool{DefaultCollection: true}}
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	query, args, err := s.buildQuery(collection, filters, orderBy, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("slots: query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var (
			slot Slot
			date time.Time
		)
		if err := rows.Scan(&date, &slot.Time, &slot.State, &slot.StateAbbr, &slot.Provider,
			&slot.ProviderID, &slot.AppointmentID, &slot.Available); err != nil {
			return nil, fmt.Errorf("slots: scan slot: %w", err)
		}
		slot.Date = date.Format(dateLayout)
		out = append(out, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slots: iterate slots: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) buildQuery(collection string, filters []Filter, orderBy *OrderBy, limit int) (string, []any, error) {
	if !s.tables[collection] {
		return "", nil, fmt.Errorf("%w: table %q", ErrUnsupportedQuery, collection)
	}
	var sb strings.Builder
	sb.WriteString(selectSlots)
	sb.WriteString(collection)

	args := make([]any, 0, len(filters)+1)
	for i, f := range filters {
		col, ok := slotColumns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: field %q", ErrUnsupportedQuery, f.Field)
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %q", ErrUnsupportedQuery, f.Op)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, sqlValue(f))
		fmt.Fprintf(&sb, "%s %s $%d", col, op, len(args))
	}

	if orderBy != nil {
		col, ok := slotColumns[orderBy.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: order field %q", ErrUnsupportedQuery, orderBy.Field)
		}
		dir := "ASC"
		if orderBy.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s, id ASC", col, dir)
	}
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}

// sqlValue sends ISO date strings as dates so the DATE column compares
// natively.
func sqlValue(f Filter) any {
	if str, ok := f.Value.(string); ok && f.Field == FieldDate {
		if d, ok := parseDate(str); ok {
			return d
		}
	}
	return f.Value
}
