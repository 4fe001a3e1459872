package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/storage"
)

// ForecastStore implements storage.ForecastStore using ClickHouse.
// Each Save writes a new version; Get reads the highest version.
type ForecastStore struct {
	conn *Conn
	now  func() time.Time
}

// NewForecastStore creates a new ForecastStore.
func NewForecastStore(conn *Conn) *ForecastStore {
	return &ForecastStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.ForecastStore = (*ForecastStore)(nil)

// Save writes f as the newest version of the user's forecast.
func (s *ForecastStore) Save(ctx context.Context, f *domain.Forecast) error {
	if f == nil || f.UserID == "" {
		return storage.ErrInvalidInput
	}
	version := uint64(s.now().UnixNano())

	// Weeks first so a reader never sees a header without its rows.
	weeks, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO forecast_weeks (
			user_id, version, week_number, starting_balance, cash_in, cash_out, ending_balance, events
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare weeks batch: %w", err)
	}
	for _, w := range f.Weeks {
		events, err := json.Marshal(w.Events)
		if err != nil {
			return fmt.Errorf("encode week %d events: %w", w.WeekNumber, err)
		}
		err = weeks.Append(
			f.UserID, version, uint16(w.WeekNumber),
			w.StartingBalance, w.CashIn, w.CashOut, w.EndingBalance, string(events),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := weeks.Send(); err != nil {
		return fmt.Errorf("send weeks batch: %w", err)
	}

	header, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO forecasts (user_id, version, start_date, starting_cash)
	`)
	if err != nil {
		return fmt.Errorf("prepare forecast batch: %w", err)
	}
	if err := header.Append(f.UserID, version, f.StartDate, f.StartingCash); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := header.Send(); err != nil {
		return fmt.Errorf("send forecast batch: %w", err)
	}
	return nil
}

// Get retrieves the first weeks weeks of the latest forecast version.
func (s *ForecastStore) Get(ctx context.Context, userID string, weeks int) (*domain.Forecast, error) {
	headerQuery := `
		SELECT version, start_date, starting_cash
		FROM forecasts
		WHERE user_id = ?
		ORDER BY version DESC
		LIMIT 1
	`

	f := domain.Forecast{UserID: userID}
	var version uint64
	rows, err := s.conn.Query(ctx, headerQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query forecast header: %w", err)
	}
	found := rows.Next()
	if found {
		err = rows.Scan(&version, &f.StartDate, &f.StartingCash)
	}
	if err == nil {
		err = rows.Err()
	}
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan forecast header: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	f.StartDate = f.StartDate.UTC()

	weeksQuery := `
		SELECT week_number, starting_balance, cash_in, cash_out, ending_balance, events
		FROM forecast_weeks
		WHERE user_id = ? AND version = ?
		ORDER BY week_number ASC
	`
	args := []any{userID, version}
	if weeks > 0 {
		weeksQuery += ` LIMIT ?`
		args = append(args, uint64(weeks))
	}

	weekRows, err := s.conn.Query(ctx, weeksQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query forecast weeks: %w", err)
	}
	defer weekRows.Close()

	if f.Weeks, err = scanForecastWeeks(weekRows); err != nil {
		return nil, err
	}
	f.Summary = forecast.Summarize(f.Weeks)
	return &f, nil
}

// scanForecastWeeks scans week rows in order.
func scanForecastWeeks(rows chRows) ([]domain.ForecastWeek, error) {
	var weeks []domain.ForecastWeek

	for rows.Next() {
		var w domain.ForecastWeek
		var weekNumber uint16
		var starting, in, out, ending decimal.Decimal
		var events string

		if err := rows.Scan(&weekNumber, &starting, &in, &out, &ending, &events); err != nil {
			return nil, fmt.Errorf("scan forecast week row: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
			return nil, fmt.Errorf("decode week %d events: %w", weekNumber, err)
		}

		w.WeekNumber = int(weekNumber)
		w.StartingBalance = starting
		w.CashIn = in
		w.CashOut = out
		w.EndingBalance = ending
		weeks = append(weeks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast week rows: %w", err)
	}
	return weeks, nil
}
