package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
)

const visitColumns = `record_key, id, title, start_at, end_at, location, notes, reminder_minutes, is_recurring,
	recurrence_frequency, recurrence_interval, recurrence_weekdays, visit_type,
	external_calendar_id, created_at, updated_at`

func (s *Store) Save(ctx context.Context, v models.Visit) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var reminder sql.NullInt64
	if v.ReminderMinutes != nil {
		reminder = sql.NullInt64{Int64: int64(*v.ReminderMinutes), Valid: true}
	}

	var freq, weekdays string
	var interval int
	if v.Recurrence != nil {
		freq = string(v.Recurrence.Frequency)
		interval = v.Recurrence.Interval
		if len(v.Recurrence.Weekdays) > 0 {
			data, err := json.Marshal(v.Recurrence.Weekdays)
			if err != nil {
				return err
			}
			weekdays = string(data)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (`+visitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_key) DO UPDATE SET
			id = excluded.id,
			title = excluded.title,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			location = excluded.location,
			notes = excluded.notes,
			reminder_minutes = excluded.reminder_minutes,
			is_recurring = excluded.is_recurring,
			recurrence_frequency = excluded.recurrence_frequency,
			recurrence_interval = excluded.recurrence_interval,
			recurrence_weekdays = excluded.recurrence_weekdays,
			visit_type = excluded.visit_type,
			external_calendar_id = excluded.external_calendar_id,
			updated_at = excluded.updated_at`,
		v.StorageKey(), v.ID, v.Title, formatTime(v.Start), formatTime(v.End), v.Location, v.Notes, reminder, v.IsRecurring,
		freq, interval, weekdays, string(v.Type),
		v.ExternalCalendarID, formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	return err
}

func (s *Store) FetchAll(ctx context.Context) ([]models.Visit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+visitColumns+` FROM visits ORDER BY start_at, record_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		var v models.Visit
		var start, end, created, updated, freq, weekdays, visitType string
		var interval int
		var reminder sql.NullInt64

		err := rows.Scan(
			&v.RecordKey, &v.ID, &v.Title, &start, &end, &v.Location, &v.Notes, &reminder, &v.IsRecurring,
			&freq, &interval, &weekdays, &visitType,
			&v.ExternalCalendarID, &created, &updated,
		)
		if err != nil {
			return nil, err
		}

		if v.Start, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("visit %s: invalid start: %w", v.ID, err)
		}
		if v.End, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("visit %s: invalid end: %w", v.ID, err)
		}
		if v.CreatedAt, err = parseTime(created); err != nil {
			logger.Warn("Visit has unreadable created_at", "id", v.ID, "value", created, "error", err)
		}
		if v.UpdatedAt, err = parseTime(updated); err != nil {
			logger.Warn("Visit has unreadable updated_at", "id", v.ID, "value", updated, "error", err)
		}
		v.Type = models.VisitType(visitType)

		if reminder.Valid {
			m := int(reminder.Int64)
			v.ReminderMinutes = &m
		}

		if freq != "" {
			rule := &models.RecurrenceRule{Frequency: models.Frequency(freq), Interval: interval}
			if weekdays != "" {
				if err := json.Unmarshal([]byte(weekdays), &rule.Weekdays); err != nil {
					return nil, fmt.Errorf("visit %s: invalid weekdays: %w", v.ID, err)
				}
			}
			v.Recurrence = rule
		}

		visits = append(visits, v)
	}

	return visits, rows.Err()
}

func (s *Store) Delete(ctx context.Context, v models.Visit) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM visits WHERE record_key = ?", v.StorageKey())
	return err
}

// Times are stored as RFC3339 so the original offset survives a round trip.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
