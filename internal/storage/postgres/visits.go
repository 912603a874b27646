package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (record_key) DO UPDATE SET
			id = EXCLUDED.id,
			title = EXCLUDED.title,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			location = EXCLUDED.location,
			notes = EXCLUDED.notes,
			reminder_minutes = EXCLUDED.reminder_minutes,
			is_recurring = EXCLUDED.is_recurring,
			recurrence_frequency = EXCLUDED.recurrence_frequency,
			recurrence_interval = EXCLUDED.recurrence_interval,
			recurrence_weekdays = EXCLUDED.recurrence_weekdays,
			visit_type = EXCLUDED.visit_type,
			external_calendar_id = EXCLUDED.external_calendar_id,
			updated_at = EXCLUDED.updated_at`,
		v.StorageKey(), v.ID, v.Title, v.Start, v.End, v.Location, v.Notes, reminder, v.IsRecurring,
		freq, interval, weekdays, string(v.Type),
		v.ExternalCalendarID, v.CreatedAt, v.UpdatedAt,
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
		var freq, weekdays, visitType string
		var interval int
		var reminder sql.NullInt64

		err := rows.Scan(
			&v.RecordKey, &v.ID, &v.Title, &v.Start, &v.End, &v.Location, &v.Notes, &reminder, &v.IsRecurring,
			&freq, &interval, &weekdays, &visitType,
			&v.ExternalCalendarID, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, err
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
	_, err := s.db.ExecContext(ctx, "DELETE FROM visits WHERE record_key = $1", v.StorageKey())
	return err
}
