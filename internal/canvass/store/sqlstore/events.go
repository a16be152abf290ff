package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fieldsync/internal/canvass/models"
	"fieldsync/pkg/platform/sentinel"
	"fieldsync/pkg/platform/tx"
)

const eventColumns = `member_id, household_id, status, survey_answers, notes, client_ts, received_at,
	device_id, client_agent, lat, lng, distance_meters, suspect`

func (s *Store) FindEvent(ctx context.Context, memberID string) (*models.VisitEvent, error) {
	row := s.q(ctx).QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+eventColumns+` FROM visit_events WHERE member_id = ?`), memberID)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event for member %s: %w", memberID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find event %s: %w", memberID, err)
	}
	return &ev, nil
}

// ApplyVisit runs the conditional event upsert and the member status update
// in one transaction. The upsert's WHERE clause is the staleness rule: an
// existing row is replaced only when its client_ts is not after the incoming one.
func (s *Store) ApplyVisit(ctx context.Context, ev *models.VisitEvent) (bool, error) {
	answers := ev.SurveyAnswers
	if len(answers) == 0 {
		answers = models.EmptyAnswers
	}

	applied := false
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		var one int
		err := s.q(ctx).QueryRowContext(ctx, s.dialect.Rebind(`SELECT 1 FROM members WHERE id = ?`), ev.MemberID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("member %s: %w", ev.MemberID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check member %s: %w", ev.MemberID, err)
		}

		res, err := s.q(ctx).ExecContext(ctx, s.dialect.Rebind(`
			INSERT INTO visit_events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (member_id) DO UPDATE SET
				household_id = excluded.household_id,
				status = excluded.status,
				survey_answers = excluded.survey_answers,
				notes = excluded.notes,
				client_ts = excluded.client_ts,
				received_at = excluded.received_at,
				device_id = excluded.device_id,
				client_agent = excluded.client_agent,
				lat = excluded.lat,
				lng = excluded.lng,
				distance_meters = excluded.distance_meters,
				suspect = excluded.suspect
			WHERE visit_events.client_ts <= excluded.client_ts`),
			ev.MemberID, ev.HouseholdID, string(ev.Status), string(answers), ev.Notes,
			toMillis(ev.ClientTime), toMillis(ev.ReceivedAt), ev.DeviceID, ev.ClientAgent,
			ev.Geo.Lat, ev.Geo.Lng, ev.DistanceMeters, ev.Suspect,
		)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.MemberID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.MemberID, err)
		}
		if n == 0 {
			return nil
		}

		received := toMillis(ev.ReceivedAt)
		if _, err := s.q(ctx).ExecContext(ctx, s.dialect.Rebind(`
			UPDATE members SET last_status = ?, last_updated_at = ?, updated_at = ? WHERE id = ?`),
			string(ev.Status), received, received, ev.MemberID,
		); err != nil {
			return fmt.Errorf("update member status %s: %w", ev.MemberID, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) ListEvents(ctx context.Context, q models.EventQuery) ([]models.VisitEvent, error) {
	var (
		b     strings.Builder
		conds []string
		args  []any
	)
	if q.From != nil {
		conds = append(conds, `received_at >= ?`)
		args = append(args, toMillis(*q.From))
	}
	if q.To != nil {
		conds = append(conds, `received_at <= ?`)
		args = append(args, toMillis(*q.To))
	}
	if q.After != nil {
		at := toMillis(q.After.ReceivedAt)
		conds = append(conds, `(received_at > ? OR (received_at = ? AND member_id > ?))`)
		args = append(args, at, at, q.After.MemberID)
	}

	b.WriteString(`SELECT ` + eventColumns + ` FROM visit_events`)
	if len(conds) > 0 {
		b.WriteString(` WHERE ` + strings.Join(conds, ` AND `))
	}
	b.WriteString(` ORDER BY received_at, member_id`)
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.q(ctx).QueryContext(ctx, s.dialect.Rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]models.VisitEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func scanEvent(row rowScanner) (models.VisitEvent, error) {
	var (
		ev                 models.VisitEvent
		status             string
		answers            []byte
		clientTS, received int64
	)
	err := row.Scan(
		&ev.MemberID, &ev.HouseholdID, &status, &answers, &ev.Notes, &clientTS, &received,
		&ev.DeviceID, &ev.ClientAgent, &ev.Geo.Lat, &ev.Geo.Lng, &ev.DistanceMeters, &ev.Suspect,
	)
	if err != nil {
		return models.VisitEvent{}, err
	}
	ev.Status = models.Status(status)
	ev.SurveyAnswers = answers
	ev.ClientTime = fromMillis(clientTS)
	ev.ReceivedAt = fromMillis(received)
	return ev, nil
}
