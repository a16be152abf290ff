package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fieldsync/internal/canvass/models"
	"fieldsync/pkg/platform/sentinel"
)

const memberColumns = `seq, id, household_id, first_name, middle_name, last_name,
	line1, line2, city, state, zip, latitude, longitude,
	precinct, county, party, age, sex, last_status, last_updated_at, created_at, updated_at`

// rosterColumns are the imported fields an upsert overwrites, in the order
// rosterArgs binds them.
var rosterColumns = []string{
	"household_id", "first_name", "middle_name", "last_name",
	"line1", "line2", "city", "state", "zip",
	"latitude", "longitude", "precinct", "county", "party", "age", "sex",
}

func rosterArgs(m *models.Member) []any {
	return []any{
		m.HouseholdID, m.FirstName, m.MiddleName, m.LastName,
		m.Address.Line1, m.Address.Line2, m.Address.City, m.Address.State, m.Address.Zip,
		nullFloat(m.Latitude), nullFloat(m.Longitude), m.Precinct, m.County, m.Party,
		nullInt(m.Age), m.Sex,
	}
}

// updateMemberSQL overwrites the roster fields only when one of them differs,
// so an identical re-import leaves updated_at alone.
var updateMemberSQL = func() string {
	set := make([]string, len(rosterColumns))
	changed := make([]string, len(rosterColumns))
	for i, col := range rosterColumns {
		set[i] = col + " = ?"
		changed[i] = col + " IS DISTINCT FROM ?"
	}
	return `UPDATE members SET ` + strings.Join(set, ", ") + `, search_text = ?, updated_at = ?
		WHERE id = ? AND (` + strings.Join(changed, " OR ") + `)`
}()

// UpsertMember inserts m, or on id conflict overwrites its roster fields.
// last_status and last_updated_at are only ever written by ApplyVisit.
func (s *Store) UpsertMember(ctx context.Context, m *models.Member) (bool, error) {
	status := m.LastStatus
	if status == "" {
		status = models.StatusUnvisited
	}
	args := append([]any{m.ID}, rosterArgs(m)...)
	args = append(args, m.SearchText(), string(status), toMillis(m.CreatedAt), toMillis(m.UpdatedAt))
	res, err := s.q(ctx).ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO members (
			id, `+strings.Join(rosterColumns, ", ")+`,
			search_text, last_status, created_at, updated_at
		) VALUES (?`+strings.Repeat(", ?", len(args)-1)+`)
		ON CONFLICT (id) DO NOTHING`), args...)
	if err != nil {
		return false, fmt.Errorf("insert member %s: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("insert member %s: %w", m.ID, err)
	} else if n == 1 {
		return true, nil
	}

	args = append(rosterArgs(m), m.SearchText(), toMillis(m.UpdatedAt), m.ID)
	args = append(args, rosterArgs(m)...)
	if _, err := s.q(ctx).ExecContext(ctx, s.dialect.Rebind(updateMemberSQL), args...); err != nil {
		return false, fmt.Errorf("update member %s: %w", m.ID, err)
	}
	return false, nil
}

func (s *Store) FindMember(ctx context.Context, id string) (*models.Member, error) {
	row := s.q(ctx).QueryRowContext(ctx, s.dialect.Rebind(`SELECT `+memberColumns+` FROM members WHERE id = ?`), id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find member %s: %w", id, err)
	}
	return &m, nil
}

// FindMembers looks ids up in one query: = ANY on PostgreSQL, IN (...) on SQLite.
func (s *Store) FindMembers(ctx context.Context, ids []string) (map[string]models.Member, error) {
	out := make(map[string]models.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var (
		query string
		args  []any
	)
	if s.dialect.Numbered {
		query = `SELECT ` + memberColumns + ` FROM members WHERE id = ANY(?)`
		args = []any{pq.Array(ids)}
	} else {
		query = `SELECT ` + memberColumns + ` FROM members WHERE id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)`
		args = make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
	}

	members, err := s.queryMembers(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	for _, m := range members {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Store) ListHousehold(ctx context.Context, householdID string) ([]models.Member, error) {
	members, err := s.queryMembers(ctx, s.dialect.Rebind(`SELECT `+memberColumns+`
		FROM members WHERE household_id = ? ORDER BY last_name, first_name, seq`), householdID)
	if err != nil {
		return nil, fmt.Errorf("list household %s: %w", householdID, err)
	}
	return members, nil
}

func (s *Store) ListMembers(ctx context.Context, q models.MemberQuery) ([]models.Member, error) {
	var b strings.Builder
	args := []any{q.AfterSeq}
	b.WriteString(`SELECT ` + memberColumns + ` FROM members WHERE seq > ?`)

	if search := strings.TrimSpace(q.Search); search != "" {
		b.WriteString(` AND search_text LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(search))
	}
	b.WriteString(` ORDER BY seq`)
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	members, err := s.queryMembers(ctx, s.dialect.Rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]models.Member, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (models.Member, error) {
	var (
		m                   models.Member
		lat, lng            sql.NullFloat64
		age, lastUpdated    sql.NullInt64
		status              string
		createdAt, updateAt int64
	)
	err := row.Scan(
		&m.Seq, &m.ID, &m.HouseholdID, &m.FirstName, &m.MiddleName, &m.LastName,
		&m.Address.Line1, &m.Address.Line2, &m.Address.City, &m.Address.State, &m.Address.Zip,
		&lat, &lng, &m.Precinct, &m.County, &m.Party, &age, &m.Sex,
		&status, &lastUpdated, &createdAt, &updateAt,
	)
	if err != nil {
		return models.Member{}, err
	}
	if lat.Valid {
		m.Latitude = &lat.Float64
	}
	if lng.Valid {
		m.Longitude = &lng.Float64
	}
	if age.Valid {
		a := int(age.Int64)
		m.Age = &a
	}
	if lastUpdated.Valid {
		t := fromMillis(lastUpdated.Int64)
		m.LastUpdatedAt = &t
	}
	m.LastStatus = models.Status(status).OrUnvisited()
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updateAt)
	return m, nil
}
