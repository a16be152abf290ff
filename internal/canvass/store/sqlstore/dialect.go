package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the SQLite and PostgreSQL schemas.
type Dialect struct {
	Name         string
	DriverName   string
	MigrationDir string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool
}

var (
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite", MigrationDir: "sqlite"}
	Postgres = Dialect{Name: "postgres", DriverName: "postgres", MigrationDir: "postgres", Numbered: true}
)

// Rebind rewrites ? placeholders for the dialect. Queries in this package
// never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
