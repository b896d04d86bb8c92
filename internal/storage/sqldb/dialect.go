package sqldb

import (
	"strconv"
	"strings"

	"github.com/julianstephens/streakline/internal/constants"
)

// Dialect captures what differs between the SQL backends
type Dialect struct {
	Name   string
	Driver string
	// MigrationsDir is the subdirectory of migrations.FS holding the schema
	MigrationsDir string
	numbered      bool
}

var (
	SQLite = Dialect{
		Name:          constants.BackendSQLite,
		Driver:        "sqlite",
		MigrationsDir: "sqlite",
	}
	Postgres = Dialect{
		Name:          constants.BackendPostgres,
		Driver:        "postgres",
		MigrationsDir: "postgres",
		numbered:      true,
	}
)

// Placeholder renders the n-th (1-based) bind parameter
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites "?" parameters into the dialect's placeholder style.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
