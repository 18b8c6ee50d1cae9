package database

import (
	"fmt"
	"strings"
)

// Conds accumulates AND-ed WHERE clauses with positional arguments.
type Conds struct {
	clauses []string
	Args    []interface{}
}

// Add appends a clause. Each %s in format is replaced by the placeholder
// of the matching arg, e.g. Add("city ILIKE %s", v) → "city ILIKE $1".
func (c *Conds) Add(format string, args ...interface{}) {
	ph := make([]interface{}, len(args))
	for i, a := range args {
		ph[i] = c.Arg(a)
	}
	c.clauses = append(c.clauses, fmt.Sprintf(format, ph...))
}

// Arg registers a and returns its placeholder.
func (c *Conds) Arg(a interface{}) string {
	c.Args = append(c.Args, a)
	return fmt.Sprintf("$%d", len(c.Args))
}

// Where renders " WHERE ..." or "" when there are no clauses.
func (c *Conds) Where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a LIKE pattern matching s anywhere, with wildcards in s escaped.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
