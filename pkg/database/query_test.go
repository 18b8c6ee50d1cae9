package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondsWhere(t *testing.T) {
	var c Conds
	assert.Equal(t, "", c.Where())

	c.Add("city ILIKE %s", Contains("new"))
	c.Add("genres && %s", []string{"jazz"})
	c.Add("is_available = %s", true)

	assert.Equal(t, " WHERE city ILIKE $1 AND genres && $2 AND is_available = $3", c.Where())
	assert.Len(t, c.Args, 3)
	assert.Equal(t, "$4", c.Arg(10))
}

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%%`, Contains("100%"))
	assert.Equal(t, `%a\_b%`, Contains("a_b"))
	assert.Equal(t, `%c:\\dir%`, Contains(`c:\dir`))
}
