package repository

import (
	"database/sql"
	"fmt"
)

var errNoRows = sql.ErrNoRows

// searchClause builds an ILIKE condition over the given columns for a
// keyword search, returning the WHERE clause and its arguments.
func searchClause(search string, columns ...string) (string, []interface{}) {
	if search == "" {
		return "", nil
	}
	clause := " WHERE ("
	for i, col := range columns {
		if i > 0 {
			clause += " OR "
		}
		clause += fmt.Sprintf("%s ILIKE $1", col)
	}
	clause += ")"
	return clause, []interface{}{"%" + search + "%"}
}

// pageBounds normalises pagination inputs.
func pageBounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
