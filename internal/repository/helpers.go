package repository

import (
	"errors"
	"regexp"

	"github.com/lib/pq"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent double-quotes a column name for Postgres, rejecting anything
// that is not a plain identifier. Caller-supplied column lists pass through
// here before they reach a query.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", errors.New("repository: invalid column name: " + name)
	}
	return `"` + name + `"`, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
