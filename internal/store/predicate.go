package store

import (
	"net/http"
	"regexp"

	"go-payroll/internal/shared/apperror"
)

// Predicate filters records in memory after they are loaded.
type Predicate func(Record) bool

// All combines predicates; nil entries are ignored.
func All(preds ...Predicate) Predicate {
	return func(r Record) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}

// FieldEquals compares the stored text of a field, so 1001 and "1001" match.
func FieldEquals(field, value string) Predicate {
	if value == "" {
		return nil
	}
	return func(r Record) bool {
		return r.String(field) == value
	}
}

// MatchAny is a case-insensitive regex search over the given fields.
func MatchAny(pattern string, fields ...string) (Predicate, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "invalid search pattern", http.StatusBadRequest)
	}
	return func(r Record) bool {
		for _, f := range fields {
			if re.MatchString(r.String(f)) {
				return true
			}
		}
		return false
	}, nil
}
