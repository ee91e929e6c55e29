// Package handlers implements the request handlers behind the route table.
// Each handler struct receives its collections and collaborators explicitly;
// there is no package-level state.
package handlers

import (
	"regexp"
	"strings"

	"github.com/pizzapizza/pizzeria/api"
)

// Deliberately loose; the definitive check is whether mail arrives.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func validZip(s string) bool {
	return len(s) == 4 || len(s) == 5
}

const minPasswordLength = 6

func authError() *api.Error {
	return api.Forbidden("missing or invalid bearer token")
}

// fieldErrors collects the names of invalid parameters for an itemized
// complaint.
type fieldErrors []string

func (f *fieldErrors) add(name string) {
	*f = append(*f, name)
}

func (f fieldErrors) err() *api.Error {
	if len(f) == 0 {
		return nil
	}
	return api.BadRequest("one or more params are invalid: " + strings.Join(f, ", "))
}
