package assessment

import "strings"

// ValidationError reports every violated input constraint together rather
// than failing on the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Problems, "; ")
}
