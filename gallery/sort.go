package gallery

import (
	"fmt"
	"strings"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortSpec orders the post query. It is passed to the repository untouched.
type SortSpec struct {
	Field     string
	Direction string
}

// DefaultSort is newest id first.
var DefaultSort = SortSpec{Field: ColumnID, Direction: SortDesc}

// sortableFields is the allow-list for request-supplied sort fields.
var sortableFields = map[string]struct{}{
	ColumnID: {},
}

// ParseSort validates request values against the sortable columns.
// Empty values fall back to DefaultSort.
func ParseSort(field, direction string) (SortSpec, error) {
	spec := DefaultSort
	if f := strings.ToLower(strings.TrimSpace(field)); f != "" {
		if _, ok := sortableFields[f]; !ok {
			return DefaultSort, fmt.Errorf("%w: field %q", ErrInvalidSort, field)
		}
		spec.Field = f
	}
	if d := strings.ToLower(strings.TrimSpace(direction)); d != "" {
		if d != SortAsc && d != SortDesc {
			return DefaultSort, fmt.Errorf("%w: direction %q", ErrInvalidSort, direction)
		}
		spec.Direction = d
	}
	return spec, nil
}

// Toggle returns the spec with the opposite direction.
func (s SortSpec) Toggle() SortSpec {
	if s.Direction == SortAsc {
		s.Direction = SortDesc
	} else {
		s.Direction = SortAsc
	}
	return s
}
