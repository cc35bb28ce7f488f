package domain

import "strings"

type Sort struct {
	Field      string
	Descending bool
}

// Page bounds a listing. Zero values mean natural store order, no offset
// and no limit.
type Page struct {
	Limit  int64
	Offset int64
	Sort   []Sort
}

// ParseSort turns "NAME:DESC,CREATION_DATE" into store fields, rejecting
// keys missing from the given Sortable*Fields map.
func ParseSort(raw string, fields map[string]string) ([]Sort, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var sorts []Sort
	for _, part := range strings.Split(raw, ",") {
		key, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		field, ok := fields[strings.ToUpper(key)]
		if !ok {
			return nil, Errorf(ErrValidation, "invalid sort field %q", key)
		}
		s := Sort{Field: field}
		switch strings.ToUpper(dir) {
		case "", "ASC":
		case "DESC":
			s.Descending = true
		default:
			return nil, Errorf(ErrValidation, "invalid sort direction %q", dir)
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}
