// Package memstore keeps every repository in process memory. It follows
// the same contracts as the Mongo and Postgres adapters, lifecycle events
// included, and backs the service and handler tests.
package memstore

import (
	"cmp"
	"encoding/json"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type table[T any] struct {
	mu    sync.Mutex
	rows  []T
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{clone: clone}
}

func (t *table[T]) find(match func(T) bool, page domain.Page) []T {
	t.mu.Lock()
	var out []T
	for _, r := range t.rows {
		if match(r) {
			out = append(out, t.clone(r))
		}
	}
	t.mu.Unlock()

	sortRows(out, page.Sort)
	if page.Offset > 0 {
		if int(page.Offset) >= len(out) {
			return nil
		}
		out = out[page.Offset:]
	}
	if page.Limit > 0 && int(page.Limit) < len(out) {
		out = out[:page.Limit]
	}
	return out
}

func (t *table[T]) insert(v T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, t.clone(v))
	return t.clone(v)
}

// update applies mutate to every matching row and returns the prior and
// resulting snapshots, aligned by position.
func (t *table[T]) update(match func(T) bool, mutate func(*T)) (old, updated []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if !match(t.rows[i]) {
			continue
		}
		old = append(old, t.clone(t.rows[i]))
		mutate(&t.rows[i])
		updated = append(updated, t.clone(t.rows[i]))
	}
	return old, updated
}

func (t *table[T]) remove(match func(T) bool) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	var removed []T
	t.rows = slices.DeleteFunc(t.rows, func(r T) bool {
		if match(r) {
			removed = append(removed, t.clone(r))
			return true
		}
		return false
	})
	return removed
}

func (t *table[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// sortRows orders rows by their JSON field values, the in-memory stand-in
// for a store side sort on the same field names.
func sortRows[T any](rows []T, sorts []domain.Sort) {
	if len(sorts) == 0 || len(rows) < 2 {
		return
	}
	fields := make([]map[string]any, len(rows))
	for i, r := range rows {
		raw, _ := json.Marshal(r)
		_ = json.Unmarshal(raw, &fields[i])
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		for _, s := range sorts {
			c := compareAny(fields[a][s.Field], fields[b][s.Field])
			if s.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

func compareAny(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return cmp.Compare(av, bv)
	case float64:
		bv, _ := b.(float64)
		return cmp.Compare(av, bv)
	case bool:
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	default:
		return 0
	}
}

func isZero(filter any) bool {
	return reflect.ValueOf(filter).IsZero()
}

func setString(dst *string, o domain.Optional[string]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = ""
		return
	}
	*dst = *o.Value
}

func setRef[T any](dst **T, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

func setValue[T any](dst *T, o domain.Optional[T]) {
	if !o.Set {
		return
	}
	var zero T
	if o.Value == nil {
		*dst = zero
		return
	}
	*dst = *o.Value
}

func cloneRef[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// clock hands out strictly increasing timestamps so that lastUpdate always
// advances between two writes.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
