package domain

type Op string

const (
	OpInsert Op = "Insert"
	OpUpdate Op = "Update"
	OpDelete Op = "Delete"
)

// Event is anything published on the lifecycle bus.
type Event interface {
	Topic() string
}

// Change is the lifecycle event emitted after every successful store
// mutation. For updates New and Old are aligned by position.
type Change[T any] struct {
	Kind Kind `json:"kind"`
	Op   Op   `json:"op"`
	New  []T  `json:"new,omitempty"`
	Old  []T  `json:"old,omitempty"`
}

func (c Change[T]) Topic() string {
	return Topic(c.Kind, c.Op)
}

func Topic(kind Kind, op Op) string {
	return string(kind) + "/" + string(op)
}

func Inserted[T any](kind Kind, items ...T) Change[T] {
	return Change[T]{Kind: kind, Op: OpInsert, New: items}
}

func Updated[T any](kind Kind, old, updated []T) Change[T] {
	return Change[T]{Kind: kind, Op: OpUpdate, New: updated, Old: old}
}

func Deleted[T any](kind Kind, old ...T) Change[T] {
	return Change[T]{Kind: kind, Op: OpDelete, Old: old}
}

// StateChange is emitted when a domain state is set or removed.
type StateChange struct {
	Domain  string `json:"domain"`
	State   State  `json:"state"`
	Removed bool   `json:"removed"`
}

func (StateChange) Topic() string {
	return Topic(KindState, OpUpdate)
}
