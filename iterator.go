package rexster

import "context"

// Iterator is a lazy, single-pass sequence built from one collection
// response. Items are produced one at a time as Next is called; for vertices
// and edges that means one element fetch per item. An exhausted iterator
// stays exhausted: iterating again requires a new call, which re-issues the
// collection fetch.
//
//	it, err := g.Vertices(ctx)
//	if err != nil { ... }
//	for it.Next(ctx) {
//		v := it.Value()
//	}
//	if err := it.Err(); err != nil { ... }
//
// An Iterator is not safe for concurrent use.
type Iterator[T any] struct {
	records []map[string]any
	build   func(ctx context.Context, record map[string]any) (T, error)

	total int
	pos   int
	cur   T
	err   error
	done  bool
}

func newIterator[T any](records []map[string]any, build func(context.Context, map[string]any) (T, error)) *Iterator[T] {
	return &Iterator[T]{records: records, build: build, total: len(records)}
}

// Next advances to the next item. It returns false when the sequence is
// exhausted or an item could not be built; Err tells the two apart.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	if it.pos >= len(it.records) {
		it.finish()
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		it.finish()
		return false
	}

	record := it.records[it.pos]
	it.pos++

	v, err := it.build(ctx, record)
	if err != nil {
		it.err = err
		it.finish()
		return false
	}
	it.cur = v
	return true
}

// Value returns the item produced by the last successful Next.
func (it *Iterator[T]) Value() T {
	return it.cur
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Len returns the number of records in the underlying response, consumed or
// not.
func (it *Iterator[T]) Len() int {
	return it.total
}

// Collect drains the iterator into a slice.
func (it *Iterator[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Value())
	}
	return out, it.Err()
}

func (it *Iterator[T]) finish() {
	var zero T
	it.cur = zero
	it.records = nil
	it.done = true
}
