package store

import (
	"context"

	"lifeplanner/internal/backend"
)

// patch is a partial update that can be sent remotely and merged locally.
type patch[T any] interface {
	Validate() error
	Fields() map[string]any
	Apply(*T)
}

// insertRow creates row remotely and puts the server row into coll. A bulk
// load that ran meanwhile may already hold it; that copy is replaced.
func insertRow[T any](ctx context.Context, s *Store, op string, table backend.Table[T], row T, coll *[]T, idOf func(*T) string) (T, error) {
	var zero T
	sessionID, err := s.session()
	if err != nil {
		return zero, err
	}
	created, err := table.Insert(ctx, row)
	if err != nil {
		return zero, s.failed(op, err)
	}
	s.apply(sessionID, func() { *coll = upsert(*coll, created, idOf) })
	return created, nil
}

// upsert replaces the record with row's id, or appends row.
func upsert[T any](rows []T, row T, idOf func(*T) string) []T {
	id := idOf(&row)
	for i := range rows {
		if idOf(&rows[i]) == id {
			rows[i] = row
			return rows
		}
	}
	return append(rows, row)
}

// updateRow sends the patch and merges exactly its fields into the
// matching record of coll.
func updateRow[T any, P patch[T]](ctx context.Context, s *Store, op string, table backend.Table[T], id string, p P, coll *[]T, idOf func(*T) string) error {
	sessionID, err := s.session()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return s.failed(op, err)
	}
	if err := table.Update(ctx, id, p.Fields()); err != nil {
		return s.failed(op, err)
	}
	s.apply(sessionID, func() {
		for i := range *coll {
			if idOf(&(*coll)[i]) == id {
				p.Apply(&(*coll)[i])
			}
		}
	})
	return nil
}

// deleteRow removes id remotely and then from coll.
func deleteRow[T any](ctx context.Context, s *Store, op string, table backend.Table[T], id string, coll *[]T, idOf func(*T) string) error {
	sessionID, err := s.session()
	if err != nil {
		return err
	}
	if err := table.Delete(ctx, id); err != nil {
		return s.failed(op, err)
	}
	s.apply(sessionID, func() {
		*coll = filterOut(*coll, func(row *T) bool { return idOf(row) == id })
	})
	return nil
}

func filterOut[T any](rows []T, drop func(*T) bool) []T {
	out := rows[:0:0]
	for i := range rows {
		if !drop(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}
