package db

import "context"

// IsolateReads runs fn under a savepoint and always rolls back to it. fn must
// only read: a statement that fails inside it leaves the surrounding
// transaction usable instead of aborted.
func IsolateReads(ctx context.Context, q Querier, name string, fn func(q Querier)) error {
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	fn(q)
	if _, err := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}
