package reader

import (
	"context"
	"errors"
	"iter"

	"github.com/rowkit/rowkit/pkg/row"
)

// ErrEndOfRows signals normal iteration exhaustion. It is an expected
// end-of-sequence marker, not a failure.
var ErrEndOfRows = errors.New("end of rows")

// Cursor is a forward-only, finite iteration over a table snapshot. The
// row count is fixed at Open time; the cache window slides forward as the
// cursor advances past it.
//
// Invariant: cacheMax-cacheMin+1 == len(cache), except on the final page
// when the table is exhausted.
type Cursor struct {
	reader   *Reader
	rowCount int64

	cache    []row.Row
	cacheMin int64
	cacheMax int64

	dataPos int64
}

// Count returns the total row count snapshotted when the cursor was opened.
func (c *Cursor) Count() int64 {
	return c.rowCount
}

// Next returns the row at the current logical offset and advances by one.
// It returns ErrEndOfRows once the snapshotted row count is reached, or
// earlier if rows disappeared from under the cursor mid-iteration.
func (c *Cursor) Next(ctx context.Context) (row.Row, error) {
	if c.dataPos >= c.rowCount {
		return row.Row{}, ErrEndOfRows
	}

	if c.dataPos < c.cacheMin || c.dataPos > c.cacheMax {
		// Cache miss: the position has advanced past the current window.
		page, err := c.reader.fetchPage(ctx, c.dataPos)
		if err != nil {
			return row.Row{}, err
		}
		c.cache = page
		c.cacheMin = c.dataPos
		c.cacheMax = c.dataPos + int64(len(page)) - 1

		if len(page) == 0 {
			// The table shrank since the count snapshot.
			return row.Row{}, ErrEndOfRows
		}
	}

	r := c.cache[c.dataPos-c.cacheMin]
	c.dataPos++
	return r, nil
}

// All returns a single-use iterator over the remaining rows. Iteration
// stops silently at end of rows; any other error is yielded alongside a
// zero row and terminates the sequence.
func (c *Cursor) All(ctx context.Context) iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		for {
			r, err := c.Next(ctx)
			if errors.Is(err, ErrEndOfRows) {
				return
			}
			if err != nil {
				yield(row.Row{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}
