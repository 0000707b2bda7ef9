package collect

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/TobiSchelling/MyTube/internal/logging"
)

// CursorStore persists the rotation cursor so separate processes continue
// where the last one stopped.
type CursorStore interface {
	RotationCursor(ctx context.Context) (int, error)
	SetRotationCursor(ctx context.Context, cursor int) error
}

// QueryRotator picks the queries for each replenishment. The first skip
// queries belong to the bootstrap load; later calls walk the remainder with
// a wrapping cursor so consecutive replenishments search different topics.
type QueryRotator struct {
	mu      sync.Mutex
	queries []string
	skip    int
	max     int
	cursor  int
	cursors CursorStore
	shuffle func([]string)
}

// NewQueryRotator creates a rotator over queries. max bounds the number of
// queries returned per call. cursors may be nil, in which case the cursor
// lives in memory and restarts at zero with the process.
func NewQueryRotator(queries []string, skip, max int, cursors CursorStore) *QueryRotator {
	if skip < 0 {
		skip = 0
	}
	if max <= 0 {
		max = 1
	}
	return &QueryRotator{
		queries: append([]string(nil), queries...),
		skip:    skip,
		max:     max,
		cursors: cursors,
		shuffle: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

// Bootstrap returns the queries reserved for the initial load.
func (q *QueryRotator) Bootstrap() []string {
	n := min(q.skip, len(q.queries))
	return append([]string(nil), q.queries[:n]...)
}

// Next returns up to max queries for one replenishment. When nothing is
// left after the bootstrap queries, the full set is shuffled and reused.
// A cursor store that fails to load or save is logged and the in-memory
// cursor is used instead.
func (q *QueryRotator) Next(ctx context.Context) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queries) == 0 {
		return nil
	}

	if q.skip >= len(q.queries) {
		all := append([]string(nil), q.queries...)
		q.shuffle(all)
		return all[:min(q.max, len(all))]
	}

	if q.cursors != nil {
		if c, err := q.cursors.RotationCursor(ctx); err != nil {
			logging.Warn().Err(err).Msg("loading rotation cursor, using in-memory cursor")
		} else {
			q.cursor = c
		}
	}

	rest := q.queries[q.skip:]
	// The query list may have shrunk since the cursor was stored.
	start := q.cursor % len(rest)
	if start < 0 {
		start = 0
	}
	n := min(q.max, len(rest))
	out := make([]string, n)
	for i := range out {
		out[i] = rest[(start+i)%len(rest)]
	}
	q.cursor = (start + n) % len(rest)

	if q.cursors != nil {
		if err := q.cursors.SetRotationCursor(ctx, q.cursor); err != nil {
			logging.Warn().Err(err).Msg("saving rotation cursor")
		}
	}
	return out
}
