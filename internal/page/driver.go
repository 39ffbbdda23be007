// Package page drives cursor-based pagination against exchange listing
// endpoints until the resource is fully drained.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"cryptoexport/logger"
)

// ErrProtocol indicates a continuation reference that cannot be followed:
// either no cursor token could be extracted from it, or it points back at
// a cursor already fetched.
var ErrProtocol = errors.New("pagination protocol error")

// FetchFunc fetches one page of a resource. cursor is empty for the first
// call. next is the raw continuation reference returned by the API, empty
// when the page is terminal.
type FetchFunc func(ctx context.Context, cursor string) (records []json.RawMessage, next string, err error)

// Extractor derives the opaque cursor value from a raw continuation
// reference.
type Extractor func(next string) (string, error)

var startingAfterRe = regexp.MustCompile(`(?i)starting_after=([0-9a-f]{8}-(?:[0-9a-f]{4}-){3}[0-9a-f]{12})`)

// StartingAfter extracts the UUID-shaped starting_after token embedded in a
// continuation URI.
func StartingAfter(next string) (string, error) {
	m := startingAfterRe.FindStringSubmatch(next)
	if m == nil {
		return "", fmt.Errorf("%w: no starting_after token in continuation reference %q", ErrProtocol, next)
	}
	if _, err := uuid.Parse(m[1]); err != nil {
		return "", fmt.Errorf("%w: malformed cursor token %q", ErrProtocol, m[1])
	}
	return m[1], nil
}

// Opaque treats the continuation reference itself as the cursor.
func Opaque(next string) (string, error) {
	return next, nil
}

// Driver drains one paginated resource. Records are concatenated in fetch
// order, preserving the API's oldest-first ordering.
type Driver struct {
	Exchange string
	Resource string
	Extract  Extractor
	Limiter  *rate.Limiter
	Log      *logger.Log
}

// Drain repeatedly invokes fetch, following continuation cursors until a
// terminal page is reached. A repeated cursor is a fatal protocol error and
// stops the drain without another fetch call.
func (d *Driver) Drain(ctx context.Context, fetch FetchFunc) ([]json.RawMessage, error) {
	extract := d.Extract
	if extract == nil {
		extract = StartingAfter
	}
	log := d.log().WithComponent("pagination").WithFields(logger.Fields{
		"exchange": d.Exchange,
		"resource": d.Resource,
	})

	var collection []json.RawMessage
	seen := make(map[string]struct{})
	cursor := ""

	for pageNum := 1; ; pageNum++ {
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		records, next, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		collection = append(collection, records...)

		log.WithFields(logger.Fields{
			"page":    pageNum,
			"records": len(records),
			"total":   len(collection),
		}).Info("fetched page")

		if next == "" {
			return collection, nil
		}

		cursor, err = extract(next)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[cursor]; dup {
			return nil, fmt.Errorf("%w: repeated cursor %q on %s/%s", ErrProtocol, cursor, d.Exchange, d.Resource)
		}
		seen[cursor] = struct{}{}
	}
}

func (d *Driver) log() *logger.Log {
	if d.Log != nil {
		return d.Log
	}
	return logger.GetLogger()
}
