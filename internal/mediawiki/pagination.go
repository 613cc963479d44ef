package mediawiki

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/wikivault/wikivault/internal/logger"
)

// FetchFunc issues one API request with the given parameters.
type FetchFunc func(ctx context.Context, params url.Values) (*Response, error)

// ProgressFunc is called once per fetched batch with the batch number
// (starting at 1) and the number of items it contained. A panic inside the
// callback is logged and swallowed; it never aborts iteration.
type ProgressFunc func(batch, items int)

// Pager is a lazy, finite, forward-only iterator over a list-style API
// endpoint. It issues one fetch per batch and merges the server-supplied
// continuation token into the next request's parameters, terminating when a
// response carries no continuation marker.
type Pager struct {
	fetch    FetchFunc
	params   url.Values
	path     []string
	progress ProgressFunc

	items []json.RawMessage
	pos   int
	batch int
	done  bool
}

// NewPager creates a pager over the endpoint described by params. path names
// where within each response the item collection lives, e.g.
// "query", "recentchanges".
func NewPager(fetch FetchFunc, params url.Values, path ...string) *Pager {
	copied := url.Values{}
	for k, vs := range params {
		copied[k] = append([]string(nil), vs...)
	}
	return &Pager{
		fetch:  fetch,
		params: copied,
		path:   path,
	}
}

// OnProgress registers a per-batch progress callback.
func (p *Pager) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

// Next returns the next item. The second return value is false when the
// sequence is exhausted. Cancellation is checked between batches.
func (p *Pager) Next(ctx context.Context) (json.RawMessage, bool, error) {
	for p.pos >= len(p.items) {
		if p.done {
			return nil, false, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := p.fetchBatch(ctx); err != nil {
			return nil, false, err
		}
	}

	item := p.items[p.pos]
	p.pos++
	return item, true, nil
}

// fetchBatch issues one request and loads its items.
func (p *Pager) fetchBatch(ctx context.Context) error {
	resp, err := p.fetch(ctx, p.params)
	if err != nil {
		return err
	}

	items, err := resp.Items(p.path...)
	if err != nil {
		return err
	}

	p.batch++
	p.items = items
	p.pos = 0
	p.notify(p.batch, len(items))

	token, ok, err := resp.Continuation()
	if err != nil {
		return err
	}
	if !ok {
		p.done = true
		return nil
	}
	for k, v := range token {
		p.params.Set(k, v)
	}
	return nil
}

// notify invokes the progress callback, recovering any panic.
func (p *Pager) notify(batch, items int) {
	if p.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("progress callback panicked: %v", r)
		}
	}()
	p.progress(batch, items)
}
