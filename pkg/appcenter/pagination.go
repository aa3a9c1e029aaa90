package appcenter

import (
	"context"
	"fmt"
	"strings"
)

// Page is one page of a list endpoint: its items and the continuation link
// of the next page. An empty NextLink marks the last page.
type Page[T any] struct {
	Items    []T
	NextLink string
}

// PageFetcher fetches one page URL and returns the raw response body. The
// URL may be server-relative; the transport resolves it against the API
// endpoint.
type PageFetcher func(ctx context.Context, url string) ([]byte, error)

// PageDecoder decodes a raw page body into a Page. The items field name
// varies per endpoint, so each endpoint supplies its own decoder.
type PageDecoder[T any] func(body []byte) (Page[T], error)

// LinkRepairer rewrites a continuation link before it is followed.
type LinkRepairer func(next string) string

// RepairContinuationLink corrects the two known defects of continuation
// links served by list endpoints: a spurious "/api" path prefix, and a
// missing owner/app segment that leaves a literal "//" in the path. Each
// correction is applied exactly once.
func RepairContinuationLink(next, ownerName, appName string) string {
	if next == "" {
		return ""
	}

	repaired := strings.Replace(next, "/api", "", 1)
	repaired = strings.Replace(repaired, "//", "/"+ownerName+"/"+appName+"/", 1)

	return repaired
}

// AppLinkRepairer returns a LinkRepairer bound to one owner/app pair.
func AppLinkRepairer(ownerName, appName string) LinkRepairer {
	return func(next string) string {
		return RepairContinuationLink(next, ownerName, appName)
	}
}

// PageIterator provides lazy iteration over a nextLink-chained listing. It
// is a single forward pass: pages are fetched on demand, exactly once, and
// never cached. It is not safe for concurrent use.
type PageIterator[T any] struct {
	ctx    context.Context
	fetch  PageFetcher
	decode PageDecoder[T]
	repair LinkRepairer

	nextURL string
	buffer  []T
	pos     int
	done    bool
	err     error
}

// NewPageIterator creates an iterator starting at firstURL. The first URL is
// used as given; continuation links are passed through repair before being
// followed.
func NewPageIterator[T any](ctx context.Context, fetch PageFetcher, firstURL string, repair LinkRepairer, decode PageDecoder[T]) *PageIterator[T] {
	if repair == nil {
		repair = func(next string) string { return next }
	}

	return &PageIterator[T]{
		ctx:     ctx,
		fetch:   fetch,
		decode:  decode,
		repair:  repair,
		nextURL: firstURL,
	}
}

// HasNext returns true if there are more items. It fetches the next page
// when the current one is exhausted, so it may perform network I/O.
func (it *PageIterator[T]) HasNext() bool {
	if it.pos < len(it.buffer) {
		return true
	}

	for !it.done {
		if !it.fetchPage() {
			return false
		}

		if it.pos < len(it.buffer) {
			return true
		}
	}

	return false
}

// Next returns the next item. After the last item it returns ErrNoMoreItems;
// after a fetch or decode failure it keeps returning that error.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		if it.err != nil {
			return zero, it.err
		}

		return zero, ErrNoMoreItems
	}

	item := it.buffer[it.pos]
	it.pos++

	return item, nil
}

// All consumes the iterator and returns the remaining items in order.
func (it *PageIterator[T]) All() ([]T, error) {
	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if it.err != nil {
		return nil, it.err
	}

	return items, nil
}

// ForEach applies fn to each remaining item. An error from fn stops the
// iteration and is returned.
func (it *PageIterator[T]) ForEach(fn func(item T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return it.err
}

// Err returns the error that terminated the iteration, if any.
func (it *PageIterator[T]) Err() error {
	return it.err
}

// fetchPage loads the page at nextURL into the buffer. It reports false when
// the sequence is over, either exhausted or failed.
func (it *PageIterator[T]) fetchPage() bool {
	if it.nextURL == "" {
		it.done = true
		return false
	}

	body, err := it.fetch(it.ctx, it.nextURL)
	if err != nil {
		it.err = err
		it.done = true

		return false
	}

	page, err := it.decode(body)
	if err != nil {
		it.err = fmt.Errorf("decoding page: %w", err)
		it.done = true

		return false
	}

	it.buffer = page.Items
	it.pos = 0

	if page.NextLink == "" {
		it.nextURL = ""
		it.done = true
	} else {
		it.nextURL = it.repair(page.NextLink)
	}

	return true
}

// PageResult is one delivery of StreamPages: a whole page of items, or the
// error that ended the stream.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages fetches pages sequentially and delivers each one over the
// returned channel. The channel is closed after the last page, after an
// error delivery, or when ctx is canceled.
func StreamPages[T any](ctx context.Context, fetch PageFetcher, firstURL string, repair LinkRepairer, decode PageDecoder[T]) <-chan PageResult[T] {
	if repair == nil {
		repair = func(next string) string { return next }
	}

	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		url := firstURL
		for url != "" {
			body, err := fetch(ctx, url)
			if err != nil {
				deliver(ctx, results, PageResult[T]{Err: err})
				return
			}

			page, err := decode(body)
			if err != nil {
				deliver(ctx, results, PageResult[T]{Err: fmt.Errorf("decoding page: %w", err)})
				return
			}

			if !deliver(ctx, results, PageResult[T]{Items: page.Items}) {
				return
			}

			url = repair(page.NextLink)
		}
	}()

	return results
}

func deliver[T any](ctx context.Context, results chan<- PageResult[T], result PageResult[T]) bool {
	select {
	case results <- result:
		return true
	case <-ctx.Done():
		return false
	}
}
