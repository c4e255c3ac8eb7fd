// Package listing holds the generic filter, paginate and fetch controller shared by every list
// page.
package listing

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/errors"
)

const DefaultPageSize = 10

// Filter serialises the entity-specific filter fields into query parameters.
type Filter interface {
	Values() url.Values
}

// Fetcher retrieves one page. The default uses Client and GETs Config.Path.
type Fetcher[T any] func(ctx context.Context, path string, query url.Values) (api.Page[T], error)

type Config[T any, F Filter] struct {
	Path string
	Size int
	// ZeroBasedPages sends page-1 in the query; the controller itself always counts from 1.
	ZeroBasedPages bool
	Defaults       func() F
	Notifier       Notifier
	Fetch          Fetcher[T]
}

// Controller holds the filter, page and current items of one list and reconciles them with the
// server. Only the response to the latest request is applied.
type Controller[T any, F Filter] struct {
	config Config[T, F]

	lock          sync.Mutex
	filter        F
	page          int
	totalPages    int
	totalElements int64
	items         []T
	seq           uint64
	closed        bool
}

func New[T any, F Filter](client *api.Client, config Config[T, F]) *Controller[T, F] {
	if config.Size <= 0 {
		config.Size = DefaultPageSize
	}
	if config.Notifier == nil {
		config.Notifier = LogNotifier{}
	}
	if config.Fetch == nil {
		config.Fetch = func(ctx context.Context, path string, query url.Values) (api.Page[T], error) {
			return api.Call[api.Page[T]](ctx, client, api.Get(path, query)).Unwrap()
		}
	}
	c := &Controller[T, F]{config: config, page: 1}
	if config.Defaults != nil {
		c.filter = config.Defaults()
	}
	return c
}

func (c *Controller[T, F]) Filter() F {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.filter
}

// SetFilter replaces the filter and moves back to the first page. It does not fetch.
func (c *Controller[T, F]) SetFilter(filter F) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.filter = filter
	c.page = 1
}

// Apply sets the filter and searches.
func (c *Controller[T, F]) Apply(ctx context.Context, filter F) error {
	c.SetFilter(filter)
	return c.Search(ctx)
}

// Items returns a copy of the current page's items.
func (c *Controller[T, F]) Items() []T {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.items)
}

func (c *Controller[T, F]) Page() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.page
}

func (c *Controller[T, F]) Size() int {
	return c.config.Size
}

func (c *Controller[T, F]) TotalPages() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.totalPages
}

func (c *Controller[T, F]) TotalElements() int64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.totalElements
}

func (c *Controller[T, F]) CanPrev() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.page > 1
}

func (c *Controller[T, F]) CanNext() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.page < c.totalPages
}

// Search fetches the current page for the current filter.
func (c *Controller[T, F]) Search(ctx context.Context) error {
	c.lock.Lock()
	page := c.page
	c.lock.Unlock()
	return c.fetch(ctx, page)
}

// Reset restores the default filter and searches the first page.
func (c *Controller[T, F]) Reset(ctx context.Context) error {
	c.lock.Lock()
	var filter F
	if c.config.Defaults != nil {
		filter = c.config.Defaults()
	}
	c.filter = filter
	c.page = 1
	c.lock.Unlock()
	return c.fetch(ctx, 1)
}

func (c *Controller[T, F]) Next(ctx context.Context) error {
	return c.GoTo(ctx, c.Page()+1)
}

func (c *Controller[T, F]) Prev(ctx context.Context) error {
	return c.GoTo(ctx, c.Page()-1)
}

// GoTo fetches page n. Pages outside 1..TotalPages are rejected without a request.
func (c *Controller[T, F]) GoTo(ctx context.Context, n int) error {
	c.lock.Lock()
	totalPages := c.totalPages
	c.lock.Unlock()
	if n < 1 || n > totalPages {
		return fmt.Errorf("[Controller GoTo] page %d of %d: %w", n, totalPages, errors.ErrPageOutOfRange)
	}
	return c.fetch(ctx, n)
}

// Close marks the list as gone. Responses arriving afterwards are dropped.
func (c *Controller[T, F]) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
}

func (c *Controller[T, F]) fetch(ctx context.Context, page int) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return fmt.Errorf("[Controller Search] list closed: %w", errors.ErrStaleResponse)
	}
	c.seq++
	seq := c.seq
	query := c.query(page)
	c.lock.Unlock()

	result, err := c.config.Fetch(ctx, c.config.Path, query)

	c.lock.Lock()
	if c.closed || seq != c.seq {
		c.lock.Unlock()
		return fmt.Errorf("[Controller Search] response %d superseded: %w", seq, errors.ErrStaleResponse)
	}
	if err != nil {
		c.lock.Unlock()
		c.config.Notifier.Notify(Notification{Level: LevelError, Message: errorMessage(err), Err: err})
		return err
	}

	c.items = result.Content
	if c.items == nil {
		c.items = []T{}
	}
	c.totalElements = result.TotalElements
	c.totalPages = result.PageCount(c.config.Size)
	c.page = page
	c.lock.Unlock()
	return nil
}

// query must be called with the lock held.
func (c *Controller[T, F]) query(page int) url.Values {
	q := maps.Clone(c.filter.Values())
	if q == nil {
		q = url.Values{}
	}
	queryPage := page
	if c.config.ZeroBasedPages {
		queryPage = page - 1
	}
	q.Set("page", strconv.Itoa(queryPage))
	q.Set("size", strconv.Itoa(c.config.Size))
	return q
}

func errorMessage(err error) string {
	var detail *api.ErrorDetail
	if errors.As(err, &detail) {
		if errors.Is(detail, errors.ErrTransport) {
			return "Could not reach the server"
		}
		return detail.Message
	}
	return err.Error()
}
