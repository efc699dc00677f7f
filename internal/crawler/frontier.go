package crawler

import (
	"container/list"
	"fmt"
	"strings"
)

// Order selects the visiting order of discovered links.
type Order int

const (
	// DepthFirst visits the first link of a page, and everything reachable
	// from it, before the page's second link.
	DepthFirst Order = iota

	// BreadthFirst visits all pages of one depth before the next depth.
	BreadthFirst
)

// String returns the configuration name of the order.
func (o Order) String() string {
	switch o {
	case DepthFirst:
		return "depth-first"
	case BreadthFirst:
		return "breadth-first"
	default:
		return "unknown"
	}
}

// ParseOrder converts "depth-first" or "breadth-first" to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "depth-first", "dfs", "":
		return DepthFirst, nil
	case "breadth-first", "bfs":
		return BreadthFirst, nil
	default:
		return DepthFirst, fmt.Errorf("unknown crawl order %q", s)
	}
}

// queueItem is one pending (url, depth) pair.
type queueItem struct {
	url   string
	depth int
}

// frontier is the work-list of pending items. Items are always taken from
// the front; the order policy decides where children go.
type frontier struct {
	order Order
	items *list.List
}

func newFrontier(order Order) *frontier {
	return &frontier{order: order, items: list.New()}
}

func (f *frontier) len() int {
	return f.items.Len()
}

func (f *frontier) pop() queueItem {
	return f.items.Remove(f.items.Front()).(queueItem) //nolint:forcetypeassert // only queueItem is stored
}

// pushBack appends an item; used for seeds.
func (f *frontier) pushBack(it queueItem) {
	f.items.PushBack(it)
}

// pushNext makes it the next item to be processed; used for redirects.
func (f *frontier) pushNext(it queueItem) {
	f.items.PushFront(it)
}

// pushChildren queues the links of one page, keeping their document order
// among themselves.
func (f *frontier) pushChildren(urls []string, depth int) {
	if f.order == BreadthFirst {
		for _, u := range urls {
			f.items.PushBack(queueItem{url: u, depth: depth})
		}
		return
	}
	for i := len(urls) - 1; i >= 0; i-- {
		f.items.PushFront(queueItem{url: urls[i], depth: depth})
	}
}
