package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Graph maps each crawled page to the outbound links discovered on it, in
// document order. Keys keep their insertion order so reports list pages in
// the order they were crawled.
//
// Graph is not safe for concurrent use.
type Graph struct {
	order []string
	edges map[string][]string
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]string)}
}

// AddPage creates an empty entry for page. It is a no-op if the entry exists.
func (g *Graph) AddPage(page string) {
	if _, ok := g.edges[page]; ok {
		return
	}
	g.order = append(g.order, page)
	g.edges[page] = []string{}
}

// AddLinks appends targets to the entry for page, creating it if needed.
func (g *Graph) AddLinks(page string, targets ...string) {
	g.AddPage(page)
	g.edges[page] = append(g.edges[page], targets...)
}

// RemovePage deletes the entry for page.
func (g *Graph) RemovePage(page string) {
	if _, ok := g.edges[page]; !ok {
		return
	}
	delete(g.edges, page)
	for i, p := range g.order {
		if p == page {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Has reports whether page has an entry.
func (g *Graph) Has(page string) bool {
	_, ok := g.edges[page]
	return ok
}

// Pages returns the pages in insertion order.
func (g *Graph) Pages() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Links returns a copy of the outbound links recorded for page.
func (g *Graph) Links(page string) []string {
	links := g.edges[page]
	out := make([]string, len(links))
	copy(out, links)
	return out
}

// Len returns the number of pages in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, page := range g.order {
		c.AddLinks(page, g.edges[page]...)
	}
	return c
}

// MarshalJSON encodes the graph as an object of page to link arrays with
// the keys in insertion order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if g != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		for i, page := range g.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := enc.Encode(page); err != nil {
				return nil, err
			}
			buf.Truncate(buf.Len() - 1) // Encode appends a newline
			buf.WriteByte(':')
			if err := enc.Encode(g.edges[page]); err != nil {
				return nil, err
			}
			buf.Truncate(buf.Len() - 1)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of page to link arrays, keeping the key
// order of the document. null decodes to an empty graph.
func (g *Graph) UnmarshalJSON(data []byte) error {
	*g = *NewGraph()
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("graph: expected a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		page, ok := tok.(string)
		if !ok {
			return errors.New("graph: expected a page URL key")
		}
		var links []string
		if err := dec.Decode(&links); err != nil {
			return err
		}
		g.AddLinks(page, links...)
	}
	_, err = dec.Token()
	return err
}
