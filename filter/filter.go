// Package filter provides node predicates applied to a dependency tree and a
// pipeline that composes them.
//
// A filter sees each node together with its ancestors, root first. Filters
// never modify the tree; they only decide which nodes a caller keeps.
package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albertocavalcante/go-depgraph/graph"
)

// Filter decides whether a node is accepted. parents holds the ancestors of
// n, root first, and must not be retained.
type Filter interface {
	Accept(n *graph.Node, parents []*graph.Node) bool
}

// Func adapts an ordinary function to a Filter.
type Func func(n *graph.Node, parents []*graph.Node) bool

// Accept calls f(n, parents).
func (f Func) Accept(n *graph.Node, parents []*graph.Node) bool {
	return f(n, parents)
}

// Pipeline applies filters in order. A node is accepted only when every
// filter accepts it.
//
// A filter that panics is skipped for that node, as if it had accepted it.
type Pipeline struct {
	filters []Filter
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. Nil filters are ignored.
func NewPipeline(filters ...Filter) *Pipeline {
	p := &Pipeline{logger: slog.New(discardHandler{})}
	for _, f := range filters {
		p.Add(f)
	}
	return p
}

// WithLogger sets the logger that reports skipped filters and returns p.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// Add appends f. A nil filter is ignored.
func (p *Pipeline) Add(f Filter) {
	if f != nil {
		p.filters = append(p.filters, f)
	}
}

// Insert places f at index i, shifting later filters right. A nil filter is
// ignored. Insert panics if i is out of range, like a slice index.
func (p *Pipeline) Insert(i int, f Filter) {
	if f == nil {
		return
	}
	p.filters = append(p.filters, nil)
	copy(p.filters[i+1:], p.filters[i:])
	p.filters[i] = f
}

// Clear removes all filters.
func (p *Pipeline) Clear() {
	p.filters = nil
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}

// Accept implements Filter.
func (p *Pipeline) Accept(n *graph.Node, parents []*graph.Node) bool {
	for _, f := range p.filters {
		if !p.safeAccept(f, n, parents) {
			return false
		}
	}
	return true
}

func (p *Pipeline) safeAccept(f Filter, n *graph.Node, parents []*graph.Node) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.LogAttrs(context.Background(), slog.LevelWarn, "skipping failing filter",
				slog.String("filter", fmt.Sprintf("%T", f)),
				slog.String("node", n.Artifact.String()),
				slog.Any("panic", r))
			ok = true
		}
	}()
	return f.Accept(n, parents)
}

// Apply walks the tree rooted at root and returns the accepted non-root nodes
// in pre-order. A rejected node does not hide its children; each node is
// judged on its own.
func (p *Pipeline) Apply(root *graph.Node) []*graph.Node {
	return Apply(root, p)
}

// Apply returns the non-root nodes of the tree rooted at root that f accepts,
// in pre-order. A nil filter accepts everything.
func Apply(root *graph.Node, f Filter) []*graph.Node {
	var out []*graph.Node
	root.Walk(func(n *graph.Node, parents []*graph.Node) bool {
		if n.IsRoot() {
			return true
		}
		if f == nil || f.Accept(n, parents) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// And accepts a node when all filters accept it. Nil filters are ignored.
func And(filters ...Filter) Filter {
	return Func(func(n *graph.Node, parents []*graph.Node) bool {
		for _, f := range filters {
			if f != nil && !f.Accept(n, parents) {
				return false
			}
		}
		return true
	})
}

// Or accepts a node when any filter accepts it. With no non-nil filters it
// accepts everything.
func Or(filters ...Filter) Filter {
	return Func(func(n *graph.Node, parents []*graph.Node) bool {
		active := false
		for _, f := range filters {
			if f == nil {
				continue
			}
			active = true
			if f.Accept(n, parents) {
				return true
			}
		}
		return !active
	})
}

// Not inverts f. A nil f yields a filter that rejects everything.
func Not(f Filter) Filter {
	return Func(func(n *graph.Node, parents []*graph.Node) bool {
		return f != nil && !f.Accept(n, parents)
	})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
