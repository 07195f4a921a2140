package deps

import (
	"errors"
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/strrl/repo-context/pkg/models"
)

// Miss is an import that could not be resolved inside the snapshot.
type Miss struct {
	Source    string
	Specifier string
}

// Closure is the single-hop dependency expansion of a set of seeds.
type Closure struct {
	// Selection holds the seeds and every bundled dependency.
	Selection map[string]struct{}
	// ByCategory holds every resolved dependency, bundled or not.
	ByCategory map[models.Category][]string
	Unresolved []Miss
	Graph      graph.Graph[string, string]
	// GraphErr holds graph construction failures other than duplicates.
	// The selection is complete regardless; WriteDOT reports it.
	GraphErr error
}

// BuildClosure expands seeds by one import hop. Seeds missing from snap are
// skipped. Dependencies classified as other are reported in ByCategory but
// never selected.
func BuildClosure(seeds []string, snap *models.Snapshot) *Closure {
	c := &Closure{
		Selection:  make(map[string]struct{}),
		ByCategory: make(map[models.Category][]string),
		Graph:      graph.New(graph.StringHash, graph.Directed()),
	}
	idx := NewIndex(snap.Paths())
	seen := make(map[string]struct{})

	for _, seed := range seeds {
		file, ok := snap.File(seed)
		if !ok {
			continue
		}
		c.Selection[seed] = struct{}{}
		c.recordGraphErr(c.addVertex(seed, Classify(seed)))

		for _, spec := range ExtractSorted(file.Content) {
			target, ok := Resolve(spec, seed, idx)
			if !ok {
				c.Unresolved = append(c.Unresolved, Miss{Source: seed, Specifier: spec})
				continue
			}
			if target == seed {
				continue
			}
			cat := Classify(target)
			c.recordGraphErr(c.addVertex(target, cat))
			c.recordGraphErr(c.addEdge(seed, target, spec))

			if _, dup := seen[target]; !dup {
				seen[target] = struct{}{}
				c.ByCategory[cat] = append(c.ByCategory[cat], target)
			}
			if cat.Bundled() {
				c.Selection[target] = struct{}{}
			}
		}
	}
	return c
}

// addVertex tolerates vertices shared by several seeds.
func (c *Closure) addVertex(p string, cat models.Category) error {
	err := c.Graph.AddVertex(p, graph.VertexAttribute("category", string(cat)))
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("add vertex %s: %w", p, err)
	}
	return nil
}

// addEdge tolerates a file importing the same target through several
// specifiers.
func (c *Closure) addEdge(from, to, spec string) error {
	err := c.Graph.AddEdge(from, to, graph.EdgeAttribute("label", spec))
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("add edge %s -> %s: %w", from, to, err)
	}
	return nil
}

func (c *Closure) recordGraphErr(err error) {
	if err != nil {
		c.GraphErr = errors.Join(c.GraphErr, err)
	}
}

// Highlight converts the closure into highlight metadata around primary.
func (c *Closure) Highlight(primary string) models.Highlight {
	h := models.NewHighlight()
	h.Primary = primary
	for cat, paths := range c.ByCategory {
		for _, p := range paths {
			if p == primary {
				continue
			}
			h.Secondary[cat] = append(h.Secondary[cat], p)
		}
	}
	return h
}

// WriteDOT renders the dependency graph in Graphviz DOT format.
func (c *Closure) WriteDOT(w io.Writer) error {
	if c.GraphErr != nil {
		return fmt.Errorf("dependency graph is incomplete: %w", c.GraphErr)
	}
	return draw.DOT(c.Graph, w)
}
