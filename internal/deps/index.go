package deps

// Index is a lookup set over every path of a snapshot.
type Index struct {
	paths map[string]struct{}
}

// NewIndex builds an index over paths.
func NewIndex(paths []string) *Index {
	idx := &Index{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		idx.paths[p] = struct{}{}
	}
	return idx
}

// Has reports whether p is a known path.
func (i *Index) Has(p string) bool {
	if i == nil {
		return false
	}
	_, ok := i.paths[p]
	return ok
}

// Len returns the number of indexed paths.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.paths)
}
