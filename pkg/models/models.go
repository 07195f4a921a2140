package models

import "sort"

// FileRecord is one file of a fetched repository snapshot
type FileRecord struct {
	Path    string
	Content string
}

// Category labels a resolved dependency by its architectural role
type Category string

const (
	CategoryComponent Category = "component"
	CategoryContext   Category = "context" // state containers
	CategoryHook      Category = "hook"    // reactive hooks
	CategoryLib       Category = "lib"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{CategoryComponent, CategoryContext, CategoryHook, CategoryLib, CategoryOther}

// Bundled reports whether dependencies of this category are selected automatically
func (c Category) Bundled() bool {
	return c != CategoryOther
}

// Highlight marks the entry file of a route and its direct dependencies
type Highlight struct {
	Primary   string // empty when no entry file was matched
	Secondary map[Category][]string
}

// NewHighlight returns an empty highlight with every category present
func NewHighlight() Highlight {
	h := Highlight{Secondary: make(map[Category][]string, len(Categories))}
	for _, c := range Categories {
		h.Secondary[c] = nil
	}
	return h
}

// Clone returns a deep copy safe to hand to another owner
func (h Highlight) Clone() Highlight {
	out := Highlight{Primary: h.Primary, Secondary: make(map[Category][]string, len(h.Secondary))}
	for c, paths := range h.Secondary {
		out.Secondary[c] = append([]string(nil), paths...)
	}
	return out
}

// SecondaryPaths flattens the secondary highlights in category order
func (h Highlight) SecondaryPaths() []string {
	var out []string
	for _, c := range Categories {
		out = append(out, h.Secondary[c]...)
	}
	return out
}

// TaskKind describes why a single file is requested
type TaskKind string

const (
	TaskImageReplace TaskKind = "image-replace"
	TaskIconReplace  TaskKind = "icon-replace"
	TaskErrorFix     TaskKind = "error-fix"
	TaskIdea         TaskKind = "idea"
)

// SingleFileTask pins a session to one target file and locks its selection
type SingleFileTask struct {
	TargetPath string
	Kind       TaskKind
}

// AutoSelect reports whether the target joins the selection once fetched.
// Visual replace flows only highlight it.
func (t SingleFileTask) AutoSelect() bool {
	return t.Kind == TaskErrorFix || t.Kind == TaskIdea
}

// Snapshot is the complete file set returned by one provider fetch
type Snapshot struct {
	files []FileRecord
	index map[string]int
}

// NewSnapshot indexes files by path. Later duplicates of a path are dropped.
func NewSnapshot(files []FileRecord) *Snapshot {
	s := &Snapshot{
		files: make([]FileRecord, 0, len(files)),
		index: make(map[string]int, len(files)),
	}
	for _, f := range files {
		if _, dup := s.index[f.Path]; dup {
			continue
		}
		s.index[f.Path] = len(s.files)
		s.files = append(s.files, f)
	}
	return s
}

// Len returns the number of files
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.files)
}

// Has reports whether path is part of the snapshot
func (s *Snapshot) Has(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[path]
	return ok
}

// File returns the record stored under path
func (s *Snapshot) File(path string) (FileRecord, bool) {
	if s == nil {
		return FileRecord{}, false
	}
	i, ok := s.index[path]
	if !ok {
		return FileRecord{}, false
	}
	return s.files[i], true
}

// Paths returns all paths in provider order
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.Path
	}
	return out
}

// Files returns a copy of the records in provider order
func (s *Snapshot) Files() []FileRecord {
	if s == nil {
		return nil
	}
	return append([]FileRecord(nil), s.files...)
}

// TotalBytes sums the content sizes
func (s *Snapshot) TotalBytes() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, f := range s.files {
		n += len(f.Content)
	}
	return n
}

// SortedKeys returns the members of a path set in ascending order
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
