package bundle

import (
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/strrl/repo-context/internal/deps"
	"github.com/strrl/repo-context/pkg/models"
)

// Marks used in tree and table output
const (
	MarkSelected  = "*"
	MarkPrimary   = "P"
	MarkSecondary = "+"
)

// Marker returns the flags shown next to p
func Marker(p string, selected map[string]struct{}, h models.Highlight) string {
	var b strings.Builder
	if _, ok := selected[p]; ok {
		b.WriteString(MarkSelected)
	}
	if h.Primary != "" && h.Primary == p {
		b.WriteString(MarkPrimary)
	} else {
		for _, s := range h.SecondaryPaths() {
			if s == p {
				b.WriteString(MarkSecondary)
				break
			}
		}
	}
	return b.String()
}

// Tree renders the snapshot paths as a nested directory list
func Tree(snap *models.Snapshot, selection []string, h models.Highlight) string {
	paths := snap.Paths()
	sort.Strings(paths)
	selected := toSet(selection)

	w := list.NewWriter()
	w.SetStyle(list.StyleConnectedLight)

	var open []string
	for _, p := range paths {
		parts := strings.Split(p, "/")
		dirs, name := parts[:len(parts)-1], parts[len(parts)-1]

		common := 0
		for common < len(open) && common < len(dirs) && open[common] == dirs[common] {
			common++
		}
		for len(open) > common {
			w.UnIndent()
			open = open[:len(open)-1]
		}
		for _, d := range dirs[common:] {
			w.AppendItem(d + "/")
			w.Indent()
			open = append(open, d)
		}

		item := name
		if mark := Marker(p, selected, h); mark != "" {
			item += " [" + mark + "]"
		}
		w.AppendItem(item)
	}
	return w.Render()
}

// Table renders one row per snapshot file with its category, size and marks
func Table(snap *models.Snapshot, selection []string, h models.Highlight) string {
	selected := toSet(selection)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"Path", "Category", "Size", "Mark"})
	for _, f := range snap.Files() {
		tbl.AppendRow(table.Row{
			f.Path,
			string(deps.Classify(f.Path)),
			humanize.Bytes(uint64(len(f.Content))),
			Marker(f.Path, selected, h),
		})
	}
	tbl.AppendFooter(table.Row{"Total", "", humanize.Bytes(uint64(snap.TotalBytes())), Summary(snap, selection)})
	return tbl.Render()
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
