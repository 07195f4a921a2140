// Package bundle turns a selection into the markdown context handed to a
// language model.
package bundle

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/strrl/repo-context/pkg/models"
)

// ContextHeader separates the task text from the file blocks
const ContextHeader = "Code context for analysis:\n"

var languages = map[string]string{
	"ts": "typescript", "tsx": "typescript",
	"js": "javascript", "jsx": "javascript",
	"py": "python", "css": "css", "scss": "scss", "html": "html",
	"json": "json", "md": "markdown", "sql": "sql",
	"php": "php", "rb": "ruby", "go": "go", "java": "java",
	"cs": "csharp", "sh": "bash", "yml": "yaml", "yaml": "yaml",
}

// Language returns the fence language for p
func Language(p string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return "plaintext"
}

// Block renders one file as a fenced block whose first line is a
// "// /path" comment. The comment is not repeated when the content
// already starts with it.
func Block(f models.FileRecord) string {
	comment := "// /" + f.Path
	content := f.Content
	if !strings.HasPrefix(strings.TrimLeft(content, " \t\r\n"), comment) {
		content = comment + "\n" + content
	}
	return fmt.Sprintf("```%s\n%s\n```", Language(f.Path), content)
}

// Assemble renders the selected files of snap sorted by path, preceded by
// task and the context header. Paths missing from snap are skipped.
func Assemble(task string, snap *models.Snapshot, selection []string) string {
	paths := append([]string(nil), selection...)
	sort.Strings(paths)

	blocks := make([]string, 0, len(paths))
	var last string
	for _, p := range paths {
		if p == last {
			continue
		}
		last = p
		if f, ok := snap.File(p); ok {
			blocks = append(blocks, Block(f))
		}
	}

	var b strings.Builder
	if task = strings.TrimSpace(task); task != "" {
		b.WriteString(task)
		b.WriteString("\n\n")
	}
	b.WriteString(ContextHeader)
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}

// Rebuild replaces the file blocks of an existing request, keeping the task
// text written before the context header.
func Rebuild(current string, snap *models.Snapshot, selection []string) string {
	return Assemble(TaskText(current), snap, selection)
}

// TaskText returns the part of request preceding the context header
func TaskText(request string) string {
	task, _, _ := strings.Cut(request, ContextHeader)
	return strings.TrimSpace(task)
}

// Summary describes the selection size, e.g. "3 files, 4.1 kB"
func Summary(snap *models.Snapshot, selection []string) string {
	var n, size int
	for _, p := range selection {
		if f, ok := snap.File(p); ok {
			n++
			size += len(f.Content)
		}
	}
	noun := "files"
	if n == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s, %s", n, noun, humanize.Bytes(uint64(size)))
}
