package tree

import (
	"fmt"
	"io"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

const (
	markerOpen   = "▾"
	markerClosed = "▸"
)

// DefaultTimeLayout is the modification time layout.
const DefaultTimeLayout = "2006-01-02 15:04"

// Renderer writes entries as an indented tree.
type Renderer struct {
	Expansion *Expansion
	// Indent is repeated once per depth level.
	Indent     string
	TimeLayout string
	Location   *time.Location
	// HideDetails drops sizes and times.
	HideDetails bool
}

// NewRenderer returns a renderer using exp, or a fresh expansion when nil.
func NewRenderer(exp *Expansion) *Renderer {
	if exp == nil {
		exp = NewExpansion()
	}
	return &Renderer{
		Expansion:  exp,
		Indent:     "  ",
		TimeLayout: DefaultTimeLayout,
		Location:   time.Local,
	}
}

// Render writes the tree to w.
func (r *Renderer) Render(w io.Writer, entries []types.Entry) error {
	var b strings.Builder
	r.render(&b, entries, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the tree into a string.
func (r *Renderer) String(entries []types.Entry) string {
	var b strings.Builder
	r.render(&b, entries, 0)
	return b.String()
}

func (r *Renderer) render(b *strings.Builder, entries []types.Entry, depth int) {
	prefix := strings.Repeat(r.Indent, depth)
	for _, entry := range entries {
		switch e := entry.(type) {
		case *types.DirectoryEntry:
			if !r.Expansion.IsExpanded(e.Path) {
				fmt.Fprintf(b, "%s%s %s/", prefix, markerClosed, e.Name)
				if n := len(e.Children); n > 0 {
					fmt.Fprintf(b, " (%s)", plural(n, "item"))
				}
				b.WriteByte('\n')
				continue
			}
			fmt.Fprintf(b, "%s%s %s/\n", prefix, markerOpen, e.Name)
			r.render(b, e.Children, depth+1)
		case *types.FileEntry:
			// Files are padded to line up with folder names.
			fmt.Fprintf(b, "%s  %s", prefix, e.Name)
			if !r.HideDetails {
				fmt.Fprintf(b, "  %s", bytefmt.ByteSize(uint64(max(e.Size, 0))))
				if !e.ModifiedAt.IsZero() {
					fmt.Fprintf(b, "  %s", e.ModifiedAt.In(r.location()).Format(r.layout()))
				}
			}
			b.WriteByte('\n')
		}
	}
}

func (r *Renderer) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r *Renderer) layout() string {
	if r.TimeLayout == "" {
		return DefaultTimeLayout
	}
	return r.TimeLayout
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ConfirmDelete returns the prompt shown before deleting entry.
func ConfirmDelete(entry types.Entry) string {
	switch e := entry.(type) {
	case *types.DirectoryEntry:
		return fmt.Sprintf("Delete folder %q and all of its contents? This cannot be undone.", e.Name)
	case *types.FileEntry:
		return fmt.Sprintf("Delete file %q? This cannot be undone.", e.Name)
	}
	return ""
}

// Walk visits entries depth-first in listing order. Returning false from
// fn skips a folder's children.
func Walk(entries []types.Entry, fn func(entry types.Entry, depth int) bool) {
	walk(entries, 0, fn)
}

func walk(entries []types.Entry, depth int, fn func(types.Entry, int) bool) {
	for _, entry := range entries {
		descend := fn(entry, depth)
		if dir, ok := entry.(*types.DirectoryEntry); ok && descend {
			walk(dir.Children, depth+1, fn)
		}
	}
}

// Find returns the entry at rel, or nil.
func Find(entries []types.Entry, rel string) types.Entry {
	rel = strings.Trim(rel, "/")
	var found types.Entry
	Walk(entries, func(entry types.Entry, _ int) bool {
		if found != nil {
			return false
		}
		p := entry.RelPath()
		if p == rel {
			found = entry
			return false
		}
		return strings.HasPrefix(rel, p+"/")
	})
	return found
}

// Stats counts files and folders and sums file sizes.
type Stats struct {
	Files   int
	Folders int
	Bytes   int64
}

// Count summarizes entries.
func Count(entries []types.Entry) Stats {
	var s Stats
	Walk(entries, func(entry types.Entry, _ int) bool {
		switch e := entry.(type) {
		case *types.FileEntry:
			s.Files++
			s.Bytes += e.Size
		case *types.DirectoryEntry:
			s.Folders++
		}
		return true
	})
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%s, %s, %s", plural(s.Folders, "folder"), plural(s.Files, "file"), bytefmt.ByteSize(uint64(max(s.Bytes, 0))))
}
