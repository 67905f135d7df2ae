// Package preview renders a loaded hierarchy as a terminal tree.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/ginjaninja78/census-bulk-importer/internal/pipeline"
)

// EmptyMessage is shown instead of a tree when nothing was loaded.
const EmptyMessage = "El archivo está vacío o no tiene el formato correcto."

var (
	communityStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	towerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7"))
	unitStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF5F"))
	enumStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).MarginRight(1)
)

// Options control rendering.
type Options struct {
	// Plain disables colours and bold text.
	Plain bool

	// ShowIDs appends each record's temporary id to its label.
	ShowIDs bool
}

// Render returns the tree for h, or EmptyMessage when h holds no records.
func Render(h *pipeline.Hierarchy, opts Options) string {
	if h.Len() == 0 {
		return EmptyMessage
	}

	style := func(s lipgloss.Style, text string) string {
		if opts.Plain {
			return text
		}
		return s.Render(text)
	}

	root := tree.New().Enumerator(tree.RoundedEnumerator)
	if !opts.Plain {
		root = root.EnumeratorStyle(enumStyle)
	}

	for _, c := range h.Communities() {
		cNode := tree.Root(style(communityStyle, "Comunidad: "+c.Name()))
		for _, t := range c.Towers() {
			tNode := tree.Root(style(towerStyle, "Torre: "+t.Name()))
			for _, u := range t.Units() {
				uNode := tree.Root(style(unitStyle, "Casa/Apto: "+u.Name()))
				for _, rec := range u.Records() {
					uNode.Child(recordLabel(rec, opts))
				}
				tNode.Child(uNode)
			}
			cNode.Child(tNode)
		}
		root.Child(cNode)
	}

	return root.String()
}

func recordLabel(rec *pipeline.Record, opts Options) string {
	if opts.ShowIDs {
		return fmt.Sprintf("%s [%s]", rec.Label(), rec.TempID())
	}
	return rec.Label()
}

// Summary is a one-line count of the hierarchy's levels.
func Summary(h *pipeline.Hierarchy) string {
	if h == nil {
		return "0 registros"
	}
	var towers, units int
	for _, c := range h.Communities() {
		towers += len(c.TowerNames())
		for _, t := range c.Towers() {
			units += len(t.UnitNames())
		}
	}
	return fmt.Sprintf("%d registros, %d comunidades, %d torres, %d casas/aptos",
		h.Len(), len(h.CommunityNames()), towers, units)
}

// Write renders h to w followed by a newline.
func Write(w io.Writer, h *pipeline.Hierarchy, opts Options) error {
	out := Render(h, opts)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}
