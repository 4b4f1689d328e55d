package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"lookahead/internal/domain"
)

// LookupRenderer renders one row of the result list
type LookupRenderer struct {
	styles  *Styles
	showIDs bool
}

// NewLookupRenderer creates a new lookup renderer
func NewLookupRenderer(styles *Styles, showIDs bool) *LookupRenderer {
	return &LookupRenderer{
		styles:  styles,
		showIDs: showIDs,
	}
}

// RenderLookup renders a row, highlighting the part of the name that matched term
func (r *LookupRenderer) RenderLookup(l domain.Lookup, term string, isCursor bool, width int) string {
	marker := "  "
	if isCursor {
		marker = "> "
	}

	name := r.highlightPrefix(l.Name, term, isCursor)
	line := marker + name
	if r.showIDs {
		id := r.styles.ID
		if isCursor {
			id = id.Inherit(r.styles.SelectionBg)
		}
		line = fmt.Sprintf("%s %s", line, id.Render(fmt.Sprintf("#%d", l.ID)))
	}

	if isCursor {
		bg := r.styles.SelectionBg
		if width > 0 {
			bg = bg.Width(width)
		}
		return bg.Render(line)
	}
	return line
}

// highlightPrefix styles the leading part of name that matches term, ignoring case
func (r *LookupRenderer) highlightPrefix(name, term string, isCursor bool) string {
	n := matchedPrefixLen(name, term)
	if n == 0 {
		if isCursor {
			return r.styles.SelectionBg.Render(name)
		}
		return name
	}

	match := r.styles.Highlight
	rest := lipgloss.NewStyle()
	if isCursor {
		match = match.Inherit(r.styles.SelectionBg)
		rest = r.styles.SelectionBg
	}
	return match.Render(name[:n]) + rest.Render(name[n:])
}

// matchedPrefixLen returns the byte length of the part of name whose
// lowercase form equals the lowercase term, or 0 when name does not start
// with term. Lowercasing can change a rune's width, so name is walked rune by
// rune instead of being cut at len(term).
func matchedPrefixLen(name, term string) int {
	want := strings.ToLower(term)
	if want == "" {
		return 0
	}

	var got strings.Builder
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		got.WriteString(strings.ToLower(string(r)))
		i += size

		if !strings.HasPrefix(want, got.String()) {
			return 0
		}
		if got.Len() == len(want) {
			return i
		}
	}
	return 0
}
