package views

import (
	"fmt"
	"strings"

	"lookahead/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width       int
	Height      int
	Input       string // rendered search box
	Term        string
	Lookups     []domain.Lookup
	Cursor      int
	Offset      int
	VisibleRows int
	Loading     bool
	Spinner     string
	Done        bool
	Err         error
	Selected    *domain.Lookup
	Help        string // rendered help footer
}

// Renderer handles all view rendering
type Renderer struct {
	styles       *Styles
	lookupRender *LookupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer(showIDs bool) *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:       styles,
		lookupRender: NewLookupRenderer(styles, showIDs),
	}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.styles.Title.Render("lookahead"))
	content.WriteString("\n")

	content.WriteString(r.styles.Prompt.Render("Search: "))
	content.WriteString(state.Input)
	content.WriteString("\n\n")

	content.WriteString(r.renderList(state))
	content.WriteString("\n")
	content.WriteString(r.renderStatus(state))

	if state.Help != "" {
		content.WriteString("\n\n")
		content.WriteString(state.Help)
	}

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

// renderList renders the visible window of the accumulated list
func (r *Renderer) renderList(state ViewState) string {
	rows := state.VisibleRows
	if rows < 1 {
		rows = 1
	}

	lines := make([]string, 0, rows+2)
	if state.Offset > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more", state.Offset)))
	} else {
		lines = append(lines, "")
	}

	rowWidth := state.Width - 6
	end := state.Offset + rows
	if end > len(state.Lookups) {
		end = len(state.Lookups)
	}
	for i := state.Offset; i < end; i++ {
		lines = append(lines, r.lookupRender.RenderLookup(state.Lookups[i], state.Term, i == state.Cursor, rowWidth))
	}
	for i := end - state.Offset; i < rows; i++ {
		lines = append(lines, "")
	}

	below := len(state.Lookups) - end
	switch {
	case below > 0:
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more", below)))
	case state.Loading && len(state.Lookups) > 0:
		lines = append(lines, r.styles.Scroll.Render("↓ loading more"))
	default:
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderStatus renders the status line below the list
func (r *Renderer) renderStatus(state ViewState) string {
	text := StatusText(state)
	switch {
	case state.Err != nil:
		return r.styles.StatusError.Render(text)
	case state.Loading:
		return r.styles.StatusLoading.Render(state.Spinner + " " + text)
	case state.Done && len(state.Lookups) == 0:
		return r.styles.StatusWarning.Render(text)
	}

	status := r.styles.StatusSuccess.Render(text)
	if state.Selected != nil {
		status += "  " + r.styles.Selected.Render(fmt.Sprintf("selected %s (#%d)", state.Selected.Name, state.Selected.ID))
	}
	return status
}

// StatusText describes the list state in plain text
func StatusText(state ViewState) string {
	n := len(state.Lookups)
	switch {
	case state.Err != nil:
		return fmt.Sprintf("error: %v", state.Err)
	case state.Loading:
		return "loading"
	case state.Done && n == 0:
		return fmt.Sprintf("no matches for %q", state.Term)
	case state.Done:
		return fmt.Sprintf("%d %s, end of results", n, plural(n, "result", "results"))
	default:
		return fmt.Sprintf("%d %s loaded", n, plural(n, "result", "results"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
