// Package tui provides an interactive terminal front end for niconico searches.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

// ViewState represents the current view state of the TUI
type ViewState int

const (
	// ViewMain is the search mode menu
	ViewMain ViewState = iota
	// ViewInput is the search parameter form
	ViewInput
	// ViewRunning is shown while a search is in flight
	ViewRunning
	// ViewResult shows the normalized result or the rejection
	ViewResult
)

// Search modes offered by the main menu.
const (
	ModeContents = "contents"
	ModeTags     = "tags"
	ModeRelated  = "related"
)

// searchTimeout bounds how long the TUI waits for one search.
const searchTimeout = 30 * time.Second

// MenuItem represents a menu item in the TUI
type MenuItem struct {
	title       string
	description string
	mode        string
}

// Title returns the menu item title (implements list.Item)
func (m MenuItem) Title() string { return m.title }

// Description returns the menu item description (implements list.Item)
func (m MenuItem) Description() string { return m.description }

// FilterValue returns the filter value (implements list.Item)
func (m MenuItem) FilterValue() string { return m.title }

// SearchResult is delivered once a search finishes.
type SearchResult struct {
	Success bool
	Message string
	Details string
}

// Model is the main TUI model following the Bubble Tea architecture
type Model struct {
	state ViewState

	menuList list.Model

	inputs     []textinput.Model
	focusIndex int

	spinner spinner.Model

	result *SearchResult

	width  int
	height int

	searcher search.Provider
	mode     string

	quitting bool
}

// keyMap defines the key bindings for the TUI
type keyMap struct {
	Enter key.Binding
	Back  key.Binding
	Tab   key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a TUI model that runs its searches through searcher.
func NewModel(searcher search.Provider) Model {
	items := []list.Item{
		MenuItem{
			title:       "🔍 Contents Search",
			description: "Search videos by keyword and list the matching hits",
			mode:        ModeContents,
		},
		MenuItem{
			title:       "🏷️ Tags Search",
			description: "List the tags related to a keyword",
			mode:        ModeTags,
		},
		MenuItem{
			title:       "🔗 Related Search",
			description: "Run a contents search and a tags search side by side",
			mode:        ModeRelated,
		},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).
		BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(secondaryColor)

	menuList := list.New(items, delegate, 0, 0)
	menuList.Title = "niconico search"
	menuList.SetShowStatusBar(false)
	menuList.SetFilteringEnabled(false)
	menuList.Styles.Title = GetHeaderStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = GetProgressStyle()

	return Model{
		state:    ViewMain,
		menuList: menuList,
		spinner:  sp,
		searcher: searcher,
	}
}

// createSearchInputs creates the keyword, service and size fields.
func createSearchInputs(mode string) []textinput.Model {
	inputs := make([]textinput.Model, 3)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "vocaloid"
	inputs[0].Focus()
	inputs[0].CharLimit = 256
	inputs[0].Width = 50
	inputs[0].Prompt = "🔍 "
	inputs[0].PromptStyle = GetInputLabelStyle()

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "video"
	inputs[1].CharLimit = 32
	inputs[1].Width = 30
	inputs[1].Prompt = "📺 "
	inputs[1].PromptStyle = GetInputLabelStyle()

	inputs[2] = textinput.New()
	inputs[2].Placeholder = "10"
	inputs[2].CharLimit = 4
	inputs[2].Width = 10
	inputs[2].Prompt = "#️⃣ "
	inputs[2].PromptStyle = GetInputLabelStyle()

	if mode == ModeTags {
		inputs[2].Placeholder = "10 (tags)"
	}
	return inputs
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menuList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case ViewMain:
			return m.handleMainMenu(msg)
		case ViewInput:
			return m.handleInputView(msg)
		case ViewResult:
			return m.handleResultView(msg)
		case ViewRunning:
			if key.Matches(msg, keys.Quit) {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SearchResult:
		m.result = &msg
		m.state = ViewResult
		return m, nil
	}

	if m.state == ViewMain {
		m.menuList, cmd = m.menuList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleMainMenu handles key events in the main menu
func (m Model) handleMainMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if selectedItem, ok := m.menuList.SelectedItem().(MenuItem); ok {
			m.state = ViewInput
			m.mode = selectedItem.mode
			m.inputs = createSearchInputs(selectedItem.mode)
			m.focusIndex = 0
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.menuList, cmd = m.menuList.Update(msg)
	return m, cmd
}

// handleInputView handles key events in the search form
func (m Model) handleInputView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.state = ViewMain
		return m, nil

	case key.Matches(msg, keys.Tab):
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		for i := range m.inputs {
			if i == m.focusIndex {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil

	case key.Matches(msg, keys.Enter):
		if strings.TrimSpace(m.inputs[0].Value()) == "" {
			return m, nil
		}
		m.state = ViewRunning
		return m, m.runSearch()
	}

	if m.focusIndex < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleResultView handles key events in result view
func (m Model) handleResultView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Enter):
		m.state = ViewMain
		m.result = nil
		return m, nil

	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// runSearch returns a command that runs the configured search and reports a SearchResult.
func (m Model) runSearch() tea.Cmd {
	keyword := strings.TrimSpace(m.inputs[0].Value())
	service := strings.TrimSpace(m.inputs[1].Value())
	var size *int
	if n, err := strconv.Atoi(strings.TrimSpace(m.inputs[2].Value())); err == nil {
		size = &n
	}
	mode, searcher := m.mode, m.searcher

	return func() tea.Msg {
		if searcher == nil {
			return SearchResult{Message: "no search service configured"}
		}

		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		switch mode {
		case ModeTags:
			res, err := searcher.Tags(ctx, search.TagsRequest{Keyword: keyword, Service: service, Size: size})
			if err != nil {
				return failedResult(err)
			}
			return SearchResult{
				Success: true,
				Message: fmt.Sprintf("%d tags related to %q", len(res.Values), keyword),
				Details: formatTags(res),
			}
		case ModeRelated:
			res, err := searcher.Related(ctx, search.ContentsRequest{Keyword: keyword, Service: service, Size: size})
			if err != nil {
				return failedResult(err)
			}
			return SearchResult{
				Success: true,
				Message: fmt.Sprintf("%d hits and %d tags for %q", res.Contents.Hits, len(res.Tags.Values), keyword),
				Details: formatContents(res.Contents) + "\n" + formatTags(res.Tags),
			}
		default:
			res, err := searcher.Contents(ctx, search.ContentsRequest{
				Keyword: keyword,
				Service: service,
				Fields:  []string{"cmsid", "title", "view_counter"},
				Size:    size,
			})
			if err != nil {
				return failedResult(err)
			}
			return SearchResult{
				Success: true,
				Message: fmt.Sprintf("%d hits for %q", res.Hits, keyword),
				Details: formatContents(res),
			}
		}
	}
}

// failedResult renders a search error, using its rejection payload when present.
func failedResult(err error) SearchResult {
	if rej, ok := nico.AsRejection(err); ok {
		return SearchResult{
			Message: fmt.Sprintf("%d %s", rej.Status, rej.Message),
			Details: rej.ErrorDescription,
		}
	}
	return SearchResult{Message: "search failed", Details: err.Error()}
}

// formatContents lists one hit per line.
func formatContents(res *nico.ContentsResult) string {
	var sb strings.Builder
	sb.WriteString("Hits:\n")
	if len(res.Values) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, item := range res.Values {
		fmt.Fprintf(&sb, "  • %v", item["cmsid"])
		if title, ok := item["title"]; ok {
			fmt.Fprintf(&sb, "  %v", title)
		}
		if views, ok := item["view_counter"]; ok {
			fmt.Fprintf(&sb, "  (%v views)", views)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatTags lists the tags on one line each.
func formatTags(res *nico.TagsResult) string {
	var sb strings.Builder
	sb.WriteString("Tags:\n")
	if len(res.Values) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, tag := range res.Values {
		fmt.Fprintf(&sb, "  • %s\n", tag)
	}
	return sb.String()
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return GetSubtitleStyle().Render("Goodbye! 👋\n")
	}

	switch m.state {
	case ViewMain:
		return m.renderMainMenu()
	case ViewInput:
		return m.renderInput()
	case ViewRunning:
		return m.renderRunning()
	case ViewResult:
		return m.renderResult()
	default:
		return "Unknown state"
	}
}

func (m Model) renderMainMenu() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.menuList.View(),
		GetHelpStyle().Render("↑/↓ navigate • enter select • q quit"),
	)
}

func (m Model) renderInput() string {
	var sb strings.Builder

	sb.WriteString(GetHeaderStyle().Render(modeTitle(m.mode)) + "\n\n")

	labels := []string{"Keyword:", "Service:", "Size:"}
	for i, input := range m.inputs {
		sb.WriteString(GetInputLabelStyle().Render(labels[i]) + "\n")
		sb.WriteString(input.View() + "\n\n")
	}

	sb.WriteString(GetHelpStyle().Render("tab: next field • enter: search • esc: back"))
	return GetBoxStyle().Render(sb.String())
}

func modeTitle(mode string) string {
	switch mode {
	case ModeTags:
		return "🏷️ Tags Search"
	case ModeRelated:
		return "🔗 Related Search"
	default:
		return "🔍 Contents Search"
	}
}

func (m Model) renderRunning() string {
	return GetBoxStyle().Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.spinner.View()+" Searching...",
			GetSubtitleStyle().Render("Please wait..."),
		),
	)
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "No result"
	}

	statusStyle, statusIcon := GetErrorStyle(), "❌"
	if m.result.Success {
		statusStyle, statusIcon = GetSuccessStyle(), "✅"
	}

	return GetBoxStyle().Render(
		lipgloss.JoinVertical(lipgloss.Left,
			statusStyle.Render(statusIcon+" "+m.result.Message),
			"",
			GetSubtitleStyle().Render(m.result.Details),
			"",
			GetHelpStyle().Render("enter/esc: back to menu • q: quit"),
		),
	)
}
