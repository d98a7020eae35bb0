// Package tui is an interactive browser over a finished crawl report.
package tui

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/mongoscope/internal/models"
)

// mode represents the current UI interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterDatabase
)

const defaultTableHeight = 15

// Model is the top-level Bubble Tea model for the report browser.
type Model struct {
	// Data (immutable after init)
	report     *models.ServerReport
	allEntries []entry

	// UI state
	table           table.Model
	searchInput     textinput.Model
	filteredEntries []entry
	filters         filterState
	sortBy          sortField
	mode            mode
	dbChoices       []string
	dbCursor        int
	width           int
	height          int
	statusMsg       string
	// clipboard is captured here for testing instead of writing to stdout
	clipboard string
}

// New creates a new TUI model from a crawl report.
func New(report *models.ServerReport) Model {
	entries := flatten(report)
	rows := buildRows(entries)
	t := newTable(rows, defaultTableHeight)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 64

	filtered := make([]entry, len(entries))
	copy(filtered, entries)

	return Model{
		report:          report,
		allEntries:      entries,
		filteredEntries: filtered,
		table:           t,
		searchInput:     ti,
		sortBy:          sortByServerOrder,
		mode:            modeNormal,
		dbChoices:       uniqueDatabases(entries),
		width:           80,
		height:          24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		tableH := msg.Height - headerHeight - detailHeight - 3
		if tableH < 3 {
			tableH = 3
		}
		m.table.SetHeight(tableH)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	default:
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilterDatabase:
		return m.handleFilterDatabaseKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.FilterDatabase):
		m.mode = modeFilterDatabase
		m.dbCursor = 0
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.statusMsg = fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy))
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.copySelected()
		return m, nil
	case key.Matches(msg, keys.ClearFilter):
		m.filters = filterState{}
		m.statusMsg = ""
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.rebuildTable()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterDatabaseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.dbCursor > 0 {
			m.dbCursor--
		}
	case "down", "j":
		if m.dbCursor < len(m.dbChoices) {
			m.dbCursor++
		}
	case "enter":
		if m.dbCursor == 0 {
			m.filters.Database = ""
		} else if m.dbCursor <= len(m.dbChoices) {
			m.filters.Database = m.dbChoices[m.dbCursor-1]
		}
		m.mode = modeNormal
		m.rebuildTable()
		if m.filters.Database != "" {
			m.statusMsg = fmt.Sprintf("Database: %s", m.filters.Database)
		} else {
			m.statusMsg = ""
		}
	case "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.allEntries, m.filters)
	sortEntries(filtered, m.sortBy)
	m.filteredEntries = filtered
	m.table.SetRows(buildRows(filtered))
}

func (m *Model) selectedEntry() *entry {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filteredEntries) {
		return nil
	}
	return &m.filteredEntries[cursor]
}

// copySelected writes the selected row and its samples to the clipboard via
// OSC 52. Samples are already redacted.
func (m *Model) copySelected() {
	e := m.selectedEntry()
	if e == nil {
		m.statusMsg = "Nothing to copy"
		return
	}

	name := e.Database
	if e.Collection != "" {
		name += "." + e.Collection
	}
	text := fmt.Sprintf("%s: %s document(s) [%s]", name, countLabel(e.Count), e.Status)
	for i, s := range e.Samples {
		text += fmt.Sprintf("\n%d. %s", i+1, s)
	}

	m.clipboard = text
	m.statusMsg = "Copied!"
	// OSC 52 clipboard escape: works in most modern terminals
	fmt.Printf("\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(renderHeader(m.report, m.allEntries, m.width))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	if m.mode == modeFilterDatabase {
		b.WriteString(m.renderDatabaseFilter())
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(renderDetail(m.selectedEntry(), m.width))
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderDatabaseFilter() string {
	var b strings.Builder
	b.WriteString("Filter by database:\n")

	options := append([]string{"All"}, m.dbChoices...)
	for i, opt := range options {
		cursor := "  "
		if i == m.dbCursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, opt))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	left := "q:quit  /:search  d:database  s:sort  c:copy  esc:clear"
	right := fmt.Sprintf("%d/%d rows", len(m.filteredEntries), len(m.allEntries))

	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the Bubble Tea program. Called from the browse command.
func Run(report *models.ServerReport) error {
	m := New(report)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
