// Package tui holds blogctl's interactive screens.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Row is one record whose publication flag can be flipped.
type Row struct {
	ID        int64
	Label     string
	Detail    string
	Published bool
}

func (r Row) FilterValue() string { return r.Label }

// Source binds the screen to one kind of record. Reload is optional; when
// set, a toggled row is read back so text derived from the flag stays current.
type Source struct {
	Kind   string
	Load   func(ctx context.Context) ([]Row, error)
	Reload func(ctx context.Context, id int64) (Row, error)
	Toggle func(ctx context.Context, id int64, published bool) error
}

type rowDelegate struct{}

func (rowDelegate) Height() int                             { return 1 }
func (rowDelegate) Spacing() int                            { return 0 }
func (rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(Row)
	if !ok {
		return
	}
	status := hiddenStyle.Render("○ hidden   ")
	if row.Published {
		status = publishedStyle.Render("● published")
	}
	label := fmt.Sprintf("#%-4d %s", row.ID, row.Label)
	cursor := "  "
	if index == m.Index() {
		cursor = "> "
		label = selectedStyle.Render(label)
	}
	line := cursor + status + "  " + label
	if row.Detail != "" {
		line += "  " + mutedStyle.Render(row.Detail)
	}
	fmt.Fprint(w, line)
}

type rowsLoadedMsg struct{ rows []Row }

type toggledMsg struct {
	row Row
	err error
}

type errorMsg struct{ err error }

// ModerateModel lists records of one kind and flips is_published on enter.
type ModerateModel struct {
	src    Source
	list   list.Model
	status string
	err    error
}

func NewModerateModel(src Source) ModerateModel {
	l := list.New(nil, rowDelegate{}, 80, 20)
	l.Title = "Moderate " + src.Kind
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle
	return ModerateModel{src: src, list: l}
}

func loadRowsCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		rows, err := src.Load(context.Background())
		if err != nil {
			return errorMsg{err: fmt.Errorf("load %s: %w", src.Kind, err)}
		}
		return rowsLoadedMsg{rows: rows}
	}
}

func toggleCmd(src Source, row Row) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := src.Toggle(ctx, row.ID, !row.Published); err != nil {
			return toggledMsg{row: row, err: err}
		}
		row.Published = !row.Published
		if src.Reload != nil {
			fresh, err := src.Reload(ctx, row.ID)
			if err != nil {
				return toggledMsg{row: row, err: fmt.Errorf("reload #%d: %w", row.ID, err)}
			}
			row = fresh
		}
		return toggledMsg{row: row}
	}
}

func (m ModerateModel) Init() tea.Cmd {
	return loadRowsCmd(m.src)
}

// Rows returns the records in their current state.
func (m ModerateModel) Rows() []Row {
	items := m.list.Items()
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if r, ok := it.(Row); ok {
			rows = append(rows, r)
		}
	}
	return rows
}

func (m ModerateModel) indexOf(id int64) int {
	for i, it := range m.list.Items() {
		if r, ok := it.(Row); ok && r.ID == id {
			return i
		}
	}
	return -1
}

func (m ModerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-2, msg.Height-4)
		return m, nil

	case rowsLoadedMsg:
		items := make([]list.Item, len(msg.rows))
		for i, r := range msg.rows {
			items[i] = r
		}
		return m, m.list.SetItems(items)

	case toggledMsg:
		if msg.err != nil {
			m.err = msg.err
			// The flag may have changed even if reading it back failed.
			if i := m.indexOf(msg.row.ID); i >= 0 {
				return m, m.list.SetItem(i, msg.row)
			}
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("#%d is now %s", msg.row.ID, publishedWord(msg.row.Published))
		if i := m.indexOf(msg.row.ID); i >= 0 {
			return m, m.list.SetItem(i, msg.row)
		}
		return m, nil

	case errorMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter", " ":
			row, ok := m.list.SelectedItem().(Row)
			if !ok {
				return m, nil
			}
			return m, toggleCmd(m.src, row)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func publishedWord(published bool) string {
	if published {
		return "published"
	}
	return "hidden"
}

func (m ModerateModel) View() string {
	var footer strings.Builder
	switch {
	case m.err != nil:
		footer.WriteString(errorStyle.Render("✗ " + m.err.Error()))
	case m.status != "":
		footer.WriteString(publishedStyle.Render("✓ " + m.status))
	}
	help := helpStyle.Render(
		FormatKey("↑/↓", "navigate") + " • " +
			FormatKey("enter/space", "toggle") + " • " +
			FormatKey("/", "filter") + " • " +
			FormatKey("q", "quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer.String(), help)
}

// RunModerate starts the interactive moderation screen.
func RunModerate(src Source) error {
	_, err := tea.NewProgram(NewModerateModel(src)).Run()
	return err
}
