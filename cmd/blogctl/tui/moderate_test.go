package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows    []Row
	calls   []int64
	failing bool
}

func (f *fakeSource) source() Source {
	return Source{
		Kind: "categories",
		Load: func(context.Context) ([]Row, error) { return f.rows, nil },
		Toggle: func(_ context.Context, id int64, published bool) error {
			if f.failing {
				return errors.New("database is locked")
			}
			f.calls = append(f.calls, id)
			return nil
		},
	}
}

func loaded(t *testing.T, f *fakeSource) ModerateModel {
	t.Helper()
	m := NewModerateModel(f.source())
	next, _ := m.Update(m.Init()())
	return next.(ModerateModel)
}

// press feeds a key and runs the command it returns, if any.
func press(t *testing.T, m ModerateModel, key tea.KeyMsg) ModerateModel {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(ModerateModel)
	if cmd != nil {
		if msg, ok := cmd().(toggledMsg); ok {
			next, _ = m.Update(msg)
			m = next.(ModerateModel)
		}
	}
	return m
}

func rows() []Row {
	return []Row{
		{ID: 1, Label: "Travel", Published: true},
		{ID: 2, Label: "Food", Published: false},
	}
}

func TestLoadFillsList(t *testing.T) {
	m := loaded(t, &fakeSource{rows: rows()})
	require.Len(t, m.Rows(), 2)
	assert.Contains(t, m.View(), "Travel")
	assert.Contains(t, m.View(), "Moderate categories")
}

func TestSpaceTogglesSelected(t *testing.T) {
	f := &fakeSource{rows: rows()}
	m := loaded(t, f)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []int64{1}, f.calls)
	assert.False(t, m.Rows()[0].Published)
	assert.Contains(t, m.View(), "#1 is now hidden")
}

func TestEnterTogglesAfterMovingDown(t *testing.T) {
	f := &fakeSource{rows: rows()}
	m := loaded(t, f)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int64{2}, f.calls)
	assert.True(t, m.Rows()[1].Published)
	assert.True(t, m.Rows()[0].Published)
}

func TestToggleFailureKeepsRow(t *testing.T) {
	f := &fakeSource{rows: rows(), failing: true}
	m := loaded(t, f)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Rows()[0].Published)
	assert.Contains(t, m.View(), "database is locked")
}

func TestQuit(t *testing.T) {
	m := loaded(t, &fakeSource{rows: rows()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLoadErrorIsShown(t *testing.T) {
	m := NewModerateModel(Source{
		Kind: "posts",
		Load: func(context.Context) ([]Row, error) { return nil, errors.New("no such table: posts") },
	})
	next, _ := m.Update(m.Init()())
	assert.Contains(t, next.(ModerateModel).View(), "no such table: posts")
}

func TestToggleReloadsRow(t *testing.T) {
	f := &fakeSource{rows: []Row{{ID: 7, Label: "Story", Detail: "public", Published: true}}}
	src := f.source()
	src.Reload = func(_ context.Context, id int64) (Row, error) {
		return Row{ID: id, Label: "Story", Detail: "hidden", Published: false}, nil
	}
	m := NewModerateModel(src)
	next, _ := m.Update(m.Init()())
	m = next.(ModerateModel)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Rows(), 1)
	assert.False(t, m.Rows()[0].Published)
	assert.Equal(t, "hidden", m.Rows()[0].Detail)
}
