package ui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/KaramelBytes/datasense-cli/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	uploads  int
	queryErr error
}

func (s *stubService) Upload(ctx context.Context, filename string, content io.Reader) (*service.UploadResponse, error) {
	s.uploads++
	return &service.UploadResponse{Message: "stored " + filename}, nil
}

func (s *stubService) Query(ctx context.Context, question string) (*service.QueryResponse, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &service.QueryResponse{AnalysisResult: "42", Insights: service.Insights{"high confidence"}}, nil
}

func newTestModel(t *testing.T, svc console.Service) *Model {
	t.Helper()
	m := NewModel(context.Background(), console.NewController(svc), "")
	t.Cleanup(m.quit)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	return m
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// runCmd executes a handler command and feeds its result back.
func runCmd(t *testing.T, m *Model, cmd tea.Cmd) handlerDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(handlerDoneMsg)
	require.True(t, ok, "expected handlerDoneMsg")
	m.Update(msg)
	return msg
}

func TestModelAskFlow(t *testing.T) {
	m := newTestModel(t, &stubService{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "ask must be disabled with an empty draft")

	typeText(m, "What is the average?")
	assert.Equal(t, "What is the average?", m.State().Draft)
	assert.True(t, m.State().CanAsk())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := runCmd(t, m, cmd)
	require.NoError(t, done.err)

	s := m.State()
	assert.False(t, s.Busy)
	assert.Equal(t, "", s.Draft)
	assert.Equal(t, "", m.input.Value())
	require.Len(t, s.History, 1)
	assert.Equal(t, console.Record{Question: "What is the average?", Answer: "42", Insights: service.Insights{"high confidence"}}, s.History[0])

	view := m.View()
	assert.Contains(t, view, "Q: What is the average?")
	assert.Contains(t, view, "A: 42")
	assert.Contains(t, view, "high confidence")
}

func TestModelQueryFailureShowsAlert(t *testing.T) {
	m := newTestModel(t, &stubService{queryErr: errors.New("Network Error")})
	typeText(m, "q")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := runCmd(t, m, cmd)
	assert.Error(t, done.err)

	assert.Equal(t, "Network Error", m.State().Alert)
	assert.Contains(t, m.View(), "Network Error")
	assert.Empty(t, m.State().History)

	typeText(m, "x")
	assert.Equal(t, "", m.State().Draft, "typing is blocked while the alert is open")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.State().Alert)
}

func TestModelFilePicker(t *testing.T) {
	svc := &stubService{}
	m := newTestModel(t, svc)
	dir := t.TempDir()
	bad := filepath.Join(dir, "notes.txt")
	good := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(bad, []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(good, []byte("a\n1\n"), 0o644))

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Contains(t, m.View(), "file:")
	typeText(m, bad)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, m, cmd)
	assert.Equal(t, console.InvalidFileAlert, m.State().Alert)
	assert.Nil(t, m.State().File)
	assert.Zero(t, svc.uploads)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	typeText(m, good)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, m, cmd)
	require.NotNil(t, m.State().File)
	assert.Equal(t, "data.csv", m.State().File.Name)
	assert.Equal(t, "stored data.csv", m.State().UploadStatus)
	assert.Equal(t, 1, svc.uploads)
	assert.Contains(t, m.View(), "stored data.csv")
}

func TestModelPickerEscCancels(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	typeText(m, "whatever")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, m.picking)
	assert.Equal(t, "", m.State().Draft)
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, &stubService{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, m.View(), "Thanks for using DataSense")
}
