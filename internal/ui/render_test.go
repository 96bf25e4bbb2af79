package ui

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/KaramelBytes/datasense-cli/internal/datafile"
	"github.com/KaramelBytes/datasense-cli/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestRenderHistoryUsesEachRecordsInsights(t *testing.T) {
	s := console.State{History: []console.Record{
		{Question: "first", Answer: "one", Insights: service.Insights{"alpha"}},
		{Question: "second", Answer: "two", Insights: service.Insights{"beta"}},
	}}
	out := RenderHistory(s, 80)

	alpha := strings.Index(out, "• alpha")
	second := strings.Index(out, "Q: second")
	beta := strings.Index(out, "• beta")
	assert.True(t, alpha >= 0 && second > alpha && beta > second, "unexpected order:\n%s", out)
	assert.Equal(t, 1, strings.Count(out, "alpha"))
	assert.Equal(t, 1, strings.Count(out, "beta"))
}

func TestRenderHistorySkeletonOnlyWhileBusy(t *testing.T) {
	s := console.State{History: []console.Record{{Question: "q", Answer: "a"}}}
	assert.NotContains(t, RenderHistory(s, 60), "▆")

	s.Busy = true
	out := RenderHistory(s, 60)
	assert.Contains(t, out, "▆")
	assert.Greater(t, strings.Index(out, "▆"), strings.Index(out, "A: a"))
}

func TestButtonLabel(t *testing.T) {
	assert.Equal(t, "Ask", ButtonLabel(console.State{}))
	assert.Equal(t, "Analyzing...", ButtonLabel(console.State{Busy: true}))
}

func TestRenderDataSourcePane(t *testing.T) {
	l := Layout{Width: 120, Height: 40}
	out := Render(console.State{}, l)
	assert.Contains(t, out, "Upload CSV File")
	assert.Contains(t, out, "Data Source")
	assert.Contains(t, out, "Ask Questions")

	s := console.State{
		File:         &datafile.File{Name: "sales.csv", MediaType: datafile.CSVMediaType},
		UploadStatus: "ok",
	}
	out = Render(s, l)
	assert.Contains(t, out, "sales.csv")
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "Upload CSV File")
}

func TestRenderAlertIsModal(t *testing.T) {
	out := Render(console.State{Alert: "Please upload a valid CSV file."}, Layout{Width: 100, Height: 30})
	assert.Contains(t, out, "Please upload a valid CSV file.")
	assert.Contains(t, out, "OK")
	assert.NotContains(t, out, "Data Source")
}

func TestColumnWidths(t *testing.T) {
	l, r := columnWidths(120)
	assert.Equal(t, 40, l)
	assert.Equal(t, 80, r)

	l, r = columnWidths(0)
	assert.Equal(t, 80, l+r)

	l, _ = columnWidths(30)
	assert.Equal(t, minLeftWidth, l)
}
