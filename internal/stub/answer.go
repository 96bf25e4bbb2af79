package stub

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Result is the answer to one question.
type Result struct {
	Text     string
	Insights []string
}

type aggregate struct {
	keywords []string
	label    string
	fn       func(stats.Float64Data) (float64, error)
}

// checked in order; the first keyword found in the question wins
var aggregates = []aggregate{
	{[]string{"average", "mean"}, "average", stats.Mean},
	{[]string{"median"}, "median", stats.Median},
	{[]string{"maximum", "max", "highest", "largest"}, "maximum", stats.Max},
	{[]string{"minimum", "min", "lowest", "smallest"}, "minimum", stats.Min},
	{[]string{"total", "sum"}, "total", stats.Sum},
	{[]string{"std", "deviation", "spread"}, "standard deviation", stats.StandardDeviation},
}

// column is a parsed view of one CSV column.
type column struct {
	name    string
	values  []float64
	missing int
	nonNum  int
}

func (c column) numeric() bool { return len(c.values) > 0 && c.nonNum == 0 }

// Answer computes a reply from the dataset for a free-text question.
func Answer(ds *Dataset, question string) Result {
	q := strings.ToLower(question)
	cols := parseColumns(ds)
	res := Result{Insights: insights(ds, cols)}

	words := wordSet(q)
	mentioned := mentionedColumns(cols, q)
	agg, hasAgg := findAggregate(q)

	switch {
	case hasAgg:
		targets := mentioned
		if len(targets) == 0 {
			targets = numericColumns(cols)
		}
		var lines []string
		for _, c := range targets {
			if !c.numeric() {
				lines = append(lines, fmt.Sprintf("Column '%s' is not numeric.", c.name))
				continue
			}
			v, err := agg.fn(c.values)
			if err != nil {
				lines = append(lines, fmt.Sprintf("Could not compute the %s of '%s': %v.", agg.label, c.name, err))
				continue
			}
			lines = append(lines, fmt.Sprintf("The %s of '%s' is %s.", agg.label, c.name, formatNumber(v)))
		}
		if len(lines) == 0 {
			res.Text = fmt.Sprintf("The dataset '%s' has no numeric columns to compute a %s over.", ds.Name, agg.label)
		} else {
			res.Text = strings.Join(lines, "\n")
		}
	case len(mentioned) > 0:
		var lines []string
		for _, c := range mentioned {
			lines = append(lines, describe(c))
		}
		res.Text = strings.Join(lines, "\n")
	case anyWord(words, "column", "columns", "field", "fields"):
		res.Text = fmt.Sprintf("The dataset has %d columns: %s.", len(ds.Header), strings.Join(ds.Header, ", "))
	case strings.Contains(q, "how many") || anyWord(words, "row", "rows", "count", "record", "records"):
		res.Text = fmt.Sprintf("The dataset has %d rows.", len(ds.Rows))
	default:
		res.Text = fmt.Sprintf("The dataset '%s' has %d rows and %d columns (%s).", ds.Name, len(ds.Rows), len(ds.Header), strings.Join(ds.Header, ", "))
	}
	return res
}

func parseColumns(ds *Dataset) []column {
	cols := make([]column, len(ds.Header))
	for i, h := range ds.Header {
		cols[i].name = h
	}
	for _, row := range ds.Rows {
		for i := range cols {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				cols[i].missing++
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				cols[i].nonNum++
				continue
			}
			// NaN and Inf parse but poison every aggregate
			if math.IsNaN(f) || math.IsInf(f, 0) {
				cols[i].missing++
				continue
			}
			cols[i].values = append(cols[i].values, f)
		}
	}
	return cols
}

// mentionedColumns matches single-word names against whole words and
// multi-word names as substrings.
func mentionedColumns(cols []column, q string) []column {
	words := wordSet(q)
	var out []column
	for _, c := range cols {
		name := strings.ToLower(strings.TrimSpace(c.name))
		if name == "" {
			continue
		}
		if words[name] || (strings.ContainsAny(name, " ") && strings.Contains(q, name)) {
			out = append(out, c)
		}
	}
	return out
}

func wordSet(q string) map[string]bool {
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-')
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func anyWord(words map[string]bool, candidates ...string) bool {
	for _, w := range candidates {
		if words[w] {
			return true
		}
	}
	return false
}

func numericColumns(cols []column) []column {
	var out []column
	for _, c := range cols {
		if c.numeric() {
			out = append(out, c)
		}
	}
	return out
}

func findAggregate(q string) (aggregate, bool) {
	set := wordSet(q)
	for _, a := range aggregates {
		for _, k := range a.keywords {
			if set[k] {
				return a, true
			}
		}
	}
	return aggregate{}, false
}

func describe(c column) string {
	if !c.numeric() {
		return fmt.Sprintf("Column '%s' holds text values (%d non-empty, %d missing).", c.name, c.nonNum+len(c.values), c.missing)
	}
	mean, _ := stats.Mean(c.values)
	median, _ := stats.Median(c.values)
	lo, _ := stats.Min(c.values)
	hi, _ := stats.Max(c.values)
	return fmt.Sprintf("Column '%s': mean %s, median %s, range %s to %s over %d values.",
		c.name, formatNumber(mean), formatNumber(median), formatNumber(lo), formatNumber(hi), len(c.values))
}

func insights(ds *Dataset, cols []column) []string {
	var out []string
	num := numericColumns(cols)
	out = append(out, fmt.Sprintf("%d of %d columns are numeric.", len(num), len(cols)))

	missing := make([]column, 0, len(cols))
	for _, c := range cols {
		if c.missing > 0 {
			missing = append(missing, c)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool { return missing[i].missing > missing[j].missing })
	if len(missing) > 0 {
		c := missing[0]
		out = append(out, fmt.Sprintf("Column '%s' has %d missing values.", c.name, c.missing))
	}

	var widest string
	var widestCV float64
	for _, c := range num {
		if len(c.values) < 2 {
			continue
		}
		mean, err := stats.Mean(c.values)
		if err != nil || mean == 0 {
			continue
		}
		sd, err := stats.StandardDeviation(c.values)
		if err != nil {
			continue
		}
		cv := sd / mean
		if cv < 0 {
			cv = -cv
		}
		if cv > widestCV {
			widest, widestCV = c.name, cv
		}
	}
	if widest != "" {
		out = append(out, fmt.Sprintf("Column '%s' varies the most relative to its mean (cv %s).", widest, formatNumber(widestCV)))
	}
	if len(ds.Rows) == 0 {
		out = append(out, "The dataset has a header but no rows.")
	}
	return out
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	r, err := stats.Round(v, 2)
	if err != nil {
		r = v
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
