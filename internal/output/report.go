/*
PURPOSE:
  Console views over a finished run: phase banners, side-by-side response
  comparisons per task, the signal matrix and the token summary.

REQUIREMENTS:
  User-specified:
  - Comparisons list successful responses for one task sorted by prompt,
    cutting long responses and reporting how many characters were cut.
  - The signal matrix is sorted by (prompt, task), skips failed records
    and ends with a TOTAL column.
  - Token totals include failed records (they contribute zero).

  Implementation-discovered:
  - Input arrives in completion order; every view sorts by its own key.
  - A Filter narrows the matrix/comparisons to one task or one model.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli
  - Uses: internal/model, internal/signals, lipgloss for headings

ERROR HANDLING:
  - Best-effort writes to the console; write errors are ignored.

IMPLEMENTATION RULES:
  - Never mutate the caller's slice.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go
*/

package output

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/daryltucker/variant-runner/internal/model"
	"github.com/daryltucker/variant-runner/internal/signals"
)

const ruleWidth = 80

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// Filter narrows a view to one task and/or one model. Zero value matches everything.
type Filter struct {
	Task  string
	Model string
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec model.ResultRecord) bool {
	if f.Task != "" && rec.Task != f.Task {
		return false
	}
	if f.Model != "" && rec.Model != f.Model {
		return false
	}
	return true
}

// SortRecords returns a copy sorted by (prompt, task, model).
func SortRecords(records []model.ResultRecord) []model.ResultRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.ResultRecord) int {
		if c := strings.Compare(a.Prompt, b.Prompt); c != 0 {
			return c
		}
		if c := strings.Compare(a.Task, b.Task); c != 0 {
			return c
		}
		return strings.Compare(a.Model, b.Model)
	})
	return out
}

// Banner prints a double-ruled heading with optional detail lines.
func Banner(w io.Writer, title string, lines ...string) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "  %s\n", titleStyle.Render(title))
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", ruleWidth))
}

// PhaseBanner announces the batch about to run for one model.
func PhaseBanner(w io.Writer, modelKey string, count int, prompts, tasks []string) {
	Banner(w,
		fmt.Sprintf("PHASE: %s - %d experiments", strings.ToUpper(modelKey), count),
		"Prompts: "+strings.Join(prompts, ", "),
		"Tasks: "+strings.Join(tasks, ", "),
	)
	fmt.Fprintln(w)
}

// Comparison prints every successful response for task, sorted by prompt.
// Responses longer than limit characters are cut. It returns the number of responses shown.
func Comparison(w io.Writer, records []model.ResultRecord, task string, limit int) int {
	Banner(w, "TASK: "+task)

	shown := 0
	for _, r := range SortRecords(records) {
		if r.Task != task || r.Failed() {
			continue
		}
		shown++
		fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", ruleWidth))
		fmt.Fprintf(w, "  [%s] %s  (%d tokens)\n", strings.ToUpper(r.Model), titleStyle.Render(r.Prompt), r.OutputTokens)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", ruleWidth))

		text, cut := Elide(r.ResponseText(), limit)
		fmt.Fprintln(w, text)
		if cut > 0 {
			fmt.Fprintf(w, "\n  %s\n", mutedStyle.Render(fmt.Sprintf("[...%d more chars...]", cut)))
		}
	}
	return shown
}

// Elide cuts s to limit characters and reports how many were dropped.
func Elide(s string, limit int) (string, int) {
	if limit <= 0 {
		return s, 0
	}
	r := []rune(s)
	if len(r) <= limit {
		return s, 0
	}
	return string(r[:limit]), len(r) - limit
}

// MatrixRow is one line of the signal matrix.
type MatrixRow struct {
	Model  string
	Prompt string
	Task   string
	Vector signals.Vector
}

// BuildMatrix classifies the successful records that pass f, sorted by (prompt, task, model).
func BuildMatrix(records []model.ResultRecord, c *signals.Classifier, f Filter) []MatrixRow {
	rows := make([]MatrixRow, 0, len(records))
	for _, r := range SortRecords(records) {
		if r.Failed() || !f.Match(r) {
			continue
		}
		rows = append(rows, MatrixRow{
			Model:  r.Model,
			Prompt: r.Prompt,
			Task:   r.Task,
			Vector: c.Classify(r.Response),
		})
	}
	return rows
}

// SignalMatrix prints the per-record signal counts with a TOTAL column.
// It returns the number of rows printed.
func SignalMatrix(w io.Writer, records []model.ResultRecord, c *signals.Classifier, f Filter) int {
	rows := BuildMatrix(records, c, f)
	rules := c.Rules()

	models := make(map[string]bool)
	for _, r := range rows {
		models[r.Model] = true
	}
	withModel := len(models) > 1

	widths := make([]int, len(rules))
	for i, r := range rules {
		widths[i] = max(6, len(r.Header()))
	}

	Banner(w, "SIGNAL DETECTION MATRIX")
	fmt.Fprintln(w)

	var head, rule strings.Builder
	head.WriteString("  ")
	rule.WriteString("  ")
	if withModel {
		fmt.Fprintf(&head, "%-10s ", "Model")
		fmt.Fprintf(&rule, "%s ", strings.Repeat("-", 10))
	}
	fmt.Fprintf(&head, "%-18s %-20s", "Prompt", "Task")
	fmt.Fprintf(&rule, "%s %s", strings.Repeat("-", 18), strings.Repeat("-", 20))
	for i, r := range rules {
		fmt.Fprintf(&head, " %*s", widths[i], r.Header())
		fmt.Fprintf(&rule, " %s", strings.Repeat("-", widths[i]))
	}
	fmt.Fprintf(&head, " %6s", "TOTAL")
	fmt.Fprintf(&rule, " %s", strings.Repeat("-", 6))
	fmt.Fprintln(w, head.String())
	fmt.Fprintln(w, rule.String())

	for _, row := range rows {
		var line strings.Builder
		line.WriteString("  ")
		if withModel {
			fmt.Fprintf(&line, "%-10s ", row.Model)
		}
		fmt.Fprintf(&line, "%-18s %-20s", row.Prompt, row.Task)
		for i, r := range rules {
			fmt.Fprintf(&line, " %*d", widths[i], row.Vector.Get(r.Category))
		}
		fmt.Fprintf(&line, " %6d", row.Vector.Total())
		fmt.Fprintln(w, line.String())
	}
	return len(rows)
}

// TokenTotals sums usage across a run.
type TokenTotals struct {
	Input  int
	Output int
}

// Total is input plus output.
func (t TokenTotals) Total() int { return t.Input + t.Output }

// Totals sums usage over every record, failed ones included.
func Totals(records []model.ResultRecord) TokenTotals {
	var t TokenTotals
	for _, r := range records {
		t.Input += r.InputTokens
		t.Output += r.OutputTokens
	}
	return t
}

// TokenSummary prints the aggregate token usage.
func TokenSummary(w io.Writer, t TokenTotals) {
	fmt.Fprintf(w, "\n  Token usage:\n")
	fmt.Fprintf(w, "    Input:  %s tokens\n", humanize.Comma(int64(t.Input)))
	fmt.Fprintf(w, "    Output: %s tokens\n", humanize.Comma(int64(t.Output)))
	fmt.Fprintf(w, "    Total:  %s tokens\n", humanize.Comma(int64(t.Total())))
}

// FailureSummary prints one line per failed record, sorted. It returns the count.
func FailureSummary(w io.Writer, records []model.ResultRecord) int {
	n := 0
	for _, r := range SortRecords(records) {
		if !r.Failed() {
			continue
		}
		if n == 0 {
			fmt.Fprintf(w, "\n  %s\n", errStyle.Render("Failed units:"))
		}
		n++
		fmt.Fprintf(w, "    %s / %s / %s: %s\n", r.Model, r.Prompt, r.Task, r.ErrorText())
	}
	return n
}
