package output

import (
	"fmt"

	"github.com/daryltucker/variant-runner/internal/model"
)

// ProgressLine formats the live status line for one completed unit.
// Failures show the first excerpt characters of the error.
func ProgressLine(rec model.ResultRecord, excerpt int) string {
	status := okStyle.Render("OK")
	if rec.Failed() {
		status = errStyle.Render("ERR: " + Truncate(rec.ErrorText(), excerpt))
	}
	return fmt.Sprintf("  %-18s x %-20s | %4d+%4d tok | %5.1fs | %s",
		rec.Prompt, rec.Task, rec.InputTokens, rec.OutputTokens, rec.Seconds(), status)
}

// Truncate returns at most n runes of s. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
