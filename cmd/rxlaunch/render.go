package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/deixis/rxlaunch/internal/report"
)

// renderExecution prints the execution header, its steps as a table, the
// summary and optionally the transcript.
func renderExecution(w io.Writer, e *report.Execution, withTranscript bool) {
	fmt.Fprintf(w, "Run:     %s\n", e.ID)
	fmt.Fprintf(w, "Test:    %s (TS%d, TC%d)\n", e.RunnerTestName, e.TestSetID, e.TestCaseID)
	fmt.Fprintf(w, "Runner:  %s\n", e.RunnerName)
	fmt.Fprintf(w, "Status:  %s\n", e.Status)
	if d := e.Duration(); d > 0 {
		fmt.Fprintf(w, "Time:    %s\n", d.Round(time.Millisecond))
	}
	if e.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", e.Error)
	}
	fmt.Fprintln(w)

	if len(e.Steps) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(fmt.Sprintf("Steps (%s)", report.Summary(e)))
		t.AppendHeader(table.Row{"#", "Status", "Category", "Message"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "#", Align: text.AlignRight},
			{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		})
		for _, s := range e.Steps {
			t.AppendRow(table.Row{s.Position, s.Status.String(), s.Description, s.ActualResult})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	if msg := strings.TrimRight(e.Message, "\n"); msg != "" {
		fmt.Fprintln(w, "Summary:")
		for _, line := range strings.Split(msg, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if withTranscript && e.Transcript != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Transcript:")
		for _, line := range strings.Split(strings.TrimRight(e.Transcript, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// renderHistory prints one row per execution.
func renderHistory(w io.Writer, execs []*report.Execution) {
	if len(execs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Started", "Test", "Set", "Case", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Set", Align: text.AlignRight},
		{Name: "Case", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, e := range execs {
		t.AppendRow(table.Row{
			e.ID,
			e.StartDate.Format("2006-01-02 15:04:05"),
			e.RunnerTestName,
			e.TestSetID,
			e.TestCaseID,
			e.Duration().Round(time.Second).String(),
			e.Status.String(),
		})
	}
	t.Render()
}
