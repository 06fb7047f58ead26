// Package rxlog reads the XML data file the Ranorex runner writes next to
// its .rxlog report.
package rxlog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/deixis/rxlaunch"
)

// DataSuffix is appended to the result file path to name the XML data
// file holding the structured results.
const DataSuffix = ".data"

// Queries over the data file.
const (
	rootActivityPath = "/report/activity"
	errorMessagePath = "//errmsg"
	itemPath         = "/report/activity[@type='root']//activity/item"
)

// Item is one entry logged by the runner.
type Item struct {
	Category string `json:"category"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

// Report holds what the launcher needs from a data file.
type Report struct {
	// Result is the overall result code of the first top-level activity.
	Result string `json:"result"`
	// Summary is every error message followed by a newline, or Result
	// when the report holds no error messages.
	Summary string `json:"summary"`
	// Items are the entries nested under the root activity, in document order.
	Items []Item `json:"items"`
}

// DataPath returns the data file path for a result file.
func DataPath(resultFile string) string {
	return resultFile + DataSuffix
}

// ParseFile reads and parses a data file.
func ParseFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rxlaunch.Wrap(rxlaunch.ParseFailure, "parse", err, "opening result data")
	}
	defer f.Close()

	rep, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Parse parses a data file. A malformed document or one without a
// /report/activity element is a ParseFailure, never an empty report.
func Parse(r io.Reader) (*Report, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, rxlaunch.Wrap(rxlaunch.ParseFailure, "parse", err, "reading result data")
	}

	root := xmlquery.FindOne(doc, rootActivityPath)
	if root == nil {
		return nil, rxlaunch.Errorf(rxlaunch.ParseFailure, "parse", "result data has no %s element", rootActivityPath)
	}
	result, ok := attr(root, "result")
	if !ok {
		return nil, rxlaunch.Errorf(rxlaunch.ParseFailure, "parse", "%s has no result attribute", rootActivityPath)
	}

	rep := &Report{Result: result, Summary: result}

	if msgs := xmlquery.Find(doc, errorMessagePath); len(msgs) > 0 {
		var b strings.Builder
		for _, m := range msgs {
			b.WriteString(m.InnerText())
			b.WriteString("\n")
		}
		rep.Summary = b.String()
	}

	for i, n := range xmlquery.Find(doc, itemPath) {
		category, ok := attr(n, "category")
		if !ok {
			return nil, rxlaunch.Errorf(rxlaunch.ParseFailure, "parse", "item %d has no category attribute", i+1)
		}
		level, ok := attr(n, "level")
		if !ok {
			return nil, rxlaunch.Errorf(rxlaunch.ParseFailure, "parse", "item %d has no level attribute", i+1)
		}
		item := Item{Category: category, Level: level}
		if msg := xmlquery.FindOne(n, "message"); msg != nil {
			item.Message = msg.InnerText()
		}
		rep.Items = append(rep.Items, item)
	}

	return rep, nil
}

func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
