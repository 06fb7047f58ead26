package runner

import (
	"strings"
)

// ScriptSeparator separates the script path from extra runner arguments
// in a script reference.
const ScriptSeparator = "|"

// Param is a named test parameter passed to the runner.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SplitScript splits a script reference of the form "path|extra args".
// Elements after the second separator are ignored.
func SplitScript(ref string) (path, extra string) {
	elems := strings.Split(ref, ScriptSeparator)
	path = elems[0]
	if len(elems) > 1 {
		extra = elems[1]
	}
	return path, extra
}

// Dedupe trims parameter names and drops every parameter whose name was
// already seen. Order is preserved; the first occurrence wins.
func Dedupe(params []Param) []Param {
	seen := make(map[string]bool, len(params))
	out := make([]Param, 0, len(params))
	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Param{Name: name, Value: p.Value})
	}
	return out
}

// BuildArgs composes the runner command line:
//
//	/rf:"<resultFile>" /param:<name>="<value>" ... <extra>
//
// Parameters keep their order and duplicates are dropped. extra is
// appended verbatim unless it is blank.
func BuildArgs(resultFile string, params []Param, extra string) string {
	var b strings.Builder
	b.WriteString(`/rf:"`)
	b.WriteString(resultFile)
	b.WriteString(`"`)
	for _, p := range Dedupe(params) {
		b.WriteString(" /param:")
		b.WriteString(p.Name)
		b.WriteString(`="`)
		b.WriteString(p.Value)
		b.WriteString(`"`)
	}
	if strings.TrimSpace(extra) != "" {
		b.WriteString(" ")
		b.WriteString(extra)
	}
	return b.String()
}

// SplitCommandLine splits a command line into arguments using the
// Windows C runtime rules: whitespace separates arguments, double quotes
// group, and backslashes are literal unless they precede a quote.
func SplitCommandLine(line string) []string {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quoted  bool
		slashes int
	)
	flushSlashes := func() {
		for ; slashes > 0; slashes-- {
			cur.WriteByte('\\')
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			slashes++
			inArg = true
		case c == '"':
			for ; slashes >= 2; slashes -= 2 {
				cur.WriteByte('\\')
			}
			if slashes == 1 {
				slashes = 0
				cur.WriteByte('"')
			} else {
				quoted = !quoted
			}
			inArg = true
		case (c == ' ' || c == '\t') && !quoted:
			flushSlashes()
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			flushSlashes()
			cur.WriteByte(c)
			inArg = true
		}
	}
	flushSlashes()
	if inArg {
		args = append(args, cur.String())
	}
	return args
}
