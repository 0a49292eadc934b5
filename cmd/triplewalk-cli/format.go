package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/persistorai/triplewalk/client"
)

func formatJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		fmt.Println(strings.Join(parts, "  "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

func formatQuiet(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}

// output renders v in the selected format. Table and quiet output need the
// caller's rows and lines; formats a command has no rows for fall back to
// JSON.
func output(v any, headers []string, rows [][]string, quiet []string) error {
	switch flagFmt {
	case "quiet":
		formatQuiet(quiet)
		return nil
	case "table":
		if headers != nil {
			formatTable(headers, rows)
			return nil
		}
		return formatJSON(v)
	default:
		return formatJSON(v)
	}
}

// pathString renders a path as "a -p-> b -q-> c", substituting the first
// label of each node when labels were requested.
func pathString(p client.Path) string {
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			pred := ""
			if i-1 < len(p.Predicates) {
				pred = p.Predicates[i-1]
			}
			fmt.Fprintf(&b, " -%s-> ", pred)
		}
		if i < len(p.Labels) && len(p.Labels[i]) > 0 {
			b.WriteString(p.Labels[i][0])
		} else {
			b.WriteString(n)
		}
	}
	return b.String()
}

func outputPaths(v any, paths []client.Path) error {
	rows := make([][]string, len(paths))
	ends := make([]string, len(paths))
	for i, p := range paths {
		rows[i] = []string{strconv.Itoa(i + 1), p.End(), pathString(p)}
		ends[i] = p.End()
	}
	return output(v, []string{"#", "END", "PATH"}, rows, ends)
}

func outputRecords(res *client.ClosureResult) error {
	rows := make([][]string, len(res.Records))
	nodes := make([]string, len(res.Records))
	for i, r := range res.Records {
		rows[i] = []string{r.Node, strconv.Itoa(r.Depth), strings.Join(r.Labels, ", ")}
		nodes[i] = r.Node
	}
	return output(res, []string{"NODE", "DEPTH", "LABELS"}, rows, nodes)
}

func outputList(v any, header string, items []string) error {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it}
	}
	return output(v, []string{header}, rows, items)
}
