package fuzzy

import (
	"fmt"
	"io"
	"math"
	"strings"
)

var chartSymbols = []rune{'*', '+', 'o', '#', 'x', '%', '@', '~'}

// WriteDomainChart plots every term of a domain as a text chart with cols columns
// and rows rows of membership resolution. It only reads the domain.
func WriteDomainChart(w io.Writer, d *Domain, cols, rows int) error {
	if cols < 2 || rows < 2 {
		return fmt.Errorf("chart needs at least 2x2 cells, got %dx%d", cols, rows)
	}

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}

	step := (d.high - d.low) / float64(cols-1)
	terms := d.Terms()
	for i, t := range terms {
		sym := chartSymbols[i%len(chartSymbols)]

		if s, ok := t.shape.(Singleton); ok {
			col := int(math.Round((s.Point - d.low) / step))
			if col < 0 || col >= cols {
				continue
			}
			top := rowFor(s.Full, rows)
			for r := top; r < rows; r++ {
				grid[r][col] = sym
			}
			continue
		}

		for c := 0; c < cols; c++ {
			m := t.Membership(d.low + float64(c)*step)
			if m <= 0 {
				continue
			}
			grid[rowFor(m, rows)][c] = sym
		}
	}

	if _, err := fmt.Fprintf(w, "%s\n", d); err != nil {
		return err
	}
	for r, line := range grid {
		label := "    "
		switch r {
		case 0:
			label = "1.0 "
		case rows - 1:
			label = "0.0 "
		}
		if _, err := fmt.Fprintf(w, "%s|%s\n", label, string(line)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "    +%s\n    %-*g%g\n", strings.Repeat("-", cols), cols-len(fmt.Sprint(d.high))+1, d.low, d.high); err != nil {
		return err
	}

	for i, t := range terms {
		if _, err := fmt.Fprintf(w, "    %c %s\n", chartSymbols[i%len(chartSymbols)], t.name); err != nil {
			return err
		}
	}
	return nil
}

func rowFor(m float64, rows int) int {
	return int(math.Round((1 - clamp01(m)) * float64(rows-1)))
}

// DescribeRuleSet renders each rule on its own line
func DescribeRuleSet(rs *RuleSet) []string {
	lines := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		lines = append(lines, r.String())
	}
	return lines
}
