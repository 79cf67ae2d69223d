package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schematiq/schematiq/pkg/geom"
)

// ParsePlain extracts node center positions from Graphviz "plain"
// output. The format is line-oriented:
//
//	graph <scale> <width> <height>
//	node <name> <x> <y> <width> <height> ...
//	edge ...
//	stop
//
// Coordinates are in inches with the origin at the bottom-left and y
// growing upward; they are converted to canvas points with y growing
// downward, measured from the top of the drawing.
func ParsePlain(out string) (Result, error) {
	res := Result{}
	var graphHeight float64

	for _, line := range strings.Split(out, "\n") {
		fields, err := splitPlainFields(line)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed graph line: %q", line)
			}
			graphHeight, err = strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("graph height: %w", err)
			}
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed node line: %q", line)
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("node coordinates: %q", line)
			}
			res[fields[1]] = geom.Point{
				X: x * dpi,
				Y: (graphHeight - y) * dpi,
			}
		case "stop":
			return res, nil
		}
	}
	return res, nil
}

// splitPlainFields tokenizes one plain-format line. Names containing
// spaces arrive double-quoted; quotes inside names are not supported by
// the format.
func splitPlainFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote: %q", line)
	}
	flush()
	return fields, nil
}
