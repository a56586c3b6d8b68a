package qasm

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/qpass/internal/ir"
)

// piExprRegex matches pi, 2pi, 2*pi, pi/2, 3*pi/4, -pi/2 and the like.
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// ParseParam parses a plain number or a pi expression.
func ParseParam(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	m := piExprRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	coeff := 1.0
	if m[2] != "" {
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		coeff = c
	}
	v := coeff * math.Pi
	if m[3] != "" {
		d, err := strconv.ParseFloat(m[3], 64)
		if err != nil || d == 0 {
			return 0, false
		}
		v /= d
	}
	if m[1] == "-" {
		v = -v
	}
	return v, true
}

// piForms are the fractions of pi FormatParam writes symbolically.
var piForms = []string{"2*pi", "pi", "pi/2", "pi/3", "pi/4", "pi/6", "pi/8", "3*pi/4", "3*pi/2", "2*pi/3"}

// FormatParam renders a parameter, using pi notation only when parsing the
// notation gives back exactly the same value.
func FormatParam(v float64) string {
	for _, form := range piForms {
		if p, _ := ParseParam(form); p == v {
			return form
		}
		if p, _ := ParseParam("-" + form); p == v {
			return "-" + form
		}
	}
	return ir.FormatFloat(v)
}

// parseParamList parses "p0, p1, ...". An empty string yields no params.
func parseParamList(s string) ([]float64, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, ok := ParseParam(part)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
