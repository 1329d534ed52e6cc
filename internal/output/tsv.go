package output

import (
	"flatcode/internal/core/flatten"
	"fmt"
	"strings"
)

type TSVGenerator struct {
	report *flatten.Report
}

func NewTSVGenerator(report *flatten.Report) *TSVGenerator {
	return &TSVGenerator{report: report}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tModule\tLine\tKind\n")
	for _, e := range t.report.Edges {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%s\n", e.From, e.To, e.Module, e.Line, e.Kind))
	}

	return buf.String(), nil
}
