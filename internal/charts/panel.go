package charts

import (
	"fmt"

	"gnlreports/pkg/contracts/domain"
)

// Panel is the outcome of evaluating one chart. When Err is set the chart
// failed and only its title and the error are shown.
type Panel struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Kind   Kind     `json:"kind"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series,omitempty"`
	Err    string   `json:"error,omitempty"`
}

// OK reports whether the chart evaluated cleanly.
func (p Panel) OK() bool {
	return p.Err == ""
}

// Isolate runs fn as the body of one chart. An error or a panic inside fn
// is recorded on the returned panel and never escapes.
func Isolate(spec Spec, fn func() error) (p Panel) {
	p = Panel{ID: spec.ID, Title: spec.Title, Kind: spec.Kind, YLabel: spec.YLabel}
	defer func() {
		if r := recover(); r != nil {
			p.Series = nil
			p.Err = fmt.Sprintf("chart %s failed: %v", spec.ID, r)
		}
	}()

	if err := fn(); err != nil {
		p.Err = err.Error()
	}
	return p
}

// Build evaluates spec over records in isolation.
func Build(spec Spec, available []string, records []domain.Record, label Labeler) Panel {
	var series []Series
	p := Isolate(spec, func() error {
		var err error
		series, err = Extract(spec, available, records, label)
		return err
	})
	if p.OK() {
		p.Series = series
	}
	return p
}

// BuildAll evaluates every spec independently, in order.
func BuildAll(specs []Spec, available []string, records []domain.Record, label Labeler) []Panel {
	panels := make([]Panel, len(specs))
	for i, s := range specs {
		panels[i] = Build(s, available, records, label)
	}
	return panels
}
