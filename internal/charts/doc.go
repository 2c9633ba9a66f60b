// Package charts holds the dashboard's chart catalogue and draws each chart
// with gonum/plot.
//
// Every chart is an independent unit. Build evaluates one chart's series
// inside Isolate, so a missing column or a panic while preparing one chart
// turns into an error on that chart's Panel and the remaining charts and the
// table still render.
package charts
