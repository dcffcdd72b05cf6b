package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// renderLatencyChart draws one grouped bar per operation, one bar per
// engine within the group, from the average latency recorded for each
// (engine, operation) pair in results.
func renderLatencyChart(results []Result, outPath string) error {
	operations := []string{}
	seenOp := map[string]bool{}
	engines := []string{}
	seenEngine := map[string]bool{}
	sums := map[string]int64{}
	counts := map[string]int{}

	for _, r := range results {
		if !seenOp[r.Operation] {
			seenOp[r.Operation] = true
			operations = append(operations, r.Operation)
		}
		if !seenEngine[r.Name] {
			seenEngine[r.Name] = true
			engines = append(engines, r.Name)
		}
		key := r.Name + "\x00" + r.Operation
		sums[key] += r.LatencyNs
		counts[key]++
	}

	p := plot.New()
	p.Title.Text = "Average operation latency by engine"
	p.Y.Label.Text = "latency (ns)"
	p.NominalX(operations...)

	width := vg.Points(14)
	for i, engine := range engines {
		values := make(plotter.Values, len(operations))
		for j, op := range operations {
			key := engine + "\x00" + op
			if counts[key] > 0 {
				values[j] = float64(sums[key] / int64(counts[key]))
			}
		}
		bar, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("bench: new bar chart for %s: %w", engine, err)
		}
		bar.Color = plotutil.Color(i)
		bar.Offset = width * vg.Length(i) * 1.2
		p.Add(bar)
		p.Legend.Add(engine, bar)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return fmt.Errorf("bench: save chart: %w", err)
	}
	return nil
}
