// Command bench compares the disk-backed B+-tree index in this module
// against an in-memory oracle baseline and a Pebble (LSM) baseline under
// mixed OLTP/OLAP/range-scan workloads.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

func main() {
	outCSV := flag.String("out", "bench_results.csv", "CSV output path")
	plotPath := flag.String("plot", "", "if set, render a latency chart to this path")
	scale := flag.Int("scale", 100000, "number of keys to load before running workloads")
	configPath := flag.String("config", "", "YAML file supplying any of the flags above that are not set explicitly")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if cfg.Out != "" && !explicit["out"] {
		*outCSV = cfg.Out
	}
	if cfg.Plot != "" && !explicit["plot"] {
		*plotPath = cfg.Plot
	}
	if cfg.Scale != 0 && !explicit["scale"] {
		*scale = cfg.Scale
	}

	runID := uuid.NewString()

	f, err := os.Create(*outCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"# run_id", runID})
	w.Write([]string{"Engine", "Config", "Operation", "LatencyNs", "MemMB", "HeapObjects"})

	workDir, err := os.MkdirTemp("", "bplusdb-bench-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	var allResults []Result

	allResults = append(allResults, runSuite(w, "DiskBTree", *scale, func() (Engine, error) {
		return OpenDiskBTree(filepath.Join(workDir, "disk"))
	}, *scale)...)

	allResults = append(allResults, runSuite(w, "OracleBPlusTree", *scale, func() (Engine, error) {
		return OpenOracleEngine(), nil
	}, *scale)...)

	allResults = append(allResults, runSuite(w, "Pebble", *scale, func() (Engine, error) {
		return OpenPebbleEngine(filepath.Join(workDir, "pebble"))
	}, *scale)...)

	w.Flush()
	fmt.Printf("benchmark complete: %s (run %s)\n", *outCSV, runID)

	stats := GetDetailedMem()
	fmt.Printf("final heap: %s across %s objects\n",
		humanize.Bytes(stats.AllocMB*1024*1024), humanize.Comma(int64(stats.HeapObjects)))

	if *plotPath != "" {
		if err := renderLatencyChart(allResults, *plotPath); err != nil {
			fmt.Fprintf(os.Stderr, "bench: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("latency chart written to", *plotPath)
	}
}

func runSuite(w *csv.Writer, name string, conf int, open func() (Engine, error), n int) []Result {
	fmt.Printf("testing %s (n=%d)\n", name, n)
	confStr := fmt.Sprintf("n=%d", conf)

	e, err := open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %s: open: %v\n", name, err)
		return nil
	}
	defer e.Close()

	var results []Result
	record := func(op string, latencyNs int64) {
		stats := GetDetailedMem()
		res := Result{Name: name, Config: confStr, Operation: op, LatencyNs: latencyNs, MemMB: stats.AllocMB, Objects: stats.HeapObjects}
		Record(w, res)
		results = append(results, res)
	}

	latency, err := timeOp(n, func() error {
		for k := 0; k < n; k++ {
			if err := e.Insert(int32(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %s: insert: %v\n", name, err)
		return results
	}
	record("Load_Insert", latency)

	if latency, err := timeOp(n/2, func() error { return ExecuteWorkload(e, OLTP, n/2) }); err == nil {
		record("Workload_OLTP", latency)
	} else {
		fmt.Fprintf(os.Stderr, "bench: %s: OLTP: %v\n", name, err)
	}

	if latency, err := timeOp(n/2, func() error { return ExecuteWorkload(e, OLAP, n/2) }); err == nil {
		record("Workload_OLAP", latency)
	} else {
		fmt.Fprintf(os.Stderr, "bench: %s: OLAP: %v\n", name, err)
	}

	if latency, err := timeOp(100, func() error { return ExecuteWorkload(e, Reporting, 100) }); err == nil {
		record("Workload_Range", latency)
	} else {
		fmt.Fprintf(os.Stderr, "bench: %s: range: %v\n", name, err)
	}

	return results
}
