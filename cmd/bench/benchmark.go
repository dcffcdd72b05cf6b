package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
	"time"
)

// Result is one recorded measurement row, carried over from the teacher's
// BenchResult shape with the same six columns.
type Result struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// MemoryStats is a snapshot of runtime.MemStats fields this benchmark cares
// about.
type MemoryStats struct {
	AllocMB      uint64
	TotalAllocMB uint64
	HeapObjects  uint64
}

// GetDetailedMem forces a GC so the snapshot reflects live data rather than
// not-yet-collected garbage, then reads runtime.MemStats.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
	}
}

// timeOp runs fn once and returns the average latency in nanoseconds over
// n operations (n must be > 0).
func timeOp(n int, fn func() error) (int64, error) {
	start := time.Now()
	if err := fn(); err != nil {
		return 0, err
	}
	if n <= 0 {
		n = 1
	}
	return time.Since(start).Nanoseconds() / int64(n), nil
}

// Record writes one result row to w.
func Record(w *csv.Writer, res Result) {
	w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}
