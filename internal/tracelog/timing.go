package tracelog

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TimeStats summarizes the recorded epoch boundary times, with the first
// boundary split off as initialization time.
type TimeStats struct {
	InitTime float64 `json:"initTime"`
	MaxTime  float64 `json:"maxTime"`
	MinTime  float64 `json:"minTime"`
	MeanTime float64 `json:"meanTime"`
	Variance float64 `json:"variance"`
	P90Time  float64 `json:"p90Time"`
	P99Time  float64 `json:"p99Time"`
}

// AnalyzeTime reports statistics over the recorded epoch times: the first
// boundary is initialization, the rest are training iterations. The stored
// sequence is left untouched, so repeated calls agree. Fewer than two
// recorded boundaries is a precondition violation.
//
// The percentile here is the ascending-sorted element at index floor(0.9*n)
// (resp. 0.99), which is not the estimator the per-stage aggregation uses.
func (l *Log) AnalyzeTime(w io.Writer) (*TimeStats, error) {
	if w == nil {
		w = os.Stdout
	}
	if len(l.EpochTimes) < 2 {
		return nil, fmt.Errorf("epoch time analysis needs at least 2 recorded epoch boundaries, have %d", len(l.EpochTimes))
	}

	sorted := append([]float64(nil), l.EpochTimes[1:]...)
	sort.Float64s(sorted)
	n := len(sorted)

	stats := &TimeStats{
		InitTime: l.EpochTimes[0],
		MaxTime:  sorted[n-1],
		MinTime:  sorted[0],
		MeanTime: stat.Mean(sorted, nil),
		Variance: stat.PopVariance(sorted, nil),
		P90Time:  sorted[int(float64(n)*0.9)],
		P99Time:  sorted[int(float64(n)*0.99)],
	}

	fmt.Fprintln(w, "--------------------------------------------------------")
	fmt.Fprintln(w, "result for epoch time")
	fmt.Fprintf(w, "init time is %.2f\n", stats.InitTime)
	fmt.Fprintf(w, "max iteration time %.2f\n", stats.MaxTime)
	fmt.Fprintf(w, "min iteration time %.2f\n", stats.MinTime)
	fmt.Fprintf(w, "avg iteration time %.2f\n", stats.MeanTime)
	fmt.Fprintf(w, "p90 iteration time %.2f\n", stats.P90Time)
	fmt.Fprintf(w, "p99 iteration time %.2f\n", stats.P99Time)
	fmt.Fprintf(w, "iteration time variance %.2f\n", stats.Variance)
	return stats, nil
}
