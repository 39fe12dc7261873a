package comm

import (
	"fmt"
	"math"
)

// busBwFactor is the correction applied on top of the algorithmic bandwidth
// to get bus bandwidth. The collective factors assume a fixed 8-rank ring:
// (n-1)/n for all_gather/reduce_scatter/all_to_all, 2(n-1)/n for all_reduce.
func busBwFactor(commType CommType) float64 {
	switch commType {
	case TypeAllGather, TypeReduceScatter, TypeAllToAll:
		return 7.0 / 8.0
	case TypeAllReduce:
		return 2.0 * 7.0 / 8.0
	default:
		return 1.0
	}
}

// CalcBwLog converts a message size in bytes and an elapsed time in
// milliseconds into algorithmic and bus bandwidth, both in Gbps. The result
// depends only on the inputs; a non-positive elapsed time yields (0, 0).
func CalcBwLog(commType CommType, msgSize float64, elapsedMs float64) (algBw float64, busBw float64) {
	if elapsedMs <= 0 {
		return 0, 0
	}
	algBw = msgSize * 8 / (elapsedMs * 1e6)
	busBw = algBw * busBwFactor(commType)
	return algBw, busBw
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ConvertSizeToMsg renders a byte count as a human-readable string using
// 1024-based units, e.g. 4194304 -> "4.00 MB".
func ConvertSizeToMsg(size float64) string {
	if size < 1 {
		return "0.00 B"
	}
	i := int(math.Floor(math.Log(size) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	return fmt.Sprintf("%.2f %s", size/math.Pow(1024, float64(i)), sizeUnits[i])
}
