package comm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcBwLog(t *testing.T) {
	// 1 MB in 1 ms -> 8e6 bits / 1e-3 s = 8 Gbps algorithmic
	algBw, busBw := CalcBwLog(TypeBroadcast, 1e6, 1.0)
	assert.InDelta(t, 8.0, algBw, 1e-9)
	assert.InDelta(t, 8.0, busBw, 1e-9)

	algBw, busBw = CalcBwLog(TypeAllReduce, 1e6, 1.0)
	assert.InDelta(t, 8.0, algBw, 1e-9)
	assert.InDelta(t, 14.0, busBw, 1e-9)

	algBw, busBw = CalcBwLog(TypeAllGather, 1e6, 1.0)
	assert.InDelta(t, 8.0, algBw, 1e-9)
	assert.InDelta(t, 7.0, busBw, 1e-9)

	algBw, busBw = CalcBwLog(TypeReduceScatter, 1e6, 2.0)
	assert.InDelta(t, 4.0, algBw, 1e-9)
	assert.InDelta(t, 3.5, busBw, 1e-9)
}

func TestCalcBwLogDependsOnlyOnInputs(t *testing.T) {
	a1, b1 := CalcBwLog(TypeAllReduce, 4096, 3.5)
	a2, b2 := CalcBwLog(TypeAllReduce, 4096, 3.5)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestCalcBwLogZeroElapsed(t *testing.T) {
	algBw, busBw := CalcBwLog(TypeAllReduce, 1e6, 0)
	assert.Zero(t, algBw)
	assert.Zero(t, busBw)
}

func TestConvertSizeToMsg(t *testing.T) {
	assert.Equal(t, "0.00 B", ConvertSizeToMsg(0))
	assert.Equal(t, "512.00 B", ConvertSizeToMsg(512))
	assert.Equal(t, "1.00 KB", ConvertSizeToMsg(1024))
	assert.Equal(t, "4.00 MB", ConvertSizeToMsg(4*1024*1024))
	assert.Equal(t, "2.50 GB", ConvertSizeToMsg(2.5*1024*1024*1024))
	assert.Equal(t, "3.00 TB", ConvertSizeToMsg(3*1024*1024*1024*1024))
}
