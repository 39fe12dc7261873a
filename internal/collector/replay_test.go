package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsim-tools/commtrace/internal/comm"
	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/tracelog"
)

func TestReplayTraceRebuildsPartitions(t *testing.T) {
	chdirTemp(t)

	l := tracelog.NewLog()
	src, dst := 0, 1
	p2p := &model.Record{
		CommType: comm.TypeIsend, CommGroup: comm.GroupPp, CommGroupSize: 2,
		MsgSize: 2048, Stage: "pp_send", Src: &src, Dst: &dst, Additional: "layer1", Count: 1,
	}
	p2p.SetElapsedTime(0.7)
	l.Add(p2p)
	l.Add(model.NewEpochEnd(1.0))
	l.Add(model.NewEpochEnd(1.1)) // consecutive sentinel collapses on replay too
	ar := &model.Record{CommType: comm.TypeAllReduce, CommGroup: comm.GroupDp, CommGroupSize: 2, MsgSize: 4096, Count: 2}
	ar.SetElapsedTime(2.0)
	l.Add(ar)
	require.NoError(t, l.Dump("replayed"))

	restored, err := ReplayTrace(common.COMM_LOGS_DIR + "/replayed" + common.LOG_CSV_SUFFIX)
	require.NoError(t, err)

	require.Len(t, restored.CommLogs, len(l.CommLogs))
	assert.Equal(t, len(l.CommLogEachEpoch), len(restored.CommLogEachEpoch))
	assert.Equal(t, l.EpochTimes, restored.EpochTimes)
	for i := range l.CommLogs {
		assert.Equal(t, *l.CommLogs[i], *restored.CommLogs[i], "record %d", i)
	}
}

func TestReplayTraceEmptyFileFails(t *testing.T) {
	_, err := ReplayTrace("does_not_exist.csv")
	require.Error(t, err)
}
