package collector

import (
	"fmt"
	"strconv"

	"github.com/distsim-tools/commtrace/internal/comm"
	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/tracelog"
)

const traceColumnCount = 12

// ReplayTrace rebuilds a trace log from a previously dumped _log.csv file.
// Epoch partitioning falls out of replaying the rows through Log.Add in
// their original order.
func ReplayTrace(csvPath string) (*tracelog.Log, error) {
	rows, err := common.ReadCsvFile(csvPath)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: trace file holds no records", csvPath)
	}

	traceLog := tracelog.NewLog()
	for i, row := range rows[1:] {
		record, err := parseRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", csvPath, i+2, err)
		}
		traceLog.Add(record)
	}
	return traceLog, nil
}

func parseRecordRow(row []string) (*model.Record, error) {
	if len(row) != traceColumnCount {
		return nil, fmt.Errorf("expected %d columns, got %d", traceColumnCount, len(row))
	}
	groupSize, err := strconv.Atoi(row[2])
	if err != nil {
		return nil, fmt.Errorf("comm_group_size: %w", err)
	}
	msgSize, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return nil, fmt.Errorf("msg_size: %w", err)
	}
	count, err := strconv.ParseFloat(row[11], 64)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	record := &model.Record{
		CommType:      comm.CommType(row[0]),
		CommGroup:     comm.CommGroup(row[1]),
		CommGroupSize: groupSize,
		MsgSize:       msgSize,
		Stage:         row[4],
		Additional:    row[7],
		Count:         count,
	}
	if row[5] != "" {
		dst, err := strconv.Atoi(row[5])
		if err != nil {
			return nil, fmt.Errorf("dst: %w", err)
		}
		record.Dst = &dst
	}
	if row[6] != "" {
		src, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("src: %w", err)
		}
		record.Src = &src
	}
	if row[8] != "" {
		elapsed, err := strconv.ParseFloat(row[8], 64)
		if err != nil {
			return nil, fmt.Errorf("elapsed_time: %w", err)
		}
		// bandwidth columns are derived, so they are recomputed rather
		// than read back
		record.SetElapsedTime(elapsed)
	}
	return record, nil
}
