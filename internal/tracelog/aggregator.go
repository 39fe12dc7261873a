package tracelog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/distsim-tools/commtrace/internal/comm"
	"github.com/distsim-tools/commtrace/internal/model"
)

// GroupKey is the coarse aggregation key: every operation of one kind over
// one group lands in the same bucket regardless of message size.
type GroupKey struct {
	CommType  comm.CommType
	CommGroup comm.CommGroup
}

// MarshalText renders the key so it can index a JSON object.
func (k GroupKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%s", k.CommType, k.CommGroup)), nil
}

// DetailedGroupKey additionally separates message sizes.
type DetailedGroupKey struct {
	CommType  comm.CommType
	CommGroup comm.CommGroup
	MsgSize   float64
}

// MarshalText renders the key so it can index a JSON object.
func (k DetailedGroupKey) MarshalText() ([]byte, error) {
	size := strconv.FormatFloat(k.MsgSize, 'f', -1, 64)
	return []byte(fmt.Sprintf("%s/%s/%s", k.CommType, k.CommGroup, size)), nil
}

// GroupInfo accumulates the summed fields and the raw elapsed-time samples
// of one group. MsgSize stays zero for the detailed grouping, where size is
// part of the key.
type GroupInfo struct {
	Count        float64   `json:"count"`
	MsgSize      float64   `json:"msg_size"`
	ElapsedTimes []float64 `json:"elapsed_times"`
}

// StageStats is the aggregation result for one stage: how many epoch
// partitions contributed, plus the coarse and detailed groupings.
type StageStats struct {
	Count                int                            `json:"count"`
	CommTypeInfo         map[GroupKey]*GroupInfo        `json:"comm_type_info"`
	DetailedCommTypeInfo map[DetailedGroupKey]*GroupInfo `json:"detailed_comm_type_info"`
}

// analyzeStageLog folds one epoch partition into the running aggregation
// for stage. Records with no elapsed time contribute a zero sample.
func analyzeStageLog(epochLog []*model.Record, stage string, commInfo map[string]*StageStats) {
	stats, ok := commInfo[stage]
	if !ok {
		stats = &StageStats{
			CommTypeInfo:         map[GroupKey]*GroupInfo{},
			DetailedCommTypeInfo: map[DetailedGroupKey]*GroupInfo{},
		}
		commInfo[stage] = stats
	}
	stats.Count++

	for _, record := range epochLog {
		elapsed := 0.0
		if record.ElapsedTime != nil {
			elapsed = *record.ElapsedTime
		}

		key := GroupKey{CommType: record.CommType, CommGroup: record.CommGroup}
		info, ok := stats.CommTypeInfo[key]
		if !ok {
			info = &GroupInfo{}
			stats.CommTypeInfo[key] = info
		}
		info.Count += record.Count
		info.MsgSize += record.MsgSize
		info.ElapsedTimes = append(info.ElapsedTimes, elapsed)

		detailedKey := DetailedGroupKey{CommType: record.CommType, CommGroup: record.CommGroup, MsgSize: record.MsgSize}
		detailedInfo, ok := stats.DetailedCommTypeInfo[detailedKey]
		if !ok {
			detailedInfo = &GroupInfo{}
			stats.DetailedCommTypeInfo[detailedKey] = detailedInfo
		}
		detailedInfo.Count += record.Count
		detailedInfo.ElapsedTimes = append(detailedInfo.ElapsedTimes, elapsed)
	}
}

func printStageLog(stage string, info map[GroupKey]*GroupInfo) string {
	keys := make([]GroupKey, 0, len(info))
	for key := range info {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CommType != keys[j].CommType {
			return keys[i].CommType < keys[j].CommType
		}
		return keys[i].CommGroup < keys[j].CommGroup
	})

	var sb strings.Builder
	for _, key := range keys {
		group := info[key]
		fmt.Fprintf(&sb, "stage: %s | comm_type: %s | comm_group: %s | count: %.2f | msg_size: %s",
			stage, key.CommType, key.CommGroup, group.Count, comm.ConvertSizeToMsg(group.MsgSize))
		sb.WriteString(sampleSummary("elapsed_time", group.ElapsedTimes))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func printDetailedStageLog(stage string, info map[DetailedGroupKey]*GroupInfo) string {
	keys := make([]DetailedGroupKey, 0, len(info))
	for key := range info {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CommType != keys[j].CommType {
			return keys[i].CommType < keys[j].CommType
		}
		if keys[i].CommGroup != keys[j].CommGroup {
			return keys[i].CommGroup < keys[j].CommGroup
		}
		return keys[i].MsgSize < keys[j].MsgSize
	})

	var sb strings.Builder
	for _, key := range keys {
		group := info[key]
		fmt.Fprintf(&sb, "stage: %s | comm_type: %s | comm_group: %s | msg_size: %s | count: %.2f",
			stage, key.CommType, key.CommGroup, comm.ConvertSizeToMsg(key.MsgSize), group.Count)
		sb.WriteString(sampleSummary("elapsed_time", group.ElapsedTimes))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// sampleSummary renders mean±stddev, min, max and the approximate p90 of a
// sampled field. The p90 is the ascending-sorted element at index
// n-ceil(n/9), the trace format's historical estimator (~p88.9 for large n);
// it is deliberately not the formula used for epoch times.
func sampleSummary(name string, samples []float64) string {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	n := len(sorted)
	p90 := sorted[n-(n+8)/9]
	return fmt.Sprintf(" | %s: %.2f±%.2f | min%s: %.2f | max%s: %.2f | p90%s: %.2f",
		name, stat.Mean(sorted, nil), stat.PopStdDev(sorted, nil),
		name, sorted[0], name, sorted[n-1], name, p90)
}
