package tracelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/store"
)

// Log owns the full ordered sequence of trace records together with its
// partition into per-epoch sub-sequences. Records are appended once and
// never mutated afterwards.
type Log struct {
	CommLogs         []*model.Record
	CommLogEachEpoch [][]*model.Record
	EpochTimes       []float64
}

// NewLog returns an empty log with one open epoch partition.
func NewLog() *Log {
	return &Log{CommLogEachEpoch: [][]*model.Record{{}}}
}

// Add appends a record. An epoch-end record closes the current partition,
// opens a new one and records its elapsed time — unless the previous record
// already was an epoch end: consecutive sentinels collapse into the
// partition just closed instead of opening another.
func (l *Log) Add(record *model.Record) {
	if record.IsEpochEnd() && len(l.CommLogs) > 0 && !l.CommLogs[len(l.CommLogs)-1].IsEpochEnd() {
		l.CommLogs = append(l.CommLogs, record)
		l.CommLogEachEpoch = append(l.CommLogEachEpoch, []*model.Record{})
		elapsed := 0.0
		if record.ElapsedTime != nil {
			elapsed = *record.ElapsedTime
		}
		l.EpochTimes = append(l.EpochTimes, elapsed)
		return
	}
	l.CommLogs = append(l.CommLogs, record)
	last := len(l.CommLogEachEpoch) - 1
	l.CommLogEachEpoch[last] = append(l.CommLogEachEpoch[last], record)
}

// Analyze aggregates the first epoch partition as the "init" stage and all
// remaining partitions pooled as the "train" stage, writes the text report
// to w (stdout when nil) and returns the raw aggregation per stage.
func (l *Log) Analyze(w io.Writer) map[string]*StageStats {
	if w == nil {
		w = os.Stdout
	}

	commInfo := map[string]*StageStats{}
	analyzeStageLog(l.CommLogEachEpoch[0], common.STAGE_INIT, commInfo)
	for _, epochLog := range l.CommLogEachEpoch[1:] {
		analyzeStageLog(epochLog, common.STAGE_TRAIN, commInfo)
	}

	for _, stage := range []string{common.STAGE_INIT, common.STAGE_TRAIN} {
		stats, ok := commInfo[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "---------------------------------------------\ngeneral comm info for stage %s\n", stage)
		fmt.Fprint(w, printStageLog(stage, stats.CommTypeInfo))
		fmt.Fprintf(w, "---------------------------------------------\ndetailed comm info for stage %s\n", stage)
		fmt.Fprint(w, printDetailedStageLog(stage, stats.DetailedCommTypeInfo))
	}
	return commInfo
}

// Dump writes the CSV view and the binary snapshot of the log under the
// fixed results directory, using name (extension stripped) as the prefix.
// An empty log cannot be dumped.
func (l *Log) Dump(name string) error {
	if len(l.CommLogs) == 0 {
		return fmt.Errorf("cannot dump an empty trace log")
	}
	if err := common.EnsureDir(common.COMM_LOGS_DIR); err != nil {
		return err
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	prefix := filepath.Join(common.COMM_LOGS_DIR, name)

	rows := make([]string, 0, len(l.CommLogs))
	for _, record := range l.CommLogs {
		rows = append(rows, record.CSVLine())
	}
	if err := store.WriteCSV(prefix+common.LOG_CSV_SUFFIX, l.CommLogs[0].CSVHeader(), rows); err != nil {
		return err
	}
	return store.WriteSnapshot(prefix+common.LOG_SNAPSHOT_SUFFIX, l.snapshot())
}

func (l *Log) snapshot() *store.LogSnapshot {
	snap := &store.LogSnapshot{
		Records:    make([]store.SnapshotRecord, 0, len(l.CommLogs)),
		EpochLens:  make([]int, 0, len(l.CommLogEachEpoch)),
		EpochTimes: append([]float64(nil), l.EpochTimes...),
	}
	for _, record := range l.CommLogs {
		snap.Records = append(snap.Records, store.NewSnapshotRecord(*record))
	}
	for _, epochLog := range l.CommLogEachEpoch {
		snap.EpochLens = append(snap.EpochLens, len(epochLog))
	}
	return snap
}

// FromSnapshot rebuilds a log from its persisted schema. Closing epoch-end
// records live in the flat sequence between partitions and belong to none
// of them, which is how the partition lengths are laid back out.
func FromSnapshot(snap *store.LogSnapshot) (*Log, error) {
	records := make([]*model.Record, len(snap.Records))
	for i := range snap.Records {
		record := snap.Records[i].Record()
		records[i] = &record
	}

	l := &Log{
		CommLogs:         records,
		CommLogEachEpoch: make([][]*model.Record, 0, len(snap.EpochLens)),
		EpochTimes:       append([]float64(nil), snap.EpochTimes...),
	}
	idx := 0
	for p, epochLen := range snap.EpochLens {
		if idx+epochLen > len(records) {
			return nil, fmt.Errorf("inconsistent snapshot: partition %d overruns the record sequence", p)
		}
		l.CommLogEachEpoch = append(l.CommLogEachEpoch, records[idx:idx+epochLen])
		idx += epochLen
		if p < len(snap.EpochLens)-1 {
			// skip the closing sentinel between partitions
			idx++
		}
	}
	if idx != len(records) {
		return nil, fmt.Errorf("inconsistent snapshot: %d records laid out, %d stored", idx, len(records))
	}
	if len(l.CommLogEachEpoch) == 0 {
		l.CommLogEachEpoch = [][]*model.Record{{}}
	}
	return l, nil
}

// Load restores a log dumped earlier. The extension of path is replaced
// first, so the CSV path and the snapshot path locate the same file.
func Load(path string) (*Log, error) {
	snap := &store.LogSnapshot{}
	if err := store.ReadSnapshot(store.SnapshotPath(path), snap); err != nil {
		return nil, err
	}
	return FromSnapshot(snap)
}
