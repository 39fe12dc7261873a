package workload

import (
	"fmt"
	"path/filepath"

	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/store"
)

// Workload is an ordered sequence of planned, not yet timed, records.
type Workload struct {
	Records []*model.Record
}

// New returns an empty workload.
func New() *Workload {
	return &Workload{}
}

// Append adds a finished record as-is.
func (w *Workload) Append(record *model.Record) {
	w.Records = append(w.Records, record)
}

// AppendSpec builds a record from named-optional fields, validating at
// construction, and appends it.
func (w *Workload) AppendSpec(spec model.RecordSpec) error {
	record, err := model.NewRecord(spec)
	if err != nil {
		return err
	}
	w.Records = append(w.Records, record)
	return nil
}

// Extend appends every record of other, preserving their relative order.
func (w *Workload) Extend(other *Workload) {
	w.Records = append(w.Records, other.Records...)
}

// Dump writes the CSV view and a snapshot bundling the workload with its
// run configuration under the fixed results directory. Only the base name
// of path is kept, extension stripped. An empty workload cannot be dumped.
func (w *Workload) Dump(cfg model.RunConfig, path string) error {
	if len(w.Records) == 0 {
		return fmt.Errorf("cannot dump an empty workload")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := common.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := common.EnsureDir(common.MOCKED_WORKLOAD_DIR); err != nil {
		return err
	}
	prefix := filepath.Join(common.MOCKED_WORKLOAD_DIR, common.StripExtension(path))

	rows := make([]string, 0, len(w.Records))
	for _, record := range w.Records {
		rows = append(rows, record.CSVLine())
	}
	if err := store.WriteCSV(prefix+common.WORKLOAD_CSV_SUFFIX, w.Records[0].CSVHeader(), rows); err != nil {
		return err
	}

	snap := &store.WorkloadSnapshot{Config: cfg, Records: make([]store.SnapshotRecord, 0, len(w.Records))}
	for _, record := range w.Records {
		snap.Records = append(snap.Records, store.NewSnapshotRecord(*record))
	}
	return store.WriteSnapshot(prefix+common.WORKLOAD_SNAPSHOT_SUFFIX, snap)
}

// Load restores a dumped workload together with the bundled configuration.
// The extension of path is replaced first, so the CSV path and the snapshot
// path locate the same file.
func Load(path string) (*Workload, model.RunConfig, error) {
	snap := &store.WorkloadSnapshot{}
	if err := store.ReadSnapshot(store.SnapshotPath(path), snap); err != nil {
		return nil, model.RunConfig{}, err
	}
	w := New()
	for i := range snap.Records {
		record := snap.Records[i].Record()
		w.Records = append(w.Records, &record)
	}
	return w, snap.Config, nil
}
