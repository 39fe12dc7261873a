package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/distsim-tools/commtrace/internal/comm"
	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/model"
)

// Snapshot framing: magic header, one version byte, then a zstd-compressed
// gob payload of the explicit snapshot schema below.
var magicHeader = []byte("CTRACE1\x00")

const formatVersion byte = 1

// SnapshotRecord is the wire form of one record. The optional fields travel
// as value+presence pairs: the payload codec omits zero values, so a raw
// pointer to zero would decode as absent and a measured zero-length or
// rank-0 field would be lost.
type SnapshotRecord struct {
	CommType      comm.CommType
	CommGroup     comm.CommGroup
	CommGroupSize int
	MsgSize       float64

	Stage      string
	Dst        int
	HasDst     bool
	Src        int
	HasSrc     bool
	Additional string

	Elapsed    float64
	HasElapsed bool
	AlgBw      float64
	BusBw      float64
	Count      float64
}

// NewSnapshotRecord converts a record into its wire form.
func NewSnapshotRecord(r model.Record) SnapshotRecord {
	s := SnapshotRecord{
		CommType:      r.CommType,
		CommGroup:     r.CommGroup,
		CommGroupSize: r.CommGroupSize,
		MsgSize:       r.MsgSize,
		Stage:         r.Stage,
		Additional:    r.Additional,
		AlgBw:         r.AlgBw,
		BusBw:         r.BusBw,
		Count:         r.Count,
	}
	if r.Dst != nil {
		s.Dst, s.HasDst = *r.Dst, true
	}
	if r.Src != nil {
		s.Src, s.HasSrc = *r.Src, true
	}
	if r.ElapsedTime != nil {
		s.Elapsed, s.HasElapsed = *r.ElapsedTime, true
	}
	return s
}

// Record converts the wire form back into a record, restoring presence of
// the optional fields exactly.
func (s SnapshotRecord) Record() model.Record {
	r := model.Record{
		CommType:      s.CommType,
		CommGroup:     s.CommGroup,
		CommGroupSize: s.CommGroupSize,
		MsgSize:       s.MsgSize,
		Stage:         s.Stage,
		Additional:    s.Additional,
		AlgBw:         s.AlgBw,
		BusBw:         s.BusBw,
		Count:         s.Count,
	}
	if s.HasDst {
		dst := s.Dst
		r.Dst = &dst
	}
	if s.HasSrc {
		src := s.Src
		r.Src = &src
	}
	if s.HasElapsed {
		elapsed := s.Elapsed
		r.ElapsedTime = &elapsed
	}
	return r
}

// LogSnapshot is the persisted schema of a trace log: the flat record
// sequence, the per-epoch partition lengths, and the recorded epoch
// boundary times. Partition lengths are stored explicitly so restoration
// does not depend on replaying the append rules.
type LogSnapshot struct {
	Records    []SnapshotRecord
	EpochLens  []int
	EpochTimes []float64
}

// WorkloadSnapshot bundles a planned workload with the run configuration
// that produced it.
type WorkloadSnapshot struct {
	Records []SnapshotRecord
	Config  model.RunConfig
}

// WriteSnapshot writes snapshot to path in the versioned binary format.
func WriteSnapshot(path string, snapshot interface{}) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(snapshot); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := encoder.EncodeAll(payload.Bytes(), make([]byte, 0, payload.Len()))
	encoder.Close()

	buf := make([]byte, 0, len(magicHeader)+1+len(compressed))
	buf = append(buf, magicHeader...)
	buf = append(buf, formatVersion)
	buf = append(buf, compressed...)
	return os.WriteFile(path, buf, 0644)
}

// ReadSnapshot reads a snapshot written by WriteSnapshot into out.
func ReadSnapshot(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(raw) < len(magicHeader)+1 || !bytes.Equal(raw[:len(magicHeader)], magicHeader) {
		return fmt.Errorf("%s: not a commtrace snapshot", path)
	}
	if v := raw[len(magicHeader)]; v != formatVersion {
		return fmt.Errorf("%s: unsupported snapshot version %d", path, v)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer decoder.Close()
	payload, err := decoder.DecodeAll(raw[len(magicHeader)+1:], nil)
	if err != nil {
		return fmt.Errorf("decompressing snapshot: %w", err)
	}
	return gob.NewDecoder(bytes.NewReader(payload)).Decode(out)
}

// SnapshotPath locates the snapshot sibling of any dump artifact path by
// replacing its extension, so a CSV path resolves to the same file.
func SnapshotPath(path string) string {
	return common.ReplaceExtension(path, common.SNAPSHOT_EXT)
}
