package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/distsim-tools/commtrace/internal/comm"
)

// Record is one timed or still-pending communication/computation event.
// The field declaration order is the CSV column order.
type Record struct {
	CommType      comm.CommType
	CommGroup     comm.CommGroup
	CommGroupSize int
	MsgSize       float64

	Stage      string
	Dst        *int
	Src        *int
	Additional string

	ElapsedTime *float64
	AlgBw       float64
	BusBw       float64
	Count       float64
}

// RecordSpec carries the named-optional fields used to build a Record.
type RecordSpec struct {
	CommType      comm.CommType  `json:"comm_type"`
	CommGroup     comm.CommGroup `json:"comm_group"`
	CommGroupSize int            `json:"comm_group_size"`
	MsgSize       float64        `json:"msg_size"`
	Stage         string         `json:"stage"`
	Operation     string         `json:"operation"`
	Dst           *int           `json:"dst"`
	Src           *int           `json:"src"`
	Additional    string         `json:"additional"`
	Count         float64        `json:"count"`
}

// NewRecord validates a spec and builds a record from it. The stage falls
// back to the operation name, and comm_group may be omitted only for
// computation records, which run over the all-group.
func NewRecord(spec RecordSpec) (*Record, error) {
	if spec.CommType == "" {
		return nil, fmt.Errorf("comm_type is required")
	}
	stage := spec.Stage
	if stage == "" {
		stage = spec.Operation
	}
	group := spec.CommGroup
	if group == "" {
		if spec.CommType != comm.TypeComputation {
			return nil, fmt.Errorf("comm_group is required for comm_type %q", spec.CommType)
		}
		group = comm.GroupAll
	}
	count := spec.Count
	if count == 0 {
		count = 1
	}
	return &Record{
		CommType:      spec.CommType,
		CommGroup:     group,
		CommGroupSize: spec.CommGroupSize,
		MsgSize:       spec.MsgSize,
		Stage:         stage,
		Dst:           spec.Dst,
		Src:           spec.Src,
		Additional:    spec.Additional,
		Count:         count,
	}, nil
}

// NewEpochEnd builds the sentinel record closing one training iteration.
func NewEpochEnd(elapsedMs float64) *Record {
	record := &Record{CommType: comm.TypeEpochEnd, CommGroup: comm.GroupAll, Count: 1}
	record.SetElapsedTime(elapsedMs)
	return record
}

// SetElapsedTime stores the measured duration in milliseconds and derives
// the bandwidth fields from (comm_type, msg_size, elapsed_time). The derived
// fields change through this call only.
func (r *Record) SetElapsedTime(elapsedMs float64) {
	t := elapsedMs
	r.ElapsedTime = &t
	r.AlgBw, r.BusBw = comm.CalcBwLog(r.CommType, r.MsgSize, elapsedMs)
}

// IsWorkload reports whether the record is still pending measurement.
func (r *Record) IsWorkload() bool {
	return r.ElapsedTime == nil
}

// IsEpochEnd reports whether the record is the epoch boundary sentinel.
func (r *Record) IsEpochEnd() bool {
	return r.CommType == comm.TypeEpochEnd
}

var csvColumns = []string{
	"comm_type", "comm_group", "comm_group_size", "msg_size",
	"stage", "dst", "src", "additional",
	"elapsed_time", "algbw", "busbw", "count",
}

// CSVHeader returns the comma-joined column names in declared field order.
func (r *Record) CSVHeader() string {
	return strings.Join(csvColumns, ",")
}

// CSVLine returns the comma-joined field values in declared field order.
// Values are written verbatim with no quoting, so they must not contain the
// delimiter themselves. Absent optionals render as the empty string.
func (r *Record) CSVLine() string {
	fields := []string{
		string(r.CommType),
		string(r.CommGroup),
		strconv.Itoa(r.CommGroupSize),
		formatFloat(r.MsgSize),
		r.Stage,
		formatOptInt(r.Dst),
		formatOptInt(r.Src),
		r.Additional,
		formatOptFloat(r.ElapsedTime),
		formatFloat(r.AlgBw),
		formatFloat(r.BusBw),
		formatFloat(r.Count),
	}
	return strings.Join(fields, ",")
}

// ViewAsDsLog renders the record the way deepspeed-style comm logs print it.
func (r *Record) ViewAsDsLog() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[RANK 0] comm op: %s | comm group: %s", r.CommType, r.CommGroup)
	if r.ElapsedTime != nil {
		fmt.Fprintf(&sb, " | time (ms): %.2f", *r.ElapsedTime)
	}
	fmt.Fprintf(&sb, " | msg size: %s", comm.ConvertSizeToMsg(r.MsgSize))
	fmt.Fprintf(&sb, " | algbw (Gbps): %.2f | busbw (Gbps): %.2f", r.AlgBw, r.BusBw)
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
