package server

import (
	"encoding/json"
	"io"

	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/tracelog"
)

func toJSON(i interface{}, w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(i)
}

func fromJSON(i interface{}, r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(i)
}

// StartTraceRequest opens a new trace session.
type StartTraceRequest struct {
	Name   string          `json:"name"`
	Config model.RunConfig `json:"config"`
}

// AppendRecordRequest appends one record to a session. ElapsedTime is
// optional: when present the record is measured, otherwise it stays a
// planned workload record.
type AppendRecordRequest struct {
	Record      model.RecordSpec `json:"record"`
	ElapsedTime *float64         `json:"elapsedTime"`
}

// EpochEndRequest closes the running epoch of a session.
type EpochEndRequest struct {
	ElapsedTime float64 `json:"elapsedTime"`
}

// ReportResponse bundles the rendered text report with the raw aggregation.
type ReportResponse struct {
	Report string                          `json:"report"`
	Stages map[string]*tracelog.StageStats `json:"stages"`
}

// DumpWorkloadRequest builds a planned workload out of record specs and
// dumps it together with its run configuration.
type DumpWorkloadRequest struct {
	Name    string             `json:"name"`
	Config  model.RunConfig    `json:"config"`
	Records []model.RecordSpec `json:"records"`
}
