package server

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/events"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/tracelog"
	"github.com/distsim-tools/commtrace/internal/workload"
)

// TraceSession is one live trace being collected over HTTP.
type TraceSession struct {
	Name   string
	Config model.RunConfig

	mu       sync.Mutex
	traceLog *tracelog.Log
}

// Handler serves the trace collection and reporting API.
type Handler struct {
	logger   hclog.Logger
	eventBus *events.EventBus

	mu       sync.Mutex
	sessions map[string]*TraceSession
}

// NewHandler creates an API handler publishing on the given event bus.
func NewHandler(logger hclog.Logger, eventBus *events.EventBus) *Handler {
	return &Handler{
		logger:   logger,
		eventBus: eventBus,
		sessions: map[string]*TraceSession{},
	}
}

// RegisterRoutes binds every API route on the router.
func (handler *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/trace/start", handler.StartTrace)
	router.HandleFunc("/trace/{runId}/record", handler.AppendRecord)
	router.HandleFunc("/trace/{runId}/epoch", handler.EpochEnd)
	router.HandleFunc("/trace/{runId}/report", handler.GetReport)
	router.HandleFunc("/trace/{runId}/times", handler.GetTimes)
	router.HandleFunc("/trace/{runId}/dump", handler.DumpTrace)
	router.HandleFunc("/workload/dump", handler.DumpWorkload)
}

// StartTrace opens a session and returns its run ID.
func (handler *Handler) StartTrace(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	request := &StartTraceRequest{}
	if err := fromJSON(request, r.Body); err != nil {
		handler.logger.Error("error starting trace", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	if request.Name == "" {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("trace name is required", rw)
		return
	}

	runId := uuid.New().String()
	handler.mu.Lock()
	handler.sessions[runId] = &TraceSession{
		Name:     request.Name,
		Config:   request.Config,
		traceLog: tracelog.NewLog(),
	}
	handler.mu.Unlock()

	handler.logger.Info(fmt.Sprintf("Started trace session %s for %s", runId, request.Name))
	rw.WriteHeader(http.StatusOK)
	toJSON(runId, rw)
}

// AppendRecord validates and appends one record to a session.
func (handler *Handler) AppendRecord(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	session, ok := handler.session(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("no trace with the given ID", rw)
		return
	}

	request := &AppendRecordRequest{}
	if err := fromJSON(request, r.Body); err != nil {
		handler.logger.Error("error appending record", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	record, err := model.NewRecord(request.Record)
	if err != nil {
		handler.logger.Error("invalid record", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		toJSON(err.Error(), rw)
		return
	}
	if request.ElapsedTime != nil {
		record.SetElapsedTime(*request.ElapsedTime)
	}

	session.mu.Lock()
	session.traceLog.Add(record)
	session.mu.Unlock()

	handler.eventBus.Publish(events.Event{
		Type:      common.RECORD_LOGGED_EVENT_TYPE,
		Timestamp: time.Now(),
		Data:      events.RecordLoggedEvent{Record: record},
	})
	rw.WriteHeader(http.StatusOK)
}

// EpochEnd closes the running epoch of a session.
func (handler *Handler) EpochEnd(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	session, ok := handler.session(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("no trace with the given ID", rw)
		return
	}

	request := &EpochEndRequest{}
	if err := fromJSON(request, r.Body); err != nil {
		handler.logger.Error("error closing epoch", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	session.mu.Lock()
	session.traceLog.Add(model.NewEpochEnd(request.ElapsedTime))
	session.mu.Unlock()
	rw.WriteHeader(http.StatusOK)
}

// GetReport runs the stage aggregation and returns the rendered report
// alongside the raw per-stage statistics.
func (handler *Handler) GetReport(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	session, ok := handler.session(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("no trace with the given ID", rw)
		return
	}

	var report bytes.Buffer
	session.mu.Lock()
	stages := session.traceLog.Analyze(&report)
	session.mu.Unlock()

	rw.WriteHeader(http.StatusOK)
	toJSON(&ReportResponse{Report: report.String(), Stages: stages}, rw)
}

// GetTimes returns the epoch time statistics of a session.
func (handler *Handler) GetTimes(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	session, ok := handler.session(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("no trace with the given ID", rw)
		return
	}

	var report bytes.Buffer
	session.mu.Lock()
	stats, err := session.traceLog.AnalyzeTime(&report)
	session.mu.Unlock()
	if err != nil {
		handler.logger.Error("error analyzing epoch times", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		toJSON(err.Error(), rw)
		return
	}

	rw.WriteHeader(http.StatusOK)
	toJSON(stats, rw)
}

// DumpTrace persists the session's CSV and snapshot artifacts.
func (handler *Handler) DumpTrace(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	session, ok := handler.session(r)
	if !ok {
		rw.WriteHeader(http.StatusBadRequest)
		toJSON("no trace with the given ID", rw)
		return
	}

	session.mu.Lock()
	err := session.traceLog.Dump(session.Name)
	session.mu.Unlock()
	if err != nil {
		handler.logger.Error("error dumping trace", "error", err)
		rw.WriteHeader(http.StatusInternalServerError)
		toJSON(err.Error(), rw)
		return
	}

	handler.eventBus.Publish(events.Event{
		Type:      common.TRACE_FINISHED_EVENT_TYPE,
		Timestamp: time.Now(),
		Data:      events.TraceFinishedEvent{DumpName: session.Name},
	})
	rw.WriteHeader(http.StatusOK)
	toJSON(session.Name, rw)
}

// DumpWorkload builds a planned workload from record specs and persists it
// together with the run configuration.
func (handler *Handler) DumpWorkload(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	request := &DumpWorkloadRequest{}
	if err := fromJSON(request, r.Body); err != nil {
		handler.logger.Error("error building workload", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	w := workload.New()
	for _, spec := range request.Records {
		if err := w.AppendSpec(spec); err != nil {
			handler.logger.Error("invalid workload record", "error", err)
			rw.WriteHeader(http.StatusBadRequest)
			toJSON(err.Error(), rw)
			return
		}
	}
	if err := w.Dump(request.Config, request.Name); err != nil {
		handler.logger.Error("error dumping workload", "error", err)
		rw.WriteHeader(http.StatusInternalServerError)
		toJSON(err.Error(), rw)
		return
	}

	rw.WriteHeader(http.StatusOK)
	toJSON(request.Name, rw)
}

func (handler *Handler) session(r *http.Request) (*TraceSession, bool) {
	vars := mux.Vars(r)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	session, ok := handler.sessions[vars["runId"]]
	return session, ok
}
