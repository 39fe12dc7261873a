package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distsim-tools/commtrace/internal/events"
)

func newTestRouter() *mux.Router {
	handler := NewHandler(hclog.NewNullLogger(), events.NewEventBus())
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, router *mux.Router) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/trace/start",
		`{"name":"unit_trace","config":{"framework":"megatron","worldSize":8}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var runId string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runId))
	require.NotEmpty(t, runId)
	return runId
}

func TestStartTraceRequiresName(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/trace/start", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppendRecordUnknownSession(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/trace/nope/record",
		`{"record":{"comm_type":"all_reduce","comm_group":"tp_group"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no trace with the given ID")
}

func TestAppendRecordValidation(t *testing.T) {
	router := newTestRouter()
	runId := startSession(t, router)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/record", runId),
		`{"record":{"comm_type":"all_reduce","msg_size":1024}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "comm_group is required")
}

func TestTraceSessionFlow(t *testing.T) {
	router := newTestRouter()
	runId := startSession(t, router)

	appendRecord := func(elapsed float64) {
		body := fmt.Sprintf(
			`{"record":{"comm_type":"all_reduce","comm_group":"tp_group","comm_group_size":4,"msg_size":4096,"operation":"attention"},"elapsedTime":%f}`,
			elapsed)
		rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/record", runId), body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	closeEpoch := func(elapsed float64) {
		body := fmt.Sprintf(`{"elapsedTime":%f}`, elapsed)
		rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/epoch", runId), body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	appendRecord(10)
	closeEpoch(10)
	appendRecord(20)
	closeEpoch(20)
	appendRecord(30)
	closeEpoch(30)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/trace/%s/report", runId), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report ReportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Contains(t, report.Report, "general comm info for stage init")
	assert.Contains(t, report.Report, "general comm info for stage train")

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/trace/%s/times", runId), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var times struct {
		InitTime float64 `json:"initTime"`
		MeanTime float64 `json:"meanTime"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&times))
	assert.Equal(t, 10.0, times.InitTime)
	assert.Equal(t, 25.0, times.MeanTime)
}

func TestGetTimesWithoutEpochsFails(t *testing.T) {
	router := newTestRouter()
	runId := startSession(t, router)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/trace/%s/times", runId), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDumpTrace(t *testing.T) {
	chdirTemp(t)
	router := newTestRouter()
	runId := startSession(t, router)

	// dumping an empty trace is a fault
	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/dump", runId), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := `{"record":{"comm_type":"broadcast","comm_group":"all","msg_size":64},"elapsedTime":1.0}`
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/record", runId), body).Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/trace/%s/dump", runId), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDumpWorkload(t *testing.T) {
	chdirTemp(t)
	router := newTestRouter()

	var body bytes.Buffer
	body.WriteString(`{"name":"unit_workload","config":{"framework":"megatron"},"records":[`)
	body.WriteString(`{"comm_type":"all_reduce","comm_group":"dp_group","msg_size":1024,"operation":"grad_reduce"},`)
	body.WriteString(`{"comm_type":"computation","operation":"mlp"}]}`)

	rec := doJSON(t, router, http.MethodPost, "/workload/dump", body.String())
	assert.Equal(t, http.StatusOK, rec.Code)
}
