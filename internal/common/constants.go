package common

// Result directories
const COMM_LOGS_DIR = "results/comm_logs"
const MOCKED_WORKLOAD_DIR = "results/mocked_workload"

// Artifact suffixes
const LOG_CSV_SUFFIX = "_log.csv"
const LOG_SNAPSHOT_SUFFIX = "_log.snap"
const WORKLOAD_CSV_SUFFIX = "_workload.csv"
const WORKLOAD_SNAPSHOT_SUFFIX = "_workload.snap"
const SNAPSHOT_EXT = ".snap"

// Stages
const STAGE_INIT = "init"
const STAGE_TRAIN = "train"

// Events
const RECORD_LOGGED_EVENT_TYPE = "RecordLogged"
const TRACE_FINISHED_EVENT_TYPE = "TraceFinished"
