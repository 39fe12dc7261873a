package main

import (
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/distsim-tools/commtrace/internal/collector"
	"github.com/distsim-tools/commtrace/internal/comm"
	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/events"
	"github.com/distsim-tools/commtrace/internal/model"
	"github.com/distsim-tools/commtrace/internal/workload"
)

// Generates a mocked transformer training trace, feeds it through the event
// bus into a collector, and produces the reports and dump artifacts.
func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "commtrace",
		Level: hclog.LevelFromString("DEBUG"),
	})

	epochs := 5
	if len(os.Args) > 1 {
		epochs, _ = strconv.Atoi(os.Args[1])
	}

	cfg := model.RunConfig{
		Framework:       "megatron",
		ModelName:       "gpt_mock",
		WorldSize:       8,
		TpSize:          4,
		PpSize:          1,
		DpSize:          2,
		GlobalBatchSize: 32,
		MicroBatchSize:  1,
		SeqLength:       2048,
		HiddenSize:      4096,
		Epochs:          epochs,
	}

	mocked := buildMockedWorkload(cfg)
	if err := mocked.Dump(cfg, cfg.ModelName); err != nil {
		logger.Error("Error dumping workload", "error", err)
		return
	}
	logger.Info("Dumped mocked workload", "records", len(mocked.Records))

	eventBus := events.NewEventBus()
	traceCollector := collector.NewCollector(eventBus, logger, cfg.ModelName)
	if err := traceCollector.Start("@every 1s"); err != nil {
		logger.Error("Error starting collector", "error", err)
		return
	}

	rng := rand.New(rand.NewSource(42))

	// init stage: weight broadcast plus a warmup all_reduce, closed by the
	// first epoch boundary
	publish(eventBus, timed(mocked.Records[0], 120.0))
	publish(eventBus, timed(mocked.Records[1], 45.0))
	publish(eventBus, model.NewEpochEnd(165.0))

	for epoch := 0; epoch < epochs; epoch++ {
		epochTime := 0.0
		for _, planned := range mocked.Records[2:] {
			elapsed := baseTimeFor(planned, rng)
			epochTime += elapsed
			publish(eventBus, timed(planned, elapsed))
		}
		publish(eventBus, model.NewEpochEnd(epochTime))
	}

	traceCollector.Stop()

	traceLog := traceCollector.TraceLog()
	traceLog.Analyze(os.Stdout)
	if _, err := traceLog.AnalyzeTime(os.Stdout); err != nil {
		logger.Error("Error analyzing epoch times", "error", err)
	}
	if err := traceLog.Dump(cfg.ModelName); err != nil {
		logger.Error("Error dumping trace log", "error", err)
		return
	}
	logger.Info("Dumped trace log", "records", len(traceLog.CommLogs), "epochs", len(traceLog.EpochTimes))
}

func buildMockedWorkload(cfg model.RunConfig) *workload.Workload {
	w := workload.New()
	hidden := float64(cfg.HiddenSize)
	seq := float64(cfg.SeqLength)

	specs := []model.RecordSpec{
		{CommType: comm.TypeBroadcast, CommGroup: comm.GroupAll, CommGroupSize: cfg.WorldSize,
			MsgSize: hidden * hidden * 4, Operation: "init_weights"},
		{CommType: comm.TypeAllReduce, CommGroup: comm.GroupAll, CommGroupSize: cfg.WorldSize,
			MsgSize: hidden * 4, Operation: "warmup"},
		{CommType: comm.TypeComputation, CommGroupSize: 1,
			MsgSize: seq * hidden * 4, Operation: "attention"},
		{CommType: comm.TypeAllReduce, CommGroup: comm.GroupTp, CommGroupSize: cfg.TpSize,
			MsgSize: seq * hidden * 4, Operation: "attention"},
		{CommType: comm.TypeComputation, CommGroupSize: 1,
			MsgSize: seq * hidden * 16, Operation: "mlp"},
		{CommType: comm.TypeAllReduce, CommGroup: comm.GroupTp, CommGroupSize: cfg.TpSize,
			MsgSize: seq * hidden * 4, Operation: "mlp"},
		{CommType: comm.TypeAllGather, CommGroup: comm.GroupDp, CommGroupSize: cfg.DpSize,
			MsgSize: hidden * hidden * 4, Operation: "param_gather"},
		{CommType: comm.TypeReduceScatter, CommGroup: comm.GroupDp, CommGroupSize: cfg.DpSize,
			MsgSize: hidden * hidden * 4, Operation: "grad_reduce"},
	}
	for _, spec := range specs {
		if err := w.AppendSpec(spec); err != nil {
			panic(err)
		}
	}
	return w
}

// baseTimeFor derives a stable synthetic duration from the message size.
func baseTimeFor(planned *model.Record, rng *rand.Rand) float64 {
	base := planned.MsgSize/1e7 + 1.0
	return base * (0.9 + 0.2*rng.Float64())
}

// timed clones a planned record and stamps it with a measured duration.
func timed(planned *model.Record, elapsedMs float64) *model.Record {
	record := *planned
	record.SetElapsedTime(elapsedMs)
	return &record
}

func publish(eventBus *events.EventBus, record *model.Record) {
	eventBus.Publish(events.Event{
		Type:      common.RECORD_LOGGED_EVENT_TYPE,
		Timestamp: time.Now(),
		Data:      events.RecordLoggedEvent{Record: record},
	})
}
