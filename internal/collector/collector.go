package collector

import (
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"

	"github.com/distsim-tools/commtrace/internal/common"
	"github.com/distsim-tools/commtrace/internal/events"
	"github.com/distsim-tools/commtrace/internal/tracelog"
)

// Collector drains record events published by a running simulation into a
// trace log and periodically snapshots it to disk so a crash of the
// simulation does not lose the trace.
type Collector struct {
	eventBus      *events.EventBus
	logger        hclog.Logger
	cronScheduler *cron.Cron
	dumpName      string

	mu       sync.Mutex
	traceLog *tracelog.Log

	records chan events.Event
	done    chan struct{}
	stopped chan struct{}
}

// NewCollector creates a collector that dumps under dumpName.
func NewCollector(eventBus *events.EventBus, logger hclog.Logger, dumpName string) *Collector {
	return &Collector{
		eventBus:      eventBus,
		logger:        logger,
		cronScheduler: cron.New(cron.WithSeconds()),
		dumpName:      dumpName,
		traceLog:      tracelog.NewLog(),
		records:       make(chan events.Event, 256),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start subscribes to record events and, when flushSchedule is non-empty,
// begins the periodic snapshot job (cron spec with seconds, e.g.
// "@every 30s").
func (c *Collector) Start(flushSchedule string) error {
	c.eventBus.Subscribe(common.RECORD_LOGGED_EVENT_TYPE, c.records)
	if flushSchedule != "" {
		if _, err := c.cronScheduler.AddFunc(flushSchedule, c.flush); err != nil {
			return err
		}
		c.cronScheduler.Start()
	}
	go c.run()
	return nil
}

func (c *Collector) run() {
	for {
		select {
		case event := <-c.records:
			c.append(event)
		case <-c.done:
			// drain whatever was already queued before reporting stopped
			for {
				select {
				case event := <-c.records:
					c.append(event)
				default:
					close(c.stopped)
					return
				}
			}
		}
	}
}

func (c *Collector) append(event events.Event) {
	data, ok := event.Data.(events.RecordLoggedEvent)
	if !ok {
		c.logger.Error("unexpected payload on record event", "type", event.Type)
		return
	}
	c.mu.Lock()
	c.traceLog.Add(data.Record)
	c.mu.Unlock()
}

func (c *Collector) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.traceLog.CommLogs) == 0 {
		return
	}
	if err := c.traceLog.Dump(c.dumpName); err != nil {
		c.logger.Error("periodic trace snapshot failed", "error", err)
	}
}

// Stop ends the periodic job and collection, draining records already
// queued on the bus channel before returning.
func (c *Collector) Stop() {
	c.cronScheduler.Stop()
	close(c.done)
	<-c.stopped
}

// TraceLog exposes the collected log, for analysis once collection stopped.
func (c *Collector) TraceLog() *tracelog.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traceLog
}
