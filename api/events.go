package api

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tasks-api/domain"
)

const (
	defaultEventWorkers   = 2
	defaultEventBuffer    = 256
	defaultPublishTimeout = 10 * time.Second

	envEventWorkers = "EVENT_WORKERS"
	envEventBuffer  = "EVENT_BUFFER"
)

// Task events are delivered off the request path by a small worker pool.
// When the buffer is saturated the event is published inline so nothing is
// dropped while the process is healthy; publish failures are logged only.
var (
	once           sync.Once
	events         chan domain.TaskEvent
	publishTimeout time.Duration
	bg             = context.Background()
	globalSink     EventSink
	globalLog      *log.Logger
	workerWG       sync.WaitGroup
)

func initEventSender(sink EventSink, logger *log.Logger) {
	once.Do(func() {
		globalSink = sink
		globalLog = logger
		publishTimeout = defaultPublishTimeout

		if sink == nil {
			return
		}

		workers := envInt(envEventWorkers, defaultEventWorkers)
		buffer := envInt(envEventBuffer, defaultEventBuffer)
		events = make(chan domain.TaskEvent, buffer)
		for i := 0; i < workers; i++ {
			workerWG.Add(1)
			go func() {
				defer workerWG.Done()
				for event := range events {
					deliverEvent(event)
				}
			}()
		}
	})
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		if globalLog != nil {
			globalLog.Warnf("invalid %s=%q, using %d", name, raw, fallback)
		}
		return fallback
	}
	return n
}

// publishTaskEvent hands the event to the sender pool, falling back to an
// inline publish when the buffer is full.
func publishTaskEvent(event domain.TaskEvent) {
	if globalSink == nil {
		return
	}

	select {
	case events <- event:
		return
	default:
	}

	if globalLog != nil {
		globalLog.Warn("event buffer saturated; publishing inline")
	}
	deliverEvent(event)
}

func deliverEvent(event domain.TaskEvent) {
	ctx, cancel := context.WithTimeout(bg, publishTimeout)
	defer cancel()
	if err := globalSink.PublishEvent(ctx, event); err != nil && globalLog != nil {
		globalLog.WithFields(log.Fields{
			"task_id": event.TaskID,
			"type":    event.Type,
		}).Warnf("publish task event: %v", err)
	}
}

// shutdownEventSender stops worker goroutines and clears shared state. It is
// intended for tests.
func shutdownEventSender() {
	if events != nil {
		close(events)
		events = nil
	}

	workerWG.Wait()

	globalSink = nil
	globalLog = nil
	publishTimeout = 0
	once = sync.Once{}
	workerWG = sync.WaitGroup{}
}
