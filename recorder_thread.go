package main

import (
	"log"
	"sync/atomic"

	"github.com/sounder/pkg/affinity"
	"github.com/sounder/pkg/eventq"
	"github.com/sounder/pkg/samplebuf"
	"github.com/sounder/pkg/trace"
)

// RecorderThread is one recorder worker. It owns a contiguous antenna
// shard and a bounded input queue, decodes the packets the dispatcher
// hands it and appends them to its trace sink.
type RecorderThread struct {
	cfg  *Config
	id   int
	core int

	antennaStart int
	antennaCount int

	queue chan eventq.RecordEvent
	bufs  []*samplebuf.Buffer
	sink  trace.Sink

	maxFrame *atomic.Int64
	done     chan struct{}
}

// NewRecorderThread wires a worker to its shard, queue and sink. core < 0
// leaves scheduling to the OS.
func NewRecorderThread(cfg *Config, id, core, queueSize, antennaStart, antennaCount int,
	bufs []*samplebuf.Buffer, sink trace.Sink, maxFrame *atomic.Int64) *RecorderThread {
	return &RecorderThread{
		cfg:          cfg,
		id:           id,
		core:         core,
		antennaStart: antennaStart,
		antennaCount: antennaCount,
		queue:        make(chan eventq.RecordEvent, queueSize),
		bufs:         bufs,
		sink:         sink,
		maxFrame:     maxFrame,
		done:         make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (t *RecorderThread) Start() {
	go t.run()
}

// DispatchWork hands the worker one event without blocking; false means
// the queue is saturated.
func (t *RecorderThread) DispatchWork(ev eventq.RecordEvent) bool {
	select {
	case t.queue <- ev:
		return true
	default:
		return false
	}
}

// Stop asks the worker to flush and exit after the work already queued.
func (t *RecorderThread) Stop() {
	t.queue <- eventq.RecordEvent{Type: eventq.TaskStop}
}

// Wait blocks until the worker has flushed, closed its sink and exited.
func (t *RecorderThread) Wait() {
	<-t.done
}

func (t *RecorderThread) run() {
	defer close(t.done)
	if t.core >= 0 {
		if err := affinity.Pin(t.core); err != nil {
			log.Printf("[WARN] recorder %d: pin to core %d failed: %v", t.id, t.core, err)
		}
	}

	for ev := range t.queue {
		switch ev.Type {
		case eventq.TaskRecord:
			t.record(ev)
		case eventq.TaskStop:
			if err := t.sink.Flush(); err != nil {
				log.Printf("[ERROR] recorder %d: flush: %v", t.id, err)
			}
			if err := t.sink.Close(); err != nil {
				log.Printf("[ERROR] recorder %d: close: %v", t.id, err)
			}
			return
		}
	}
}

func (t *RecorderThread) record(ev eventq.RecordEvent) {
	w := ev.Offset / ev.BuffSize
	idx := ev.Offset % ev.BuffSize
	buf := t.bufs[w]
	slotBytes := buf.Slot(idx)
	if slotBytes == nil {
		log.Printf("[WARN] recorder %d: stale ring offset %d, dropping", t.id, ev.Offset)
		return
	}

	frame, slot, cell, ant := samplebuf.ParseHeader(slotBytes)
	iq := samplebuf.Payload(slotBytes)
	if int(ant) < t.antennaStart || int(ant) >= t.antennaStart+t.antennaCount {
		log.Printf("[WARN] recorder %d: antenna %d outside shard [%d,%d)",
			t.id, ant, t.antennaStart, t.antennaStart+t.antennaCount)
	}
	if err := t.sink.Append(cell, frame, slot, ant, iq); err != nil {
		log.Printf("[ERROR] recorder %d: append frame %d slot %d ant %d: %v",
			t.id, frame, slot, ant, err)
	}
	buf.Release(idx)

	// monotonic max over all recorders
	for {
		cur := t.maxFrame.Load()
		if int64(frame) <= cur || t.maxFrame.CompareAndSwap(cur, int64(frame)) {
			break
		}
	}
	if t.cfg.MaxFrame > 0 && int(frame)+1 >= t.cfg.MaxFrame {
		t.cfg.SetRunning(false)
	}
}
