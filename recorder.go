package main

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"github.com/sounder/pkg/affinity"
	"github.com/sounder/pkg/eventq"
	"github.com/sounder/pkg/samplebuf"
	"github.com/sounder/pkg/trace"
)

// buffer length of each rx thread, in frames
const kSampleBufferFrameNum = 80

// dequeue bulk size, amortizes queue contention in the dispatch loop
const kDequeueBulkSize = 5

const kQueueSize = 36

// Recorder is the lifecycle controller: it owns the sample buffers, the
// dispatch queue, the receiver pool and the recorder pool, boots them in
// dependency order and runs the dispatch loop until the run flag clears.
type Recorder struct {
	cfg *Config

	mainDispatchCore int
	recorderCore     int
	recvCore         int

	rxBufs           []*samplebuf.Buffer
	rxThreadBuffSize int
	queue            *eventq.Queue
	receiver         *Receiver
	recorders        []*RecorderThread

	maxFrameNumber atomic.Int64

	// newSink builds the trace sink for one recorder shard; tests swap it
	newSink func(shard int) trace.Sink
}

// NewRecorder allocates the buffers and queues and constructs the receiver.
// A failed receiver construction releases everything already allocated.
func NewRecorder(cfg *Config, backend RadioBackend, coreStart int) (*Recorder, error) {
	r := &Recorder{
		cfg:              cfg,
		mainDispatchCore: coreStart,
		recorderCore:     coreStart + 1,
		recvCore:         coreStart + 1 + cfg.TaskThreadNum,
	}

	antPerRxThread := 1
	if cfg.BSPresent && cfg.RxThreadNum > 0 {
		antPerRxThread = cfg.getTotNumAntennas() / cfg.RxThreadNum
		if antPerRxThread < 1 {
			antPerRxThread = 1
		}
	}
	r.rxThreadBuffSize = kSampleBufferFrameNum * cfg.SymbolsPerFrame * antPerRxThread
	r.queue = eventq.NewQueue(r.rxThreadBuffSize * kQueueSize)

	log.Printf("[DEBUG] Recorder construction: rx threads: %d, recorder threads: %d, chunk size: %d",
		cfg.RxThreadNum, cfg.TaskThreadNum, r.rxThreadBuffSize)

	if cfg.RxThreadNum > 0 {
		r.rxBufs = make([]*samplebuf.Buffer, cfg.RxThreadNum)
		for i := range r.rxBufs {
			r.rxBufs[i] = samplebuf.New(r.rxThreadBuffSize, cfg.payloadBytes())
		}
	}

	recv, err := NewReceiver(cfg.RxThreadNum, cfg, r.queue, backend)
	if err != nil {
		r.gc()
		return nil, fmt.Errorf("error setting up the receiver: %w", err)
	}
	r.receiver = recv

	meta := cfg.metadataJSON()
	r.newSink = func(shard int) trace.Sink {
		return trace.NewParquetSink(cfg.TraceFile, shard, meta)
	}
	return r, nil
}

// gc releases everything the controller owns. Safe to call more than once.
func (r *Recorder) gc() {
	r.receiver = nil
	r.rxBufs = nil
	r.recorders = nil
}

// RecordedFrameNum returns the highest frame id any recorder has persisted.
func (r *Recorder) RecordedFrameNum() int {
	return int(r.maxFrameNumber.Load())
}

// DoIt boots the pools in dependency order, dispatches events until the
// run flag clears, then drains and tears down symmetrically.
func (r *Recorder) DoIt() error {
	cfg := r.cfg
	recorderThreads := cfg.TaskThreadNum
	totalAntennas := cfg.getTotNumAntennas()
	threadAntennas := 0

	if cfg.CoreAlloc {
		if err := affinity.Pin(r.mainDispatchCore); err != nil {
			return fmt.Errorf("pinning main dispatch thread to core %d failed: %w",
				r.mainDispatchCore, err)
		}
	}

	if cfg.ClientPresent {
		r.receiver.StartClientThreads()
	}

	if cfg.RxThreadNum > 0 {
		threadAntennas = totalAntennas / recorderThreads
		// leftover antennas are spread over the workers; ranges past the
		// last antenna receive nothing
		if totalAntennas%recorderThreads != 0 {
			threadAntennas++
		}

		for i := 0; i < recorderThreads; i++ {
			core := -1
			if cfg.CoreAlloc {
				core = r.recorderCore + i
			}
			log.Printf("[INFO] Creating recorder thread: %d, with antennas %d:%d total %d",
				i, i*threadAntennas, (i+1)*threadAntennas-1, threadAntennas)
			rt := NewRecorderThread(cfg, i, core, r.rxThreadBuffSize*kQueueSize,
				i*threadAntennas, threadAntennas, r.rxBufs, r.newSink(i), &r.maxFrameNumber)
			rt.Start()
			r.recorders = append(r.recorders, rt)
		}

		r.receiver.StartRecvThreads(r.rxBufs, r.recvCore)
	} else {
		r.receiver.Go() // only beamsweeping
	}

	events := make([]eventq.Event, kDequeueBulkSize)
	for cfg.Running() {
		n := r.queue.DequeueBulk(events)
		if err := r.dispatch(events[:n], threadAntennas); err != nil {
			cfg.SetRunning(false)
			r.receiver.CompleteRecvThreads()
			r.shutdown()
			return err
		}
		if n == 0 {
			runtime.Gosched()
		}
	}
	cfg.SetRunning(false)

	r.receiver.CompleteRecvThreads()

	// the receivers are gone; drain what they left behind before the
	// recorders are told to stop
	for {
		n := r.queue.DequeueBulk(events)
		if n == 0 {
			break
		}
		if err := r.dispatch(events[:n], threadAntennas); err != nil {
			r.shutdown()
			return err
		}
	}
	r.receiver = nil

	r.shutdown()
	return nil
}

func (r *Recorder) dispatch(events []eventq.Event, threadAntennas int) error {
	for _, ev := range events {
		if ev.Type != eventq.EventRxSymbol || threadAntennas == 0 {
			continue
		}
		idx := ev.AntID / threadAntennas
		task := eventq.RecordEvent{
			Type:     eventq.TaskRecord,
			Offset:   ev.Offset,
			BuffSize: r.rxThreadBuffSize,
		}
		if !r.recorders[idx].DispatchWork(task) {
			return fmt.Errorf("record task enqueue failed")
		}
	}
	return nil
}

// shutdown stops every recorder in parallel and waits for them; calling it
// twice is a no-op.
func (r *Recorder) shutdown() {
	for _, rec := range r.recorders {
		rec.Stop()
	}
	for _, rec := range r.recorders {
		rec.Wait()
	}
	r.recorders = nil
	r.rxBufs = nil
}
