package main

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/sounder/pkg/affinity"
	"github.com/sounder/pkg/eventq"
	"github.com/sounder/pkg/samplebuf"
)

// RadioBackend is the SDR driver capability the receive pipeline consumes.
// Two backends exist: the DDS simulator and the character-device reader.
type RadioBackend interface {
	// RxSymbol blocks until the next captured symbol for the given global
	// antenna, filling iq with interleaved I/Q samples. ok reports false
	// when the backend has no more data to deliver.
	RxSymbol(ant int, iq []int16) (frame, slot uint32, ok bool)
	// ClientLoop runs client SDR i's transmit schedule until the run flag
	// clears.
	ClientLoop(i int)
	// Beamsweep runs the transmit-only loop until the run flag clears.
	Beamsweep()
	Close() error
}

// Receiver owns the pool of receive workers. Each worker reads IQ for a
// contiguous antenna range, writes packets into its sample buffer and
// publishes RxSymbol events onto the dispatch queue.
type Receiver struct {
	cfg       *Config
	backend   RadioBackend
	queue     *eventq.Queue
	threadNum int

	wg       sync.WaitGroup
	clientWG sync.WaitGroup
}

// NewReceiver validates the backend and prepares the worker pool.
func NewReceiver(threadNum int, cfg *Config, queue *eventq.Queue, backend RadioBackend) (*Receiver, error) {
	if backend == nil {
		return nil, fmt.Errorf("no radio backend configured")
	}
	return &Receiver{
		cfg:       cfg,
		backend:   backend,
		queue:     queue,
		threadNum: threadNum,
	}, nil
}

// StartClientThreads launches one transmit loop per client SDR.
func (r *Receiver) StartClientThreads() {
	for i := 0; i < r.cfg.NumClSdrs; i++ {
		r.clientWG.Add(1)
		go func(idx int) {
			defer r.clientWG.Done()
			r.backend.ClientLoop(idx)
		}(i)
	}
}

// StartRecvThreads launches the receive workers. Worker i owns bufs[i] and
// the antenna range [i*A, (i+1)*A) with A = ceil(total/threadNum); ranges
// past the last antenna stay idle.
func (r *Receiver) StartRecvThreads(bufs []*samplebuf.Buffer, baseCore int) {
	total := r.cfg.getTotNumAntennas()
	antPerWorker := (total + r.threadNum - 1) / r.threadNum
	for tid := 0; tid < r.threadNum; tid++ {
		r.wg.Add(1)
		go func(tid int) {
			defer r.wg.Done()
			r.recvLoop(tid, bufs[tid], baseCore+tid, antPerWorker, total)
		}(tid)
	}
}

// CompleteRecvThreads waits for every receive worker to exit.
func (r *Receiver) CompleteRecvThreads() {
	r.wg.Wait()
	r.clientWG.Wait()
}

// Go runs the transmit-only beam-sweep loop; no receive workers or recorder
// queues are started in this mode. The dispatch queue built by NewRecorder
// still exists and stays empty.
func (r *Receiver) Go() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.backend.Beamsweep()
	}()
}

func (r *Receiver) recvLoop(tid int, buf *samplebuf.Buffer, core, antPerWorker, totalAnts int) {
	if r.cfg.CoreAlloc {
		if err := affinity.Pin(core); err != nil {
			log.Printf("[WARN] rx worker %d: pin to core %d failed: %v", tid, core, err)
		}
	}

	antStart := tid * antPerWorker
	antEnd := antStart + antPerWorker
	if antEnd > totalAnts {
		antEnd = totalAnts
	}
	if antStart >= totalAnts {
		// no antennas fall in this worker's range
		for r.cfg.Running() {
			time.Sleep(time.Millisecond)
		}
		return
	}

	iq := make([]int16, 2*r.cfg.SampsPerSymbol)
	cursor := 0
	numPkts := buf.NumPackets()

	for r.cfg.Running() {
		for ant := antStart; ant < antEnd; ant++ {
			frame, slot, ok := r.backend.RxSymbol(ant, iq)
			if !ok {
				return
			}

			// claim the next ring slot; spin while a slow recorder
			// still owns it
			for !buf.Claim(cursor) {
				if !r.cfg.Running() {
					return
				}
				runtime.Gosched()
			}

			s := buf.Slot(cursor)
			samplebuf.PutHeader(s, frame, slot, uint32(r.cfg.cellOfAntenna(ant)), uint32(ant))
			samplebuf.PutPayload(s, iq)

			ev := eventq.Event{
				Type:   eventq.EventRxSymbol,
				AntID:  ant,
				Offset: tid*numPkts + cursor,
			}
			if !r.queue.TryEnqueue(ev) {
				log.Printf("[WARN] dispatch queue full, dropping frame %d slot %d ant %d",
					frame, slot, ant)
				buf.Release(cursor)
			}
			cursor = (cursor + 1) % numPkts
		}
	}
}
