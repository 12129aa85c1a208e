package persist

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/soulrift/server/internal/core/event"
	"github.com/soulrift/server/internal/protocol"
)

// Recorder buffers drained tick events and flushes them to the match
// store on an interval, off the tick goroutine. Record never blocks:
// if the buffer is full the tick's events are dropped and counted.
type Recorder struct {
	repo    *MatchRepo
	log     *zap.Logger
	matchID int64
	in      chan recordBatch
	done    chan struct{}
	flushIv time.Duration
	dropped int64
}

type recordBatch struct {
	tick   uint64
	events []event.Event
}

func NewRecorder(repo *MatchRepo, log *zap.Logger, matchID int64, flushInterval time.Duration) *Recorder {
	r := &Recorder{
		repo:    repo,
		log:     log,
		matchID: matchID,
		in:      make(chan recordBatch, 1024),
		done:    make(chan struct{}),
		flushIv: flushInterval,
	}
	go r.loop()
	return r
}

// Record hands a tick's events to the flush loop.
func (r *Recorder) Record(tick uint64, events []event.Event) {
	if len(events) == 0 {
		return
	}
	select {
	case r.in <- recordBatch{tick: tick, events: events}:
	default:
		r.dropped++
		if r.dropped%1000 == 1 {
			r.log.Warn("recorder backlog full, dropping tick events",
				zap.Int64("dropped_total", r.dropped))
		}
	}
}

// Close flushes the remaining buffer and stops the loop.
func (r *Recorder) Close() {
	close(r.in)
	<-r.done
}

func (r *Recorder) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.flushIv)
	defer ticker.Stop()

	var pending []EventRow
	for {
		select {
		case batch, ok := <-r.in:
			if !ok {
				r.flush(pending)
				return
			}
			pending = append(pending, r.rows(batch)...)
			if len(pending) >= 4096 {
				r.flush(pending)
				pending = nil
			}
		case <-ticker.C:
			if len(pending) > 0 {
				r.flush(pending)
				pending = nil
			}
		}
	}
}

// rows serializes events through the same wire mapping observers see,
// so stored payloads match the broadcast format.
func (r *Recorder) rows(batch recordBatch) []EventRow {
	out := make([]EventRow, 0, len(batch.events))
	for _, ev := range batch.events {
		wire, err := protocol.EncodeEvent(ev)
		if err != nil {
			continue
		}
		payload, err := json.Marshal(wire)
		if err != nil {
			continue
		}
		out = append(out, EventRow{
			Tick:    batch.tick,
			Kind:    string(ev.Kind()),
			Payload: payload,
		})
	}
	return out
}

func (r *Recorder) flush(rows []EventRow) {
	if len(rows) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.repo.WriteEvents(ctx, r.matchID, rows); err != nil {
		r.log.Error("event flush failed", zap.Error(err), zap.Int("rows", len(rows)))
	}
}
