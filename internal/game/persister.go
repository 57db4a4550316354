package game

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

type PersisterOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
}

type persistJob struct {
	room   string
	action string
	kind   EntityKind
	run    func(ctx context.Context) error
}

// Persister writes committed room state to a Store in the background. Jobs for
// one room always land on the same worker so they are applied in order.
// Failures are retried and then logged; room state is never rolled back.
type Persister struct {
	store  Store
	opts   PersisterOptions
	log    zerolog.Logger
	queues []chan persistJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPersister(store Store, opts PersisterOptions, logger zerolog.Logger) *Persister {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	p := &Persister{
		store:  store,
		opts:   opts,
		log:    logger.With().Str("component", "persister").Logger(),
		queues: make([]chan persistJob, opts.Workers),
	}
	for i := range p.queues {
		p.queues[i] = make(chan persistJob, opts.QueueSize)
		p.wg.Add(1)
		go p.work(p.queues[i])
	}
	return p
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Persister) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Persister) Save(room string, kind EntityKind, entity any) {
	if p == nil {
		return
	}
	p.enqueue(persistJob{room: room, action: "save", kind: kind, run: func(ctx context.Context) error {
		return p.store.Save(ctx, kind, entity)
	}})
}

func (p *Persister) Delete(room string, kind EntityKind, id string) {
	if p == nil {
		return
	}
	p.enqueue(persistJob{room: room, action: "delete", kind: kind, run: func(ctx context.Context) error {
		return p.store.Delete(ctx, kind, id)
	}})
}

func (p *Persister) enqueue(job persistJob) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn().Str("room_code", job.room).Str("kind", string(job.kind)).Msg("persister closed, dropping write")
		return
	}
	q := p.queues[xxhash.Sum64String(job.room)%uint64(len(p.queues))]
	select {
	case q <- job:
	default:
		p.log.Warn().Str("room_code", job.room).Str("kind", string(job.kind)).Msg("persist queue full, dropping write")
	}
}

func (p *Persister) work(q chan persistJob) {
	defer p.wg.Done()
	for job := range q {
		p.runJob(job)
	}
}

func (p *Persister) runJob(job persistJob) {
	var err error
	for attempt := 0; attempt <= p.opts.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * p.opts.Backoff)
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
		err = job.run(ctx)
		cancel()
		if err == nil {
			return
		}
		p.log.Debug().Err(err).Str("room_code", job.room).Str("kind", string(job.kind)).Int("attempt", attempt+1).Msg("persist attempt failed")
	}
	p.log.Error().Err(err).Str("room_code", job.room).Str("kind", string(job.kind)).Str("action", job.action).Msg("persist failed")
}
