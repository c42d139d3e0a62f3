// Package worker runs the fixed-size pool that drains the candidate queue.
// Each worker probes a candidate, classifies the resolved URL, and forwards
// confirmed matches to the result sink. Workers are stateless between
// candidates; a candidate failure is logged and never kills its worker.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"laddoohunt/classify"
	"laddoohunt/internal/ratelimit"
	"laddoohunt/match"
	"laddoohunt/probe"
	"laddoohunt/stats"
)

// Submitter receives confirmed matches. Satisfied by sink.Writer.
type Submitter interface {
	Submit(m *match.Match)
}

// Pool coordinates N workers over a bounded candidate queue.
type Pool struct {
	workers    int
	baseURL    string
	prober     probe.Prober
	classifier *classify.Classifier
	counters   *stats.Tracker
	sink       Submitter

	queue    chan string
	stop     chan struct{}
	wg       sync.WaitGroup
	progress *ratelimit.Gate
}

// NewPool builds a pool with the given worker count and queue capacity.
func NewPool(workers int, queueCapacity int, baseURL string, prober probe.Prober, classifier *classify.Classifier, counters *stats.Tracker, sink Submitter) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	return &Pool{
		workers:    workers,
		baseURL:    baseURL,
		prober:     prober,
		classifier: classifier,
		counters:   counters,
		sink:       sink,
		queue:      make(chan string, queueCapacity),
		stop:       make(chan struct{}),
		progress:   ratelimit.NewGate(10 * time.Second),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker()
	}
	log.Printf("Pool: %d workers started (queue capacity %d)", p.workers, cap(p.queue))
}

// Stop signals every worker to finish its in-flight candidate and exit, then
// waits for them. Queued candidates are abandoned; they were already marked
// seen by the generation loop and land in the checkpoint.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
	log.Printf("Pool: all workers stopped")
}

// Enqueue adds a candidate to the queue, blocking when full. The generation
// loop backs off before the queue fills, so blocking here is exceptional.
func (p *Pool) Enqueue(code string) {
	select {
	case p.queue <- code:
	case <-p.stop:
	}
}

// QueueLen returns the number of queued candidates.
func (p *Pool) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the queue capacity.
func (p *Pool) QueueCap() int {
	return cap(p.queue)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		// Shutdown wins over pending work: queued candidates are already in
		// the seen-set and will be checkpointed, not lost.
		select {
		case <-p.stop:
			return
		default:
		}
		select {
		case <-p.stop:
			return
		case code := <-p.queue:
			if code == "" {
				// Poison value doubles as a drain instruction.
				return
			}
			p.process(code)
		}
	}
}

// process runs one candidate through probe and classification. In-flight
// probes are bounded by the prober's own timeout, never cancelled from here.
func (p *Pool) process(code string) {
	count := p.counters.IncrementProcessed()
	if count%100 == 0 && p.progress.Allow() {
		log.Printf("Progress: %d codes processed, %d matches", count, p.counters.Matches())
	}

	res := p.prober.Probe(context.Background(), code)
	if res.Err != nil {
		p.counters.IncrementProbeErrors()
		return
	}
	if !res.Valid {
		return
	}
	p.counters.IncrementValid()

	verdict := p.classifier.Classify(res.FinalURL)
	if !verdict.AllFound {
		if len(verdict.Found) > 0 {
			p.counters.IncrementPartial()
			log.Printf("Partial: %s found %d/%d patterns, missing %v",
				probe.URL(p.baseURL, code), len(verdict.Found),
				len(verdict.Found)+len(verdict.Missing), verdict.Missing)
		}
		return
	}

	m := match.New(code, probe.URL(p.baseURL, code), res.FinalURL, verdict.Found, verdict.Category)
	log.Printf("MATCH: %s -> %s (type %s)", m.URL, m.FinalURL, m.Category)
	p.sink.Submit(m)
}
