package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

// Job is one queued audio analysis request.
type Job struct {
	Path        string
	Clip        *audio.Clip
	NumSpeakers int
}

// Outcome pairs a job with its result or error.
type Outcome struct {
	Path   string
	Result *AudioResult
	Err    error
}

// Pool fans audio analysis jobs out over a fixed set of workers.
type Pool struct {
	analyzer *Analyzer
	workers  int

	jobChan    chan *Job
	resultChan chan Outcome
	stopChan   chan struct{}
	wg         sync.WaitGroup
	started    bool
	mutex      sync.Mutex
}

// NewPool creates a pool of the given size over the analyzer.
func NewPool(a *Analyzer, workers int) *Pool {
	return &Pool{
		analyzer:   a,
		workers:    workers,
		jobChan:    make(chan *Job, workers*2),
		resultChan: make(chan Outcome, workers*2),
		stopChan:   make(chan struct{}),
	}
}

// Start launches the workers. Starting twice is an error.
func (p *Pool) Start(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		return fmt.Errorf("pool already started")
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	log.Info().Int("workers", p.workers).Msg("Started analysis worker pool")
	return nil
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	log.Debug().Int("worker_id", workerID).Msg("Analysis worker started")
	defer log.Debug().Int("worker_id", workerID).Msg("Analysis worker stopped")

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				return
			}
			result, err := p.analyzer.AnalyzeAudio(ctx, job.Clip, job.NumSpeakers)
			if err != nil {
				log.Error().
					Err(err).
					Str("path", job.Path).
					Int("worker_id", workerID).
					Msg("Failed to analyze clip")
			}
			select {
			case p.resultChan <- Outcome{Path: job.Path, Result: result, Err: err}:
			case <-ctx.Done():
				return
			case <-p.stopChan:
				return
			}

		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		}
	}
}

// Submit queues a job, failing fast when the queue is full.
func (p *Pool) Submit(job *Job) error {
	select {
	case p.jobChan <- job:
		return nil
	default:
		return fmt.Errorf("analysis queue full, dropping job")
	}
}

// Outcomes returns the result stream.
func (p *Pool) Outcomes() <-chan Outcome {
	return p.resultChan
}

// Stop drains the workers and closes the result stream.
func (p *Pool) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started {
		return
	}

	close(p.stopChan)
	close(p.jobChan)
	p.wg.Wait()
	close(p.resultChan)

	p.started = false
	log.Info().Msg("Stopped analysis worker pool")
}
