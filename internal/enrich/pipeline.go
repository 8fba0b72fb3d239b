package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// defaultRowDelay is the fixed inter-row throttle against the external
// services. It is a deliberate rate limit, not error recovery, and elapses
// fully even when a row failed.
const defaultRowDelay = 2500 * time.Millisecond

// Progress is delivered to the progress callback after every processed row,
// including skipped and failed ones.
type Progress struct {
	State    State   `json:"state"`
	Fraction float64 `json:"progress"`
}

// Status is a point-in-time snapshot of the pipeline.
type Status struct {
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
	Cursor   int     `json:"cursor"`
	Total    int     `json:"total"`
	Enriched int     `json:"enriched"`
	Log      []Entry `json:"log"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgressFunc registers a callback invoked after every processed row.
func WithProgressFunc(fn func(Progress)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// WithCompleteFunc registers a callback invoked exactly once per fully
// completed run with the final result table. It never fires for a run that
// ends paused or stopped.
func WithCompleteFunc(fn func(model.Table)) Option {
	return func(p *Pipeline) { p.onComplete = fn }
}

// WithRowDelay overrides the inter-row throttle (0 disables it; tests).
func WithRowDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

// WithLogSize overrides the rolling log capacity.
func WithLogSize(n int) Option {
	return func(p *Pipeline) { p.log = NewRunLog(n) }
}

// Pipeline is the enrichment state machine. Rows are processed strictly one
// at a time, in input order, by a single driver goroutine; the three control
// operations only flip flags or reset the cursor under the mutex and never
// touch in-flight results.
type Pipeline struct {
	enricher   *RowEnricher
	creds      Credentials
	delay      time.Duration
	onProgress func(Progress)
	onComplete func(model.Table)
	log        *RunLog

	mu        sync.Mutex
	cond      *sync.Cond
	state     State
	table     model.Table
	entityCol string
	cursor    int
	results   []model.Row
	success   int
	progress  float64
	pause     bool
	gen       int // run generation; bumped on stop and fresh start
	result    model.Table
	done      chan struct{}
}

// NewPipeline creates a pipeline for the given table. The entity column is
// resolved once here and cached for the whole run.
func NewPipeline(table model.Table, enricher *RowEnricher, creds Credentials, opts ...Option) *Pipeline {
	p := &Pipeline{
		enricher:  enricher,
		creds:     creds,
		delay:     defaultRowDelay,
		state:     StateIdle,
		table:     table,
		entityCol: ResolveEntityColumn(table),
	}
	for _, o := range opts {
		o(p)
	}
	if p.log == nil {
		p.log = NewRunLog(0)
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// EntityColumn returns the cached entity column choice.
func (p *Pipeline) EntityColumn() string {
	return p.entityCol
}

// Start begins a run. From idle (or a terminal state) it resets the cursor,
// results, log and counters and processes from row 0; from paused it resumes
// at the stored cursor under the ctx supplied when the run began. Both
// downstream credentials must be present or Start fails without a state
// transition.
func (p *Pipeline) Start(ctx context.Context) error {
	if p.creds.DiscoveryKey == "" || p.creds.ExtractionKey == "" {
		return ErrMissingCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateProcessing:
		return eris.Errorf("enrich: start invalid in state %s", p.state)
	case StatePaused:
		p.pause = false
		p.state = StateProcessing
		p.log.Append("resumed at row %d", p.cursor+1)
		p.cond.Broadcast()
		return nil
	}

	if p.table.Empty() {
		return ErrEmptyTable
	}

	p.gen++
	p.cursor = 0
	p.results = nil
	p.success = 0
	p.progress = 0
	p.pause = false
	p.result = model.Table{}
	p.log.Reset()
	p.state = StateProcessing
	p.done = make(chan struct{})
	p.log.Append("run started: %d rows, entity column %q", len(p.table.Rows), p.entityCol)

	go p.run(ctx, p.gen, p.done)
	return nil
}

// Pause requests a cooperative pause. The in-flight row finishes; the driver
// observes the flag at the top of the next row and holds there, preserving
// the cursor. Valid only while processing.
func (p *Pipeline) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateProcessing {
		return eris.Errorf("enrich: pause invalid in state %s", p.state)
	}
	p.pause = true
	p.state = StatePaused
	return nil
}

// Stop abandons the current run: cursor back to 0, state idle, accumulated
// results discarded. An in-flight row is allowed to finish but its result is
// discarded via the generation check. Valid from processing or paused.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateProcessing && p.state != StatePaused {
		return eris.Errorf("enrich: stop invalid in state %s", p.state)
	}
	p.gen++
	p.state = StateIdle
	p.pause = false
	p.cursor = 0
	p.results = nil
	p.success = 0
	p.progress = 0
	p.log.Append("stopped, cursor reset")
	p.cond.Broadcast()
	return nil
}

// Status returns a snapshot of the pipeline, including the rolling log.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Status{
		State:    p.state,
		Progress: p.progress,
		Cursor:   p.cursor,
		Total:    len(p.table.Rows),
		Enriched: p.success,
		Log:      p.log.Entries(),
	}
}

// Result returns the final result table of a completed run.
func (p *Pipeline) Result() (model.Table, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateCompleted {
		return model.Table{}, eris.Errorf("enrich: no result in state %s", p.state)
	}
	return p.result, nil
}

// Done returns a channel closed when the current run's driver goroutine
// exits (completed, stopped, cancelled, or failed). A paused run keeps its
// driver alive, so Done does not fire on pause.
func (p *Pipeline) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

// run is the driver loop. It is the only goroutine that advances the cursor
// or appends results; all suspension points are cooperative.
func (p *Pipeline) run(ctx context.Context, gen int, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			if p.gen == gen {
				p.state = StateError
			}
			p.mu.Unlock()
			zap.L().Error("enrich: pipeline driver failed", zap.Any("panic", r))
		}
	}()

	log := zap.L().With(zap.String("component", "pipeline"))

	for {
		p.mu.Lock()
		if p.pause && p.gen == gen {
			p.log.Append("paused at row %d", p.cursor+1)
			log.Info("paused", zap.Int("cursor", p.cursor))
			for p.pause && p.gen == gen {
				p.cond.Wait()
			}
		}
		if p.gen != gen {
			p.mu.Unlock()
			return
		}
		if p.cursor >= len(p.table.Rows) {
			p.state = StateCompleted
			p.progress = 1
			p.result = p.buildResultLocked()
			result := p.result
			success := p.success
			total := len(p.table.Rows)
			p.log.Append("run complete: %d/%d rows enriched", success, total)
			p.mu.Unlock()

			log.Info("run complete", zap.Int("rows", total), zap.Int("enriched", success))
			p.notifyProgress()
			if p.onComplete != nil {
				p.onComplete(result)
			}
			return
		}
		i := p.cursor
		row := p.table.Rows[i]
		col := p.entityCol
		total := len(p.table.Rows)
		p.mu.Unlock()

		merged, outcome := p.enrichRow(ctx, row, col, i)

		p.mu.Lock()
		if p.gen != gen {
			// Stopped while the row was in flight; discard its result.
			p.mu.Unlock()
			return
		}
		p.results = append(p.results, merged)
		p.cursor = i + 1
		if outcome.Status == RowEnriched && outcome.Fields > 0 {
			p.success++
		}
		p.progress = float64(i+1) / float64(total)
		p.mu.Unlock()

		p.logOutcome(log, outcome)
		p.notifyProgress()

		// Inter-row throttle; the full delay elapses after every row,
		// including failed and slow ones.
		if err := p.waitRowDelay(ctx); err != nil {
			p.mu.Lock()
			if p.gen == gen {
				p.state = StateError
			}
			p.mu.Unlock()
			p.log.Append("run cancelled at row %d", i+1)
			log.Warn("run cancelled", zap.Error(err))
			return
		}
	}
}

// waitRowDelay blocks for the configured inter-row delay, starting when the
// previous row finished. A fresh timer per row keeps the spacing fixed: time
// spent inside a row never counts against the delay.
func (p *Pipeline) waitRowDelay(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enrichRow wraps the per-row work with a panic recovery: any unexpected
// failure keeps the original row and the run continues.
func (p *Pipeline) enrichRow(ctx context.Context, row model.Row, col string, idx int) (merged model.Row, outcome RowOutcome) {
	defer func() {
		if r := recover(); r != nil {
			merged = row
			outcome = RowOutcome{
				Index:  idx,
				Status: RowFailed,
				Err:    eris.Errorf("enrich: row %d panic: %v", idx, r),
			}
		}
	}()

	merged, outcome = p.enricher.Enrich(ctx, row, col)
	outcome.Index = idx
	return merged, outcome
}

func (p *Pipeline) notifyProgress() {
	if p.onProgress == nil {
		return
	}
	p.mu.Lock()
	prog := Progress{State: p.state, Fraction: p.progress}
	p.mu.Unlock()
	p.onProgress(prog)
}

func (p *Pipeline) logOutcome(log *zap.Logger, o RowOutcome) {
	switch o.Status {
	case RowSkipped:
		p.log.Append("row %d skipped: blank entity name", o.Index+1)
		log.Info("row skipped", zap.Int("row", o.Index))
	case RowFailed:
		p.log.Append("row %d (%s) failed: %v", o.Index+1, o.Entity, o.Err)
		log.Warn("row failed",
			zap.Int("row", o.Index),
			zap.String("entity", o.Entity),
			zap.Error(o.Err),
		)
	default:
		p.log.Append("row %d (%s) enriched: %d fields", o.Index+1, o.Entity, o.Fields)
		log.Info("row enriched",
			zap.Int("row", o.Index),
			zap.String("entity", o.Entity),
			zap.Int("fields", o.Fields),
			zap.String("source", o.SourceURL),
		)
	}
}

// buildResultLocked assembles the result table: original columns first, then
// any extracted attribute columns that appeared, in canonical order. Row
// count and order always match the input 1:1.
func (p *Pipeline) buildResultLocked() model.Table {
	cols := make([]string, len(p.table.Columns))
	copy(cols, p.table.Columns)
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, attr := range model.Attributes {
		if have[attr] {
			continue
		}
		for _, row := range p.results {
			if _, ok := row[attr]; ok {
				cols = append(cols, attr)
				have[attr] = true
				break
			}
		}
	}

	rows := make([]model.Row, len(p.results))
	copy(rows, p.results)
	return model.Table{Columns: cols, Rows: rows}
}
