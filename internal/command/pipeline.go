package command

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is what an executed command reports back. Value is set by queries
// such as sum and average.
type Result struct {
	Range    string  `json:"range,omitempty"`
	Value    float64 `json:"value,omitempty"`
	HasValue bool    `json:"hasValue,omitempty"`
}

// Executor performs a normalized command against the spreadsheet.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// DataSource serializes the full grid for autosave.
type DataSource interface {
	Data() [][]string
}

// Outcome is the result of one dispatch.
type Outcome struct {
	Command Command   `json:"command"`
	OK      bool      `json:"ok"`
	Err     error     `json:"-"`
	Result  Result    `json:"result"`
	At      time.Time `json:"at"`
}

// Error returns the failure message, or "".
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Normalizer *Normalizer
	Executor   Executor
	Data       DataSource
	// Autosave receives the full grid after a successful mutating command.
	// It must not block.
	Autosave func(data [][]string)
	// OnOutcome observes every dispatch.
	OnOutcome func(Outcome)
	Now       func() time.Time
}

// Pipeline runs Normalizer then Executor for every command, one at a time.
type Pipeline struct {
	mu     sync.Mutex
	config PipelineConfig
}

// NewPipeline creates a Pipeline.
func NewPipeline(config PipelineConfig) *Pipeline {
	if config.Normalizer == nil {
		config.Normalizer = NewNormalizer(nil)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Pipeline{config: config}
}

var tracer = otel.Tracer("github.com/ayusman/handsheet/internal/command")

// Dispatch normalizes and executes cmd. Failures are reported in the
// Outcome, never returned or panicked.
func (p *Pipeline) Dispatch(ctx context.Context, cmd Command) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "command.dispatch", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	cmd = p.config.Normalizer.Normalize(cmd)
	span.SetAttributes(
		attribute.String("command.id", cmd.ID),
		attribute.String("command.action", cmd.Action),
		attribute.String("command.source", cmd.Source),
		attribute.String("command.range", cmd.Range),
	)

	out := Outcome{Command: cmd, At: p.config.Now()}
	if p.config.Executor == nil {
		out.Err = ErrNoExecutor
	} else {
		out.Result, out.Err = p.execute(ctx, cmd)
	}
	out.OK = out.Err == nil

	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		log.Printf("[command] %s (%s) failed: %v", cmd, cmd.Source, out.Err)
	} else if cmd.Mutating() && p.config.Autosave != nil && p.config.Data != nil {
		p.config.Autosave(p.config.Data.Data())
	}

	if p.config.OnOutcome != nil {
		p.config.OnOutcome(out)
	}
	return out
}

// execute runs the executor, converting a panic into ErrExecutorPanic.
func (p *Pipeline) execute(ctx context.Context, cmd Command) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: %v", ErrExecutorPanic, r)
		}
	}()
	return p.config.Executor.Execute(ctx, cmd)
}
