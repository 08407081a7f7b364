package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zoobzio/emitz"
)

// ErrMismatch is returned by Verify when a trace differs from expectations.
var ErrMismatch = errors.New("trace mismatch")

// Result is the outcome of one replay.
type Result struct {
	Name  string
	Trace []string
}

// Verify compares the trace with expect line by line.
func (r *Result) Verify(expect []string) error {
	n := len(expect)
	if len(r.Trace) > n {
		n = len(r.Trace)
	}
	for i := 0; i < n; i++ {
		var want, got string
		if i < len(expect) {
			want = expect[i]
		}
		if i < len(r.Trace) {
			got = r.Trace[i]
		}
		if want != got {
			return fmt.Errorf("%w: %s line %d: want %q, got %q", ErrMismatch, r.Name, i+1, want, got)
		}
	}
	return nil
}

// Runner replays scripts against fresh emitters.
type Runner struct {
	log zerolog.Logger
}

// NewRunner returns a runner that logs replay progress to log.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log}
}

// replay is the state of one Run.
type replay struct {
	script    *Script
	events    *emitz.Emitter
	listeners map[string]emitz.Listener
	names     map[emitz.Listener]string
	trace     []string
	log       zerolog.Logger
}

// traceDiagnostics turns emitter warnings into trace lines.
type traceDiagnostics struct {
	r *replay
}

func (d traceDiagnostics) Warn(w emitz.Warning) {
	d.r.record("warn %v %d>%d", w.Key, w.Count, w.Threshold)
	d.r.log.Debug().Str("key", fmt.Sprint(w.Key)).Int("count", w.Count).Msg("max listeners exceeded")
}

func (d traceDiagnostics) Unhandled(key emitz.Key, err error) {
	d.r.log.Debug().Err(err).Str("key", fmt.Sprint(key)).Msg("unhandled error event")
}

// Run replays s on a new emitter isolated from the process-wide threshold.
func (r *Runner) Run(s *Script) (*Result, error) {
	threshold, err := emitz.NewThreshold(emitz.DefaultMaxListeners)
	if err != nil {
		return nil, err
	}

	rp := &replay{
		script:    s,
		listeners: make(map[string]emitz.Listener, len(s.Listeners)),
		names:     make(map[emitz.Listener]string, len(s.Listeners)),
		log:       r.log.With().Str("script", s.Name).Logger(),
	}

	policy := emitz.MatchLast
	switch s.Match {
	case "", "last":
	case "first":
		policy = emitz.MatchFirst
	default:
		return nil, fmt.Errorf("%s: unknown match policy %q", s.Name, s.Match)
	}

	rp.events = emitz.New(
		emitz.WithThreshold(threshold),
		emitz.WithDiagnostics(traceDiagnostics{r: rp}),
		emitz.WithMatchPolicy(policy),
	)
	if s.MaxListeners != nil {
		if err := rp.events.SetMaxListeners(*s.MaxListeners); err != nil {
			return nil, err
		}
	}

	for name, spec := range s.Listeners {
		rp.define(name, spec)
	}

	rp.log.Debug().Int("steps", len(s.Steps)).Msg("replaying")
	rp.run(s.Steps)

	return &Result{Name: s.Name, Trace: rp.trace}, nil
}

func (rp *replay) define(name string, spec ListenerSpec) {
	l := emitz.Func(func(args ...any) {
		rp.record("%s(%s)", name, rp.formatArgs(args))
		rp.run(spec.Steps)
	})
	rp.listeners[name] = l
	rp.names[l] = name
}

func (rp *replay) record(format string, args ...any) {
	rp.trace = append(rp.trace, fmt.Sprintf(format, args...))
}

func (rp *replay) formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if l, ok := arg.(emitz.Listener); ok {
			if name, known := rp.names[l]; known {
				parts[i] = name
				continue
			}
		}
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, ", ")
}

func (rp *replay) run(steps []Step) {
	for _, step := range steps {
		if err := rp.apply(step); err != nil {
			rp.record("%s %s -> error: %v", step.Op, step.Event, err)
		}
	}
}

func (rp *replay) apply(step Step) error {
	events := rp.events
	l := rp.listeners[step.Listener]

	switch step.Op {
	case OpOn:
		return events.On(step.Event, l)
	case OpOnce:
		return events.Once(step.Event, l)
	case OpPrepend:
		return events.PrependListener(step.Event, l)
	case OpPrependOnce:
		return events.PrependOnceListener(step.Event, l)
	case OpOff:
		return events.RemoveListener(step.Event, l)
	case OpRemoveAll:
		if step.Event == "" {
			return events.RemoveAllListeners()
		}
		return events.RemoveAllListeners(step.Event)
	case OpSetMax:
		return events.SetMaxListeners(step.N)
	case OpCount:
		rp.record("count %s = %d", step.Event, events.ListenerCount(step.Event))
		return nil
	case OpNames:
		names := events.EventNames()
		parts := make([]string, len(names))
		for i, k := range names {
			parts[i] = fmt.Sprint(k)
		}
		rp.record("names [%s]", strings.Join(parts, " "))
		return nil
	case OpEmit:
		ok, err := events.Emit(step.Event, step.Args...)
		if err != nil {
			return err
		}
		rp.record("emit %s -> %t", step.Event, ok)
		return nil
	}
	return fmt.Errorf("unknown op %q", step.Op)
}
