package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/handoff"
	"github.com/llxisdsh/handoff/transform"
)

const (
	producerID handoff.PeerID = iota + 1
	consumerID
)

// Options configure a Controller. The zero value runs transform.Default
// in two phases with spin waits and no liveness timeout.
type Options struct {
	Rules  transform.Rules
	Phases int
	// WaitMode selects how the consumer waits for a handoff.
	WaitMode handoff.WaitMode
	// Liveness bounds every rendezvous the producer waits on: the relay's
	// readiness and the echo of each handoff. A rendezvous that exceeds it
	// fails the run with ErrPeerUnresponsive. The consumer's wait spans the
	// producer's work on a phase and is bounded only by the run.
	// Zero waits forever.
	Liveness time.Duration

	Logger   *zap.Logger
	Recorder Recorder
	Observer Observer
}

// Controller is the SplitPipelineController. It is safe to call Run
// concurrently; every run owns its own barrier state.
type Controller struct {
	opts Options
	log  *zap.Logger
}

// New validates opts and returns a controller.
func New(opts Options) (*Controller, error) {
	if opts.Rules == (transform.Rules{}) {
		opts.Rules = transform.Default()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	if opts.Phases == 0 {
		opts.Phases = 2
	}
	if opts.Phases < 0 || opts.Phases > transform.MaxPhases {
		return nil, fmt.Errorf("pipeline: %d phases, want 1..%d", opts.Phases, transform.MaxPhases)
	}
	if opts.Liveness < 0 {
		return nil, fmt.Errorf("pipeline: negative liveness timeout %v", opts.Liveness)
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Observer == nil {
		opts.Observer = ObserverFunc(func(Event) {})
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{opts: opts, log: log.Named("pipeline")}, nil
}

// Run transforms input with the default options.
func Run(ctx context.Context, input, output []byte) error {
	c, _ := New(Options{})
	return c.Run(ctx, input, output)
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	return c.opts
}

// Size is the sizing prepass: the number of bytes Run writes for input.
func (c *Controller) Size(input []byte) int {
	return c.opts.Rules.NewLength(input)
}

// Transform allocates the output region and runs.
func (c *Controller) Transform(ctx context.Context, input []byte) ([]byte, error) {
	out := make([]byte, c.Size(input))
	if err := c.Run(ctx, input, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run transforms input into output[:Size(input)] and returns once both
// units have finished every phase. output must hold at least Size(input)
// bytes. On error the contents of output are undefined.
func (c *Controller) Run(ctx context.Context, input, output []byte) error {
	start := time.Now()
	r, err := c.plan(ctx, input, output)
	if err == nil {
		err = r.execute()
	}

	outLen := 0
	if r != nil {
		outLen = len(r.out)
	}
	c.opts.Recorder.RunFinished(outcome(err), len(input), outLen, time.Since(start))
	if err != nil {
		c.log.Error("run failed",
			zap.Int("input", len(input)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		c.opts.Observer.Observe(Event{Kind: Transition, Side: Host, State: State{Stage: Failed}})
		return err
	}
	c.log.Info("run complete",
		zap.Int("input", len(input)),
		zap.Int("output", outLen),
		zap.Int("phases", c.opts.Phases),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// run is the state of one Run call.
type run struct {
	c      *Controller
	parent context.Context
	rules  transform.Rules
	input  []byte
	out    []byte

	// bounds[k]:bounds[k+1] is input phase k; plan is the matching output
	// split. ends[k] is published by the producer before handoff k.
	bounds []int
	plan   []int
	ends   []int

	board   handoff.Switchboard
	counter *handoff.Counter
	hs      *handoff.Handshake
	relay   *handoff.Relay
}

func (c *Controller) plan(ctx context.Context, input, output []byte) (*run, error) {
	c.transition(Host, State{Stage: Sizing})
	if ctx.Err() != nil {
		return nil, &RunError{Kind: ErrAborted, Side: Host, State: State{Stage: Sizing}, Err: context.Cause(ctx)}
	}

	bounds, err := transform.Split(len(input), c.opts.Phases)
	if err != nil {
		return nil, &RunError{Kind: ErrAllocation, Side: Host, State: State{Stage: Sizing}, Err: err}
	}
	plan := c.opts.Rules.Plan(input, bounds)
	newLen := plan[len(plan)-1]
	if len(output) < newLen {
		return nil, &RunError{
			Kind:  ErrAllocation,
			Side:  Host,
			State: State{Stage: Sizing},
			Err:   fmt.Errorf("output region holds %d bytes, need %d", len(output), newLen),
		}
	}
	c.log.Debug("sized",
		zap.Int("input", len(input)),
		zap.Int("output", newLen),
		zap.Ints("bounds", bounds))

	r := &run{
		c:      c,
		parent: ctx,
		rules:  c.opts.Rules,
		input:  input,
		out:    output[:newLen:newLen],
		bounds: bounds,
		plan:   plan,
		ends:   make([]int, c.opts.Phases),
	}

	for _, id := range []handoff.PeerID{consumerID, producerID} {
		if _, err := r.board.Register(id); err != nil {
			return nil, &RunError{Kind: ErrAllocation, Side: Host, State: State{Stage: Sizing}, Err: err}
		}
	}
	r.counter = handoff.NewCounter(c.opts.WaitMode)
	r.hs = handoff.NewHandshake(&r.board, producerID, consumerID)
	r.relay = handoff.NewRelay(&r.board, consumerID, producerID, r.counter)
	return r, nil
}

func (r *run) execute() error {
	defer r.board.Close()

	g, ctx := errgroup.WithContext(r.parent)
	g.Go(func() error {
		if err := r.relay.Serve(ctx); err != nil {
			return r.fail(Consumer, State{Stage: Handoff}, err)
		}
		return nil
	})
	g.Go(func() error { return r.produce(ctx) })
	g.Go(func() error { return r.consume(ctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	r.c.transition(Host, State{Stage: Done})
	return nil
}

func (r *run) produce(ctx context.Context) error {
	// Once the last handoff is acknowledged the relay has nothing left to
	// wait for. On failure this also releases it early.
	defer r.board.Hangup(consumerID)

	if _, err := r.rendezvous(ctx, Producer, State{Stage: Handoff}, r.hs.AwaitReady); err != nil {
		return err
	}

	j := 0
	for k := range r.ends {
		phase := k + 1
		st := State{Stage: Producing, Phase: phase}
		r.c.transition(Producer, st)

		lo, hi := r.plan[k], r.plan[k+1]
		r.c.observe(AcquireRange, Producer, st, lo, hi)
		n, err := r.rules.MarkAndFold(r.out[j:], r.input[r.bounds[k]:r.bounds[k+1]])
		if err == nil && j+n != hi {
			err = fmt.Errorf("emitted %d bytes, planned %d", n, hi-lo)
		}
		if err != nil {
			return &RunError{Kind: ErrSizingMismatch, Side: Producer, State: st, Err: err}
		}
		j += n
		r.ends[k] = j
		r.c.observe(ReleaseRange, Producer, st, lo, hi)

		st = State{Stage: Handoff, Phase: phase}
		r.c.transition(Producer, st)
		waited, err := r.rendezvous(ctx, Producer, st, r.hs.SignalAndBlock)
		if err != nil {
			return err
		}
		r.c.opts.Recorder.Handoff(phase, Producer.String(), waited)
	}
	r.c.transition(Producer, State{Stage: Done})
	return nil
}

func (r *run) consume(ctx context.Context) error {
	lo := 0
	for k := range r.ends {
		phase := k + 1
		st := State{Stage: Handoff, Phase: phase}
		waited, err := r.await(ctx, Consumer, st, func(ctx context.Context) error {
			_, err := r.counter.Await(ctx)
			return err
		})
		if err != nil {
			return err
		}
		r.c.opts.Recorder.Handoff(phase, Consumer.String(), waited)

		hi := r.ends[k]
		st = State{Stage: Consuming, Phase: phase}
		r.c.transition(Consumer, st)
		r.c.observe(AcquireRange, Consumer, st, lo, hi)
		r.rules.ExpandInPlace(r.out[lo:hi])
		r.c.observe(ReleaseRange, Consumer, st, lo, hi)
		lo = hi
	}
	r.c.transition(Consumer, State{Stage: Done})
	return nil
}

// rendezvous runs a wait on the relay under the liveness timeout. The relay
// does no work of its own, so a slow answer means it is gone.
func (r *run) rendezvous(ctx context.Context, side Side, st State, wait func(context.Context) error) (time.Duration, error) {
	if d := r.c.opts.Liveness; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return r.await(ctx, side, st, wait)
}

// await runs one barrier wait.
func (r *run) await(ctx context.Context, side Side, st State, wait func(context.Context) error) (time.Duration, error) {
	start := time.Now()
	if err := wait(ctx); err != nil {
		return time.Since(start), r.fail(side, st, err)
	}
	return time.Since(start), nil
}

func (r *run) fail(side Side, st State, err error) error {
	kind := ErrPeerUnresponsive
	if r.parent.Err() != nil {
		kind = ErrAborted
		err = errors.Join(err, context.Cause(r.parent))
	}
	return &RunError{Kind: kind, Side: side, State: st, Err: err}
}

func (c *Controller) transition(side Side, st State) {
	c.log.Debug("transition", zap.Stringer("side", side), zap.Stringer("state", st))
	c.opts.Observer.Observe(Event{Kind: Transition, Side: side, State: st})
}

func (c *Controller) observe(kind EventKind, side Side, st State, lo, hi int) {
	c.opts.Observer.Observe(Event{Kind: kind, Side: side, State: st, Lo: lo, Hi: hi})
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string, int, int, time.Duration) {}
func (nopRecorder) Handoff(int, string, time.Duration)          {}
