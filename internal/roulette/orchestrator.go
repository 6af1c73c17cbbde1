package roulette

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("orchestrator already running")

const recentIDWindow = 256

// Dependencies wires the orchestrator to its collaborators.
// Speaker and Sink are optional.
type Dependencies struct {
	Config     ConfigSource
	Commentary CommentaryProvider
	Speaker    Speaker
	Sink       StateSink
}

type commentaryResult struct {
	generation uint64
	text       string
}

// Orchestrator runs one spin at a time: dequeue, decide, animate, settle, cool down.
// All transitions happen on the Run goroutine; Enqueue only appends and wakes it.
type Orchestrator struct {
	deps    Dependencies
	queue   *Queue
	wake    chan struct{}
	results chan commentaryResult
	running atomic.Bool
	recent  *recentIDs
	tracer  trace.Tracer

	mu         sync.RWMutex
	phase      Phase
	active     *activeSpin
	appearance Appearance

	// Run goroutine only
	generation  uint64
	cfg         Config
	cancelFetch context.CancelFunc
	span        trace.Span
}

func New(deps Dependencies) *Orchestrator {
	if deps.Config == nil {
		deps.Config = StaticConfig(DefaultConfig())
	}
	return &Orchestrator{
		deps:       deps,
		queue:      NewQueue(),
		wake:       make(chan struct{}, 1),
		results:    make(chan commentaryResult, 1),
		recent:     newRecentIDs(recentIDWindow),
		tracer:     otel.Tracer("github.com/ichi0g0y/chill-roulette/internal/roulette"),
		phase:      PhaseIdle,
		appearance: deps.Config.RouletteConfig().Clamp().Appearance,
	}
}

// Enqueue appends a redemption. It never touches the active spin.
func (o *Orchestrator) Enqueue(event RedemptionEvent) RedemptionEvent {
	event = NewRedemptionEvent(event)
	if o.recent.seen(event.ID) {
		// 重複IDはそのままもう一度回す（フィードの再送もユーザーには1回分として見える）
		logger.Warn("Duplicate redemption id, queueing again",
			zap.String("id", event.ID),
			zap.String("username", event.Username))
	}
	o.queue.Push(event)
	logger.Info("Redemption queued",
		zap.String("id", event.ID),
		zap.String("username", event.Username),
		zap.String("reward", event.RewardName),
		zap.Int("queue_depth", o.queue.Len()))
	o.notify()
	return event
}

// Refresh asks the loop to re-read appearance settings and republish state.
func (o *Orchestrator) Refresh() {
	o.notify()
}

func (o *Orchestrator) notify() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Snapshot is the presentation read contract.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Snapshot{
		Phase:      o.phase,
		QueueDepth: o.queue.Len(),
		Appearance: o.appearance,
	}
	if o.active != nil {
		s.Spin = o.active.view(o.phase)
	}
	return s
}

// Pending returns the queued events, head first.
func (o *Orchestrator) Pending() []RedemptionEvent {
	return o.queue.Pending()
}

// Run drives the state machine until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)

	var (
		spinTimer     *time.Timer
		cooldownTimer *time.Timer
		spinC         <-chan time.Time
		cooldownC     <-chan time.Time
	)
	defer func() {
		if spinTimer != nil {
			spinTimer.Stop()
		}
		if cooldownTimer != nil {
			cooldownTimer.Stop()
		}
		o.stopFetch()
		o.endSpan()
	}()

	startNext := func() {
		if d, ok := o.startNext(ctx); ok {
			spinTimer = time.NewTimer(d)
			spinC = spinTimer.C
		}
	}

	logger.Info("Roulette orchestrator started")
	startNext()
	o.publish()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Roulette orchestrator stopped", zap.Int("pending", o.queue.Len()))
			return ctx.Err()

		case <-o.wake:
			if o.currentPhase() == PhaseIdle {
				startNext()
				if o.currentPhase() == PhaseIdle {
					o.refreshAppearance()
				}
			}
			o.publish()

		case res := <-o.results:
			o.applyCommentary(res)

		case <-spinC:
			spinC = nil
			cooldown := o.settle()
			cooldownTimer = time.NewTimer(cooldown)
			cooldownC = cooldownTimer.C

		case <-cooldownC:
			cooldownC = nil
			o.clear()
			startNext()
			o.publish()
		}
	}
}

func (o *Orchestrator) currentPhase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

// startNext pops the head of the queue and enters SPINNING.
// Returns the animation duration, or false when the queue is empty.
func (o *Orchestrator) startNext(ctx context.Context) (time.Duration, bool) {
	if o.currentPhase() != PhaseIdle {
		return 0, false
	}
	event, ok := o.queue.PopFront()
	if !ok {
		return 0, false
	}

	cfg := o.deps.Config.RouletteConfig().Clamp()
	o.cfg = cfg
	o.generation++
	gen := o.generation

	// 結果はアニメーション開始前に確定させる
	outcome := Decide(cfg.WinProbability)
	variant := RandomVariant()
	spin := &activeSpin{
		generation: gen,
		event:      event,
		outcome:    outcome,
		variant:    variant,
		landing:    PlanLanding(outcome),
		commentary: o.deps.Commentary.LocalTemplate(event.Username, outcome),
		duration:   cfg.AnimationDuration,
		startedAt:  time.Now(),
	}

	spanCtx, span := o.tracer.Start(ctx, "roulette.spin", trace.WithAttributes(
		attribute.Int64("spin.id", int64(gen)),
		attribute.String("redemption.id", event.ID),
		attribute.String("spin.outcome", outcome.String()),
		attribute.String("spin.variant", variant),
	))
	o.span = span

	o.mu.Lock()
	o.active = spin
	o.phase = PhaseSpinning
	o.appearance = cfg.Appearance
	o.mu.Unlock()

	queueDepth := o.queue.Len()
	logger.Info("Spin started",
		zap.Uint64("spin_id", gen),
		zap.String("id", event.ID),
		zap.String("username", event.Username),
		zap.String("outcome", outcome.String()),
		zap.String("variant", variant),
		zap.Int("segment", spin.landing.Segment),
		zap.Int("queue_depth", queueDepth))

	if cfg.AICommentaryEnabled {
		fetchCtx, cancel := context.WithCancel(spanCtx)
		o.cancelFetch = cancel
		req := CommentaryRequest{
			Username:   event.Username,
			Outcome:    outcome,
			QueueDepth: queueDepth,
			Variant:    variant,
		}
		go o.fetch(ctx, fetchCtx, gen, req)
	}

	if cfg.AnnounceSpins {
		o.speak(UtteranceAnnounce, gen, fmt.Sprintf("¡Atención! %s está girando.", event.Username))
	}
	return cfg.AnimationDuration, true
}

func (o *Orchestrator) fetch(loopCtx, fetchCtx context.Context, gen uint64, req CommentaryRequest) {
	text := o.deps.Commentary.FetchRemote(fetchCtx, req)
	select {
	case o.results <- commentaryResult{generation: gen, text: text}:
	case <-loopCtx.Done():
	}
}

// applyCommentary overwrites the slot only for the current spin while it is still spinning.
func (o *Orchestrator) applyCommentary(res commentaryResult) {
	text := strings.TrimSpace(res.text)

	o.mu.Lock()
	current := o.active != nil && o.active.generation == res.generation && o.phase == PhaseSpinning
	if current && text != "" {
		o.active.commentary = text
		o.active.remote = true
	}
	o.mu.Unlock()

	switch {
	case !current:
		logger.Debug("Discarding late commentary",
			zap.Uint64("spin_id", res.generation),
			zap.Uint64("current_spin_id", o.generation))
	case text == "":
		logger.Debug("Remote commentary unavailable, keeping fallback", zap.Uint64("spin_id", res.generation))
	default:
		logger.Debug("Remote commentary applied", zap.Uint64("spin_id", res.generation))
	}
}

// settle freezes the commentary, speaks it once and returns the cooldown to wait.
func (o *Orchestrator) settle() time.Duration {
	o.stopFetch()

	o.mu.Lock()
	spin := o.active
	if spin == nil {
		o.mu.Unlock()
		return o.cfg.Cooldown
	}
	if strings.TrimSpace(spin.commentary) == "" {
		spin.commentary = o.deps.Commentary.LocalTemplate(spin.event.Username, spin.outcome)
		spin.remote = false
	}
	spin.settledAt = time.Now()
	o.phase = PhaseSettled
	text := spin.commentary
	o.mu.Unlock()

	logger.Info("Spin settled",
		zap.Uint64("spin_id", spin.generation),
		zap.String("username", spin.event.Username),
		zap.String("outcome", spin.outcome.String()),
		zap.Bool("ai_text", spin.remote),
		zap.String("commentary", text))

	o.speak(UtteranceCommentary, spin.generation, text)
	o.endSpan()
	o.publish()
	return o.cfg.Cooldown
}

func (o *Orchestrator) clear() {
	o.mu.Lock()
	o.active = nil
	o.phase = PhaseIdle
	o.mu.Unlock()
	logger.Debug("Cooldown elapsed", zap.Int("queue_depth", o.queue.Len()))
}

func (o *Orchestrator) refreshAppearance() {
	appearance := o.deps.Config.RouletteConfig().Clamp().Appearance
	o.mu.Lock()
	o.appearance = appearance
	o.mu.Unlock()
}

func (o *Orchestrator) speak(kind UtteranceKind, gen uint64, text string) {
	if o.deps.Speaker == nil || strings.TrimSpace(text) == "" {
		return
	}
	o.deps.Speaker.Speak(Utterance{
		Kind:   kind,
		SpinID: gen,
		Text:   text,
		Voice:  o.cfg.Voice.Name,
		Pitch:  o.cfg.Voice.Pitch,
		Rate:   o.cfg.Voice.Rate,
	})
}

func (o *Orchestrator) publish() {
	if o.deps.Sink == nil {
		return
	}
	o.deps.Sink.PublishState(o.Snapshot())
}

func (o *Orchestrator) stopFetch() {
	if o.cancelFetch != nil {
		o.cancelFetch()
		o.cancelFetch = nil
	}
}

func (o *Orchestrator) endSpan() {
	if o.span != nil {
		o.span.End()
		o.span = nil
	}
}

// recentIDs remembers the last n enqueued ids to flag duplicates.
type recentIDs struct {
	mu    sync.Mutex
	order []string
	count map[string]int
	next  int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{order: make([]string, n), count: make(map[string]int, n)}
}

// seen records id and reports whether it was already in the window.
func (r *recentIDs) seen(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := r.count[id] > 0

	if old := r.order[r.next]; old != "" {
		if r.count[old] <= 1 {
			delete(r.count, old)
		} else {
			r.count[old]--
		}
	}
	r.order[r.next] = id
	r.count[id]++
	r.next = (r.next + 1) % len(r.order)
	return dup
}
