package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hive-dashboard/internal/storage"
	"hive-dashboard/internal/telemetry"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	Greeting           = "Hi! I'm keeping an eye on your hive. Ask me anything about how the colony is doing."
	FailureFallback    = "Sorry, I'm having connection trouble reaching the hive assistant right now. Please try again in a moment."
	EmptyReplyFallback = "Hmm, I couldn't come up with an answer to that. Could you try asking another way?"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Outcome is how a send attempt ended.
type Outcome string

const (
	OutcomeRejected Outcome = "rejected"
	OutcomeReply    Outcome = "reply"
	OutcomeEmpty    Outcome = "empty"
	OutcomeFailure  Outcome = "failure"
)

// Responder produces the assistant reply for a user prompt given the latest
// hive reading.
type Responder interface {
	GenerateReply(ctx context.Context, prompt string, sample telemetry.Sample) (string, error)
}

// SampleSource provides the reading sent along with each prompt.
type SampleSource interface {
	Latest() telemetry.Sample
}

// Observer receives one call per send attempt. latency is zero for rejected sends.
type Observer interface {
	ObserveSend(outcome Outcome, latency time.Duration)
}

// Session is a single chat transcript with at most one reply in flight.
type Session struct {
	mu       sync.RWMutex
	messages []Message
	pending  bool

	responder Responder
	source    SampleSource
	timeout   time.Duration
	recorder  storage.Recorder
	observer  Observer
	log       *zap.Logger
	now       func() time.Time

	// inflight counts accepted sends whose reply has not settled. idle is
	// closed whenever inflight is zero and replaced when it leaves zero.
	inflight int
	idle     chan struct{}

	listenMu  sync.Mutex
	publishMu sync.Mutex
	listeners map[int]func([]Message, bool)
	nextID    int
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReplyTimeout bounds each responder call. Zero means no deadline.
func WithReplyTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithRecorder logs every settled exchange.
func WithRecorder(r storage.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session seeded with the assistant greeting.
// source may be nil, in which case prompts carry a zero Sample.
func NewSession(responder Responder, source SampleSource, opts ...Option) *Session {
	s := &Session{
		messages:  []Message{{Role: RoleAssistant, Content: Greeting}},
		responder: responder,
		source:    source,
		log:       zap.NewNop(),
		now:       time.Now,
		listeners: make(map[int]func([]Message, bool)),
		idle:      make(chan struct{}),
	}
	close(s.idle)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send submits user text. It returns false without any side effect when the
// trimmed text is empty or a reply is already pending. Otherwise the user
// message is appended before Send returns and the reply is fetched in the
// background.
func (s *Session) Send(text string) bool {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.pending {
		s.mu.Unlock()
		s.observe(OutcomeRejected, 0)
		return false
	}
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text})
	s.pending = true
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	s.mu.Unlock()

	var sample telemetry.Sample
	if s.source != nil {
		sample = s.source.Latest()
	}

	s.publish()
	go s.await(text, sample)
	return true
}

// Transcript returns a copy of the messages in display order.
func (s *Session) Transcript() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// State returns the transcript and pending flag read together.
func (s *Session) State() ([]Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.pending
}

func (s *Session) IsPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Reset drops every message except the greeting. It is refused while a reply
// is pending.
func (s *Session) Reset() bool {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return false
	}
	s.messages = []Message{{Role: RoleAssistant, Content: Greeting}}
	s.mu.Unlock()

	s.publish()
	return true
}

// Wait blocks until no reply is in flight. It is safe to call concurrently
// with Send.
func (s *Session) Wait() {
	s.mu.RLock()
	idle := s.idle
	s.mu.RUnlock()
	<-idle
}

// WaitContext is Wait bounded by ctx.
func (s *Session) WaitContext(ctx context.Context) error {
	s.mu.RLock()
	idle := s.idle
	s.mu.RUnlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnChange registers fn to run after every transcript change with the state
// current at delivery time. fn must not call Send or Reset.
// The returned func removes it.
func (s *Session) OnChange(fn func(transcript []Message, pending bool)) func() {
	s.listenMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenMu.Unlock()

	return func() {
		s.listenMu.Lock()
		delete(s.listeners, id)
		s.listenMu.Unlock()
	}
}

func (s *Session) await(prompt string, sample telemetry.Sample) {
	defer s.settled()

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	reply, err := s.generate(ctx, prompt, sample)
	latency := s.now().Sub(start)

	outcome, content := settle(reply, err)
	switch outcome {
	case OutcomeFailure:
		s.log.Warn("responder failed", zap.Error(err), zap.Duration("latency", latency))
	case OutcomeEmpty:
		s.log.Warn("responder returned empty reply", zap.Duration("latency", latency))
	default:
		s.log.Debug("reply delivered", zap.Int("chars", len(content)), zap.Duration("latency", latency))
	}

	s.mu.Lock()
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: content})
	s.pending = false
	s.mu.Unlock()

	s.publish()
	s.observe(outcome, latency)
	s.record(prompt, content, outcome, latency, sample)
}

func (s *Session) settled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}

// generate shields the session from a panicking responder.
func (s *Session) generate(ctx context.Context, prompt string, sample telemetry.Sample) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()
	return s.responder.GenerateReply(ctx, prompt, sample)
}

func settle(reply string, err error) (Outcome, string) {
	switch {
	case err != nil:
		return OutcomeFailure, FailureFallback
	case strings.TrimSpace(reply) == "":
		return OutcomeEmpty, EmptyReplyFallback
	default:
		return OutcomeReply, reply
	}
}

func (s *Session) snapshotLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// publish delivers the current state to listeners. Deliveries are serialized
// and always read fresh state, so the last delivery reflects the latest change.
func (s *Session) publish() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.listenMu.Lock()
	fns := make([]func([]Message, bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenMu.Unlock()
	if len(fns) == 0 {
		return
	}

	s.mu.RLock()
	transcript, pending := s.snapshotLocked(), s.pending
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(transcript, pending)
	}
}

func (s *Session) observe(outcome Outcome, latency time.Duration) {
	if s.observer != nil {
		s.observer.ObserveSend(outcome, latency)
	}
}

func (s *Session) record(prompt, reply string, outcome Outcome, latency time.Duration, sample telemetry.Sample) {
	if s.recorder == nil {
		return
	}
	ev := storage.Event{
		Timestamp:         s.now().UTC(),
		UserMessage:       prompt,
		AssistantResponse: reply,
		Outcome:           string(outcome),
		LatencyMillis:     latency.Milliseconds(),
		Temperature:       sample.Temperature,
		Humidity:          sample.Humidity,
		Activity:          sample.Activity,
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		s.log.Error("failed to record interaction", zap.Error(err))
	}
}
