package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
	"github.com/moona3k/website-to-voice-agent/internal/metrics"
	"github.com/moona3k/website-to-voice-agent/internal/prompt"
	"github.com/moona3k/website-to-voice-agent/internal/session"
)

// State is the lifecycle phase of a call. Transitions only move forward:
// Idle -> Active -> Ending -> Analyzing -> Closed.
type State int32

const (
	StateIdle State = iota
	StateActive
	StateEnding
	StateAnalyzing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateAnalyzing:
		return "analyzing"
	case StateClosed:
		return "closed"
	}
	return "invalid"
}

// farewellLine is spoken verbatim whenever the model decides to end the call.
const farewellLine = "Thank you for calling. Have a wonderful day!"

type eventKind int

const (
	eventUserUtterance eventKind = iota
)

// event is one item on the call's serialized input queue. Tagging the kind
// keeps caller speech unambiguous even when an utterance happens to read
// like a command. Lifecycle signals travel out of band: a disconnect must
// never queue behind backlogged speech.
type event struct {
	kind eventKind
	text string
}

// Turn is one committed transcript entry. Role is "HUMAN" or "AGENT".
type Turn struct {
	Role string
	Text string
}

// Deps are the collaborators a Call drives. Store and Recorder may be nil in
// tests; everything else is required.
type Deps struct {
	Transcriber Transcriber
	Chat        ChatModel
	TTS         TTS
	Sink        AudioSink
	Qualifier   Qualifier
	Store       *session.Store
	Recorder    Recorder
	Now         func() time.Time
}

// Call owns the life of a single voice conversation. Run processes events
// one at a time, so turn handling never interleaves and the transcript stays
// in spoken order.
type Call struct {
	ID  string
	cfg business.Config

	transcriber Transcriber
	chat        ChatModel
	tts         TTS
	sink        AudioSink
	qualifier   Qualifier
	store       *session.Store
	recorder    Recorder
	now         func() time.Time

	events     chan event
	hangup     chan struct{}
	hangupOnce sync.Once

	mu        sync.Mutex
	state     State
	turns     []Turn
	history   []Message
	startedAt time.Time
	endedAt   time.Time
}

func NewCall(sessionID string, cfg business.Config, deps Deps) *Call {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Call{
		ID:          sessionID,
		cfg:         cfg.MergeDefaults(),
		transcriber: deps.Transcriber,
		chat:        deps.Chat,
		tts:         deps.TTS,
		sink:        deps.Sink,
		qualifier:   deps.Qualifier,
		store:       deps.Store,
		recorder:    deps.Recorder,
		now:         deps.Now,
		events:      make(chan event, 32),
		hangup:      make(chan struct{}),
		state:       StateIdle,
	}
}

// State returns the current lifecycle phase.
func (c *Call) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Turns returns a copy of the committed transcript so far.
func (c *Call) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// FeedPCM forwards caller audio to the transcriber. Safe to call from the
// transport's read loop.
func (c *Call) FeedPCM(pcm []byte) {
	if err := c.transcriber.SendPCM16KLE(pcm); err != nil {
		log.Printf("[%s] forward audio: %v", c.ID, err)
	}
}

// Hangup signals that the caller's transport dropped. It never blocks and is
// never lost, no matter how much caller speech is still queued.
func (c *Call) Hangup() {
	c.hangupOnce.Do(func() { close(c.hangup) })
}

// Run drives the call to completion. It returns once the lead record has been
// written (or teardown otherwise finished) and the call is Closed.
func (c *Call) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return errors.New("call already started")
	}
	c.state = StateActive
	c.startedAt = c.now()
	c.history = []Message{
		{Role: "system", Content: prompt.BuildSystemPrompt(c.cfg)},
		{Role: "system", Content: prompt.BuildGreeting(c.cfg, c.startedAt)},
	}
	c.mu.Unlock()
	metrics.CallsStarted.Inc()
	log.Printf("[%s] call active (%s)", c.ID, c.cfg.BrandName)

	if err := c.transcriber.Connect(); err != nil {
		// The agent can still greet and say goodbye; it just won't hear
		// anything, and the caller will eventually hang up.
		log.Printf("[%s] transcriber connect: %v", c.ID, err)
	} else {
		defer c.transcriber.Close()
		go c.pumpUtterances(ctx)
	}

	c.greet(ctx)

	reason := "disconnect"
loop:
	for {
		// A pending hangup beats any backlog of queued speech.
		select {
		case <-c.hangup:
			break loop
		default:
		}
		select {
		case <-ctx.Done():
			break loop
		case <-c.hangup:
			break loop
		case ev := <-c.events:
			switch ev.kind {
			case eventUserUtterance:
				if c.handleUtterance(ctx, ev.text) {
					reason = "agent farewell"
					break loop
				}
			}
		}
	}

	c.finish(ctx, reason)
	return nil
}

// pumpUtterances moves finalized caller speech from the transcriber onto the
// event queue, preserving arrival order.
func (c *Call) pumpUtterances(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-c.transcriber.Finalize():
			if !ok {
				return
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			select {
			case c.events <- event{kind: eventUserUtterance, text: text}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Call) greet(ctx context.Context) {
	reply, err := c.chat.Respond(ctx, c.snapshotHistory())
	if err != nil {
		log.Printf("[%s] greeting generation: %v", c.ID, err)
		return
	}
	if reply.Text == "" {
		return
	}
	c.commitAgentTurn(reply.Text)
	c.speak(ctx, reply.Text)
}

// handleUtterance runs one full turn and reports whether the model ended the
// call. The user turn is committed before the model call, and the agent turn
// before synthesis, so the transcript order matches what was actually said.
func (c *Call) handleUtterance(ctx context.Context, text string) bool {
	c.commitUserTurn(text)

	reply, err := c.chat.Respond(ctx, c.snapshotHistory())
	if err != nil {
		// Skip the reply for this turn; the caller's words stay in the
		// transcript and the conversation can continue.
		log.Printf("[%s] reply generation: %v", c.ID, err)
		return false
	}

	if reply.EndCall {
		c.commitAgentTurn(farewellLine)
		c.speak(ctx, farewellLine)
		return true
	}
	if reply.Text == "" {
		return false
	}
	c.commitAgentTurn(reply.Text)
	c.speak(ctx, reply.Text)
	return false
}

// speak streams one utterance through TTS into the audio sink. Synthesis
// errors are logged and the turn is abandoned; the text is already committed.
func (c *Call) speak(ctx context.Context, text string) {
	pcmCh, errCh := c.tts.StreamPCM(ctx, text)
	for pcmCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-pcmCh:
			if !ok {
				pcmCh = nil
				continue
			}
			if len(chunk) > 0 {
				c.sink.WritePCM(chunk)
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				log.Printf("[%s] tts: %v", c.ID, err)
			}
		}
	}
}

// finish walks Ending -> Analyzing -> Closed exactly once: freeze the
// transcript, qualify it, write the record to the session store and the
// persistence sink. Sink failures are logged, never propagated; a lost
// spreadsheet row must not wedge call teardown.
func (c *Call) finish(ctx context.Context, reason string) {
	c.mu.Lock()
	c.state = StateEnding
	c.endedAt = c.now()
	c.mu.Unlock()
	log.Printf("[%s] call ending: %s", c.ID, reason)

	c.mu.Lock()
	c.state = StateAnalyzing
	c.mu.Unlock()

	transcript := c.TranscriptText()
	rec := lead.Record{
		SessionID:  c.ID,
		StartTime:  c.startedAt.UTC().Format(time.RFC3339),
		EndTime:    c.endedAt.UTC().Format(time.RFC3339),
		Duration:   formatDuration(c.endedAt.Sub(c.startedAt)),
		WebsiteURL: c.cfg.WebsiteURL,
		Status:     lead.StatusUnknown,
		Transcript: transcript,
	}

	// The live context is usually canceled by now (the caller hung up), but
	// qualification and persistence still have to run to completion.
	bg := context.WithoutCancel(ctx)
	if transcript == "" {
		log.Printf("[%s] empty transcript, skipping qualification", c.ID)
	} else {
		an := c.qualifier.Analyze(bg, transcript, c.cfg)
		rec.Name = an.Name
		rec.Email = an.Email
		rec.Phone = an.Phone
		rec.Status = an.Status
		rec.Reason = an.Reason
		rec.PainPoints = an.PainPoints
		rec.Summary = an.Summary
		rec.NextSteps = an.NextSteps
	}
	metrics.LeadsQualified.WithLabelValues(string(rec.Status)).Inc()

	if c.store != nil {
		if err := c.store.RecordLead(c.ID, rec); err != nil {
			log.Printf("[%s] store lead: %v", c.ID, err)
		}
	}
	if c.recorder != nil {
		if err := c.recorder.Append(bg, rec); err != nil {
			log.Printf("[%s] persist lead: %v", c.ID, err)
			metrics.PersistFailures.Inc()
		}
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	metrics.CallsClosed.Inc()
	log.Printf("[%s] call closed, duration %s, status %s", c.ID, rec.Duration, rec.Status)
}

// TranscriptText renders the committed turns as the canonical one-line-per-
// turn transcript fed to qualification and stored on the record.
func (c *Call) TranscriptText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]string, len(c.turns))
	for i, t := range c.turns {
		lines[i] = t.Role + ": " + t.Text
	}
	return strings.Join(lines, "\n")
}

func (c *Call) commitUserTurn(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Role: "HUMAN", Text: text})
	c.history = append(c.history, Message{Role: "user", Content: text})
}

func (c *Call) commitAgentTurn(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Role: "AGENT", Text: text})
	c.history = append(c.history, Message{Role: "assistant", Content: text})
}

func (c *Call) snapshotHistory() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// formatDuration renders elapsed call time as minutes:seconds, e.g. "2:05".
// Partial seconds are truncated, not rounded.
func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
