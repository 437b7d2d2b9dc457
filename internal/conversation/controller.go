// Package conversation drives one widget session: it bootstraps access,
// keeps the ordered message list and exchanges visitor submissions for agent
// replies, one at a time.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docvia-widget/internal/widget"
)

// FallbackReply replaces an empty answer from the backend.
const FallbackReply = "Sorry, Our system having some technical issues. Please try again later."

var (
	ErrEmptyInput = errors.New("conversation: empty input")
	ErrNotReady   = errors.New("conversation: widget not bootstrapped")
	ErrBusy       = errors.New("conversation: a message is already being sent")
	ErrClosed     = errors.New("conversation: controller closed")
)

// Querier exchanges a query for an answer, refreshing token when needed.
type Querier interface {
	Query(ctx context.Context, appKey string, token widget.Token, text string) (widget.Answer, error)
}

type Options struct {
	AppKey   string
	Acquirer widget.Acquirer
	Querier  Querier
	Logger   zerolog.Logger
	Now      func() time.Time
	// OnChange runs after every change to the message list, the state or
	// the open flag. It may be called from a background goroutine.
	OnChange func(Snapshot)
}

type Controller struct {
	appKey   string
	acquirer widget.Acquirer
	querier  Querier
	log      zerolog.Logger
	now      func() time.Time
	onChange func(Snapshot)

	mu       sync.Mutex
	state    State
	config   *widget.Config
	token    widget.Token
	messages []Message
	input    string
	open     bool
	seq      uint64
	fetching bool
	closed   bool
	version  uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func New(opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		appKey:   opts.AppKey,
		acquirer: opts.Acquirer,
		querier:  opts.Querier,
		log:      opts.Logger.With().Str("component", "conversation").Logger(),
		now:      now,
		onChange: opts.OnChange,
		state:    StateBootstrapping,
	}
}

// Bootstrap acquires the widget configuration and the first token. On
// failure the controller keeps waiting in StateBootstrapping and renders
// nothing; it does not retry on its own.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateBootstrapping || c.fetching {
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	c.mu.Unlock()

	access, err := c.acquirer.Acquire(ctx, c.appKey)

	c.mu.Lock()
	c.fetching = false
	if err != nil {
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("fetch widget")
		return fmt.Errorf("bootstrap widget: %w", err)
	}
	if c.closed || c.state != StateBootstrapping {
		c.mu.Unlock()
		return nil
	}
	cfg := access.Widget
	c.config = &cfg
	c.token = access.Token
	c.messages = append(c.messages, c.newMessageLocked(SenderAgent, greeting(cfg.AgentName)))
	c.state = StateReady
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

func greeting(agentName string) string {
	return fmt.Sprintf("Hi! I'm %s. How can I help you today?", agentName)
}

// Submit appends the visitor message right away and sends it in the
// background. The returned channel is closed once the reply phase is over,
// whether or not a reply was appended.
func (c *Controller) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, ErrClosed
	case c.state == StateBootstrapping:
		c.mu.Unlock()
		return nil, ErrNotReady
	case c.state == StateSending:
		c.mu.Unlock()
		return nil, ErrBusy
	}

	c.messages = append(c.messages, c.newMessageLocked(SenderVisitor, text))
	c.input = ""
	c.state = StateSending
	token := c.token
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)

	done := make(chan struct{})
	go c.exchange(ctx, token, text, done)
	return done, nil
}

// SubmitInput submits the current draft input.
func (c *Controller) SubmitInput(ctx context.Context) (<-chan struct{}, error) {
	return c.Submit(ctx, c.Input())
}

func (c *Controller) exchange(ctx context.Context, token widget.Token, text string, done chan<- struct{}) {
	defer close(done)

	answer, err := c.querier.Query(ctx, c.appKey, token, text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err == nil {
		if answer.Refreshed {
			c.token = answer.Token
		}
		reply := answer.Text
		if reply == "" {
			reply = FallbackReply
		}
		c.messages = append(c.messages, c.newMessageLocked(SenderAgent, reply))
	}
	c.state = StateReady
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) newMessageLocked(sender Sender, text string) Message {
	c.seq++
	now := c.now()
	return Message{
		ID:        fmt.Sprintf("%s-%d-%d", sender, now.UnixMilli(), c.seq),
		Sender:    sender,
		Message:   text,
		Timestamp: now,
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{
		State:    c.state,
		Open:     c.open,
		Messages: msgs,
	}
}

func (c *Controller) changedLocked() Snapshot {
	c.version++
	snap := c.snapshotLocked()
	snap.version = c.version
	return snap
}

// notify delivers snapshots in change order; one overtaken by a newer
// delivery is dropped.
func (c *Controller) notify(snap Snapshot) {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.version <= c.delivered {
		return
	}
	c.delivered = snap.version
	c.onChange(snap)
}

// Widget returns the fetched configuration. ok is false until Bootstrap
// succeeds, meaning there is nothing to render.
func (c *Controller) Widget() (cfg widget.Config, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return widget.Config{}, false
	}
	return *c.config, true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked().Messages
}

// Token returns the token the next query will start from.
func (c *Controller) Token() widget.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Toggle flips the panel between open and closed and returns the new value.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.open = !c.open
	open := c.open
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)
	return open
}

func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close detaches the controller. Replies still in flight are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
