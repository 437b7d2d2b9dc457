package conversation

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvia-widget/internal/widget"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeAcquirer struct {
	mu     sync.Mutex
	calls  int
	err    error
	access widget.Access
}

func (f *fakeAcquirer) Acquire(ctx context.Context, appKey string) (widget.Access, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return widget.Access{}, f.err
	}
	return f.access, nil
}

type queryCall struct {
	token widget.Token
	text  string
}

type fakeQuerier struct {
	mu      sync.Mutex
	calls   []queryCall
	answers []widget.Answer
	err     error
	release chan struct{}
}

func (f *fakeQuerier) Query(ctx context.Context, appKey string, token widget.Token, text string) (widget.Answer, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, queryCall{token: token, text: text})
	if f.err != nil {
		return widget.Answer{}, f.err
	}
	if len(f.answers) == 0 {
		return widget.Answer{Token: token}, nil
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	if answer.Token.Token == "" {
		answer.Token = token
	}
	return answer, nil
}

func (f *fakeQuerier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newReadyAccess() widget.Access {
	return widget.Access{
		Widget: widget.Config{AgentName: "Ada", AppID: "app-1"},
		Token:  widget.Token{Token: "t1", ExpireAt: fixedNow.Add(time.Hour)},
		UID:    "u1",
	}
}

func newController(t *testing.T, q *fakeQuerier, onChange func(Snapshot)) (*Controller, *fakeAcquirer) {
	t.Helper()
	acq := &fakeAcquirer{access: newReadyAccess()}
	c := New(Options{
		AppKey:   "k1",
		Acquirer: acq,
		Querier:  q,
		Logger:   zerolog.Nop(),
		Now:      fixedClock,
		OnChange: onChange,
	})
	require.NoError(t, c.Bootstrap(context.Background()))
	return c, acq
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply phase did not finish")
	}
}

func TestBootstrapSeedsGreeting(t *testing.T) {
	c, acq := newController(t, &fakeQuerier{}, nil)

	assert.Equal(t, 1, acq.calls)
	assert.Equal(t, StateReady, c.State())

	cfg, ok := c.Widget()
	require.True(t, ok)
	assert.Equal(t, "Ada", cfg.AgentName)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, SenderAgent, msgs[0].Sender)
	assert.Equal(t, "Hi! I'm Ada. How can I help you today?", msgs[0].Message)

	require.NoError(t, c.Bootstrap(context.Background()))
	assert.Equal(t, 1, acq.calls, "bootstrap runs once")
	assert.Len(t, c.Messages(), 1)
}

func TestBootstrapFailureRendersNothing(t *testing.T) {
	var buf bytes.Buffer
	acq := &fakeAcquirer{err: errors.New("connection refused")}
	c := New(Options{
		AppKey:   "k1",
		Acquirer: acq,
		Querier:  &fakeQuerier{},
		Logger:   zerolog.New(&buf),
		Now:      fixedClock,
	})

	err := c.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), "fetch widget")

	_, ok := c.Widget()
	assert.False(t, ok)
	assert.Equal(t, StateBootstrapping, c.State())
	assert.Empty(t, c.Messages())

	_, err = c.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSubmitAppendsVisitorThenAgent(t *testing.T) {
	q := &fakeQuerier{answers: []widget.Answer{{Text: "42"}}}
	c, _ := newController(t, q, nil)
	c.SetInput("what is the answer?")

	done, err := c.SubmitInput(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Input(), "draft is cleared on send")
	wait(t, done)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, SenderVisitor, msgs[1].Sender)
	assert.Equal(t, "what is the answer?", msgs[1].Message)
	assert.Equal(t, SenderAgent, msgs[2].Sender)
	assert.Equal(t, "42", msgs[2].Message)
	assert.Equal(t, StateReady, c.State())

	require.Len(t, q.calls, 1)
	assert.Equal(t, "t1", q.calls[0].token.Token)
}

func TestSubmitVisitorMessageIsOptimistic(t *testing.T) {
	q := &fakeQuerier{release: make(chan struct{})}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Message)
	assert.Equal(t, StateSending, c.State())

	close(q.release)
	wait(t, done)
	assert.Equal(t, StateReady, c.State())
}

func TestSubmitWhileSendingIsIgnored(t *testing.T) {
	q := &fakeQuerier{release: make(chan struct{})}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Messages(), 2)

	close(q.release)
	wait(t, done)
	assert.Equal(t, 1, q.callCount())
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	q := &fakeQuerier{}
	c, _ := newController(t, q, nil)

	_, err := c.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, c.Messages(), 1)
	assert.Zero(t, q.callCount())
	assert.Equal(t, StateReady, c.State())
}

func TestEmptyAnswerUsesFallback(t *testing.T) {
	q := &fakeQuerier{answers: []widget.Answer{{Text: ""}}}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	wait(t, done)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, FallbackReply, msgs[2].Message)
}

func TestWhitespaceAnswerIsKept(t *testing.T) {
	q := &fakeQuerier{answers: []widget.Answer{{Text: "  "}}}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	wait(t, done)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "  ", msgs[2].Message)
}

func TestQueryFailureAppendsNothing(t *testing.T) {
	q := &fakeQuerier{err: errors.New("network down")}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	wait(t, done)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderVisitor, msgs[1].Sender)
	assert.Equal(t, StateReady, c.State(), "busy flag is cleared after a failure")

	done, err = c.Submit(context.Background(), "hello again")
	require.NoError(t, err)
	wait(t, done)
}

func TestIdenticalSubmissionsGetDistinctIDs(t *testing.T) {
	q := &fakeQuerier{}
	c, _ := newController(t, q, nil)

	for i := 0; i < 2; i++ {
		done, err := c.Submit(context.Background(), "same text")
		require.NoError(t, err)
		wait(t, done)
	}

	var visitor []Message
	seen := make(map[string]bool)
	for _, m := range c.Messages() {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		if m.Sender == SenderVisitor {
			visitor = append(visitor, m)
		}
	}
	require.Len(t, visitor, 2)
	assert.NotEqual(t, visitor[0].ID, visitor[1].ID)
}

func TestRefreshedTokenIsAdopted(t *testing.T) {
	fresh := widget.Token{Token: "t-new", ExpireAt: fixedNow.Add(2 * time.Hour)}
	q := &fakeQuerier{answers: []widget.Answer{
		{Text: "one", Token: fresh, Refreshed: true},
		{Text: "two"},
	}}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)
	wait(t, done)
	assert.Equal(t, fresh, c.Token())

	done, err = c.Submit(context.Background(), "second")
	require.NoError(t, err)
	wait(t, done)

	require.Len(t, q.calls, 2)
	assert.Equal(t, "t1", q.calls[0].token.Token)
	assert.Equal(t, "t-new", q.calls[1].token.Token)
}

func TestMessageListOnlyGrows(t *testing.T) {
	var mu sync.Mutex
	var lengths []int
	var prefix []Message

	onChange := func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		lengths = append(lengths, len(s.Messages))
		for i := range prefix {
			assert.Equal(t, prefix[i], s.Messages[i], "existing entries never change")
		}
		prefix = s.Messages
	}

	q := &fakeQuerier{answers: []widget.Answer{{Text: "a"}, {Text: ""}}}
	c, _ := newController(t, q, onChange)

	for _, text := range []string{"one", "two", "three"} {
		done, err := c.Submit(context.Background(), text)
		require.NoError(t, err)
		wait(t, done)
	}
	c.Toggle()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(lengths); i++ {
		assert.GreaterOrEqual(t, lengths[i], lengths[i-1])
	}
	assert.Equal(t, 7, lengths[len(lengths)-1])
}

func TestToggleNotifiesView(t *testing.T) {
	var last Snapshot
	c, _ := newController(t, &fakeQuerier{}, func(s Snapshot) { last = s })

	assert.False(t, c.IsOpen())
	assert.True(t, c.Toggle())
	assert.True(t, last.Open)

	newest, ok := last.Last()
	require.True(t, ok)
	assert.Equal(t, SenderAgent, newest.Sender)

	assert.False(t, c.Toggle())
	assert.False(t, c.IsOpen())
}

func TestCloseDiscardsLateReply(t *testing.T) {
	q := &fakeQuerier{release: make(chan struct{}), answers: []widget.Answer{{Text: "late"}}}
	c, _ := newController(t, q, nil)

	done, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)

	c.Close()
	close(q.release)
	wait(t, done)

	assert.Len(t, c.Messages(), 2)
	_, err = c.Submit(context.Background(), "again")
	assert.ErrorIs(t, err, ErrClosed)
}
