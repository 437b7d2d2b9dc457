package conversation

import (
	"fmt"
	"time"
)

type Sender string

const (
	SenderAgent   Sender = "agent"
	SenderVisitor Sender = "visitor"
)

type Message struct {
	ID        string
	Sender    Sender
	Message   string
	Timestamp time.Time
}

type State int

const (
	StateBootstrapping State = iota
	StateReady
	StateSending
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateReady:
		return "ready"
	case StateSending:
		return "sending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Snapshot is a copy of the controller state handed to listeners.
type Snapshot struct {
	State    State
	Open     bool
	Messages []Message

	version uint64
}

// Last returns the newest message, the one a view scrolls to.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
