// Package widget talks to the chat-bot backend on behalf of an embedded chat
// widget: it acquires widget configuration and session tokens, and exchanges
// visitor queries for answers.
package widget

import "time"

// Token is a short-lived bearer credential. It is replaced wholesale on
// refresh and never modified in place.
type Token struct {
	Token    string
	ExpireAt time.Time
}

// Valid reports whether the token can still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.ExpireAt.After(now)
}

// Config is the tenant branding record fetched once at bootstrap.
type Config struct {
	ID                  string
	AppID               string
	AgentName           string
	AgentPhoto          string
	HeaderColor         string
	HeaderTextColor     string
	AgentMessageColor   string
	AgentTextColor      string
	VisitorMessageColor string
	VisitorTextColor    string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Access is the result of one access-token call. UID is empty when the
// backend did not return a client identifier.
type Access struct {
	Widget Config
	Token  Token
	UID    string
}

// Answer carries the reply text and the token that authorized it. Refreshed
// is set when Token differs from the one the caller passed in.
type Answer struct {
	Text      string
	Token     Token
	Refreshed bool
}
