package jwt

// Session identifies the visitor a widget token was issued to.
type Session struct {
	AppID     string
	VisitorID string
}
