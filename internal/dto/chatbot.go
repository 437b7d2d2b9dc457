package dto

type AccessTokenRequest struct {
	AppSecret string `json:"appSecret"`
	UUID      string `json:"uuid,omitempty"`
}

type TokenResponse struct {
	Token    string `json:"token"`
	ExpireAt string `json:"expireAt"`
}

type WidgetResponse struct {
	ID                  string `json:"id"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
	AgentName           string `json:"agentName"`
	AgentPhoto          string `json:"agentPhoto,omitempty"`
	HeaderColor         string `json:"headerColor"`
	HeaderTextColor     string `json:"headerTextColor"`
	AgentMessageColor   string `json:"agentMessageColor"`
	AgentTextColor      string `json:"agentTextColor"`
	VisitorMessageColor string `json:"visitorMessageColor"`
	VisitorTextColor    string `json:"visitorTextColor"`
	AppID               string `json:"appId"`
}

type AccessTokenData struct {
	Widget *WidgetResponse `json:"widget"`
	Token  *TokenResponse  `json:"token"`
	UID    string          `json:"uid,omitempty"`
}

type AccessTokenResponse struct {
	Data *AccessTokenData `json:"data"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResponse struct {
	Data string `json:"data"`
}
