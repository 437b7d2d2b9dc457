package model

import "fmt"

const (
	AppsTable     = "Apps"
	AppKeysTable  = "AppKeys"
	VisitorsTable = "Visitors"
	QueriesTable  = "Queries"
)

type KnowledgeEntry struct {
	Question string   `dynamodbav:"question"`
	Answer   string   `dynamodbav:"answer"`
	Keywords []string `dynamodbav:"keywords,omitempty"`
}

type AppItem struct {
	AppID     string           `dynamodbav:"appId"`
	Name      string           `dynamodbav:"name"`
	Widget    WidgetSettings   `dynamodbav:"widget"`
	Knowledge []KnowledgeEntry `dynamodbav:"knowledge,omitempty"`
	CreatedAt string           `dynamodbav:"createdAt"`
	UpdatedAt string           `dynamodbav:"updatedAt"`
}

type WidgetSettings struct {
	WidgetID            string `dynamodbav:"widgetId"`
	AgentName           string `dynamodbav:"agentName"`
	AgentPhoto          string `dynamodbav:"agentPhoto,omitempty"`
	HeaderColor         string `dynamodbav:"headerColor,omitempty"`
	HeaderTextColor     string `dynamodbav:"headerTextColor,omitempty"`
	AgentMessageColor   string `dynamodbav:"agentMessageColor,omitempty"`
	AgentTextColor      string `dynamodbav:"agentTextColor,omitempty"`
	VisitorMessageColor string `dynamodbav:"visitorMessageColor,omitempty"`
	VisitorTextColor    string `dynamodbav:"visitorTextColor,omitempty"`
}

type AppKeyItem struct {
	KeyID      string `dynamodbav:"keyId"`
	AppID      string `dynamodbav:"appId"`
	SecretHash string `dynamodbav:"secretHash"`
	CreatedAt  string `dynamodbav:"createdAt"`
	LastUsedAt string `dynamodbav:"lastUsedAt,omitempty"`
}

type VisitorItem struct {
	PK         string `dynamodbav:"pk"`
	AppID      string `dynamodbav:"appId"`
	VisitorID  string `dynamodbav:"visitorId"`
	CreatedAt  string `dynamodbav:"createdAt"`
	LastSeenAt string `dynamodbav:"lastSeenAt"`
}

type QueryItem struct {
	PK        string `dynamodbav:"pk"`
	AppID     string `dynamodbav:"appId"`
	VisitorID string `dynamodbav:"visitorId"`
	QueryID   string `dynamodbav:"queryId"`
	Query     string `dynamodbav:"query"`
	Answer    string `dynamodbav:"answer"`
	Matched   bool   `dynamodbav:"matched"`
	CreatedAt string `dynamodbav:"createdAt"`
}

func AppScopedPK(appID, entityID string) string {
	return fmt.Sprintf("%s#%s", appID, entityID)
}

// TableKeys maps every table to its hash key attribute.
var TableKeys = map[string]string{
	AppsTable:     "appId",
	AppKeysTable:  "keyId",
	VisitorsTable: "pk",
	QueriesTable:  "pk",
}
