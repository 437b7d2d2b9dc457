package chatbot

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docvia-widget/internal/database"
	internaljwt "docvia-widget/internal/jwt"
	"docvia-widget/internal/model"
	"docvia-widget/utils"
)

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "validation_error"
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeNotFound     ErrorCode = "not_found"
	ErrorCodeInternal     ErrorCode = "internal_error"
)

const maxQueryLength = 2000

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

type AccessResult struct {
	App       model.AppItem
	Token     string
	ExpireAt  time.Time
	VisitorID string
}

type CreateAppParams struct {
	Name      string
	Widget    model.WidgetSettings
	Knowledge []model.KnowledgeEntry
}

type CreateAppResult struct {
	App    model.AppItem
	AppKey string
}

type Service struct {
	repo   Repository
	issuer *internaljwt.Issuer
	now    func() time.Time
}

func New(db *database.Database, issuer *internaljwt.Issuer) *Service {
	return NewWithRepository(NewDynamoRepository(db), issuer, nil)
}

func NewWithRepository(repo Repository, issuer *internaljwt.Issuer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   repo,
		issuer: issuer,
		now:    now,
	}
}

// Access exchanges an application key for the app's widget settings and a
// session token. A known uid is reused; otherwise a new visitor is created.
func (s *Service) Access(ctx context.Context, appSecret, uid string) (AccessResult, error) {
	appSecret = strings.TrimSpace(appSecret)
	if appSecret == "" {
		return AccessResult{}, newError(ErrorCodeValidation, "appSecret is required", nil)
	}

	keyID, secret, ok := utils.ParseAppKey(appSecret)
	if !ok {
		return AccessResult{}, newError(ErrorCodeUnauthorized, "invalid app secret", nil)
	}

	key, err := s.repo.GetAppKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccessResult{}, newError(ErrorCodeUnauthorized, "invalid app secret", nil)
		}
		return AccessResult{}, newError(ErrorCodeInternal, "failed to load app key", err)
	}
	if !internaljwt.ValidateSecret(key.SecretHash, secret) {
		return AccessResult{}, newError(ErrorCodeUnauthorized, "invalid app secret", nil)
	}

	app, err := s.repo.GetApp(ctx, key.AppID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccessResult{}, newError(ErrorCodeNotFound, "app not found", err)
		}
		return AccessResult{}, newError(ErrorCodeInternal, "failed to load app", err)
	}
	app.Widget = normalizeWidgetSettings(app.Widget)

	now := s.now().UTC()
	visitorID, err := s.resolveVisitor(ctx, app.AppID, strings.TrimSpace(uid), now)
	if err != nil {
		return AccessResult{}, err
	}

	token, expireAt, err := s.issuer.Issue(internaljwt.Session{AppID: app.AppID, VisitorID: visitorID})
	if err != nil {
		return AccessResult{}, newError(ErrorCodeInternal, "failed to issue token", err)
	}

	// Best effort.
	_ = s.repo.TouchAppKey(ctx, key.KeyID, now.Format(time.RFC3339))

	return AccessResult{
		App:       app,
		Token:     token,
		ExpireAt:  expireAt,
		VisitorID: visitorID,
	}, nil
}

func (s *Service) resolveVisitor(ctx context.Context, appID, uid string, now time.Time) (string, error) {
	stamp := now.Format(time.RFC3339)

	if uid != "" {
		_, err := s.repo.GetVisitor(ctx, appID, uid)
		switch {
		case err == nil:
			if err := s.repo.TouchVisitor(ctx, appID, uid, stamp); err != nil {
				return "", newError(ErrorCodeInternal, "failed to update visitor", err)
			}
			return uid, nil
		case !errors.Is(err, ErrNotFound):
			return "", newError(ErrorCodeInternal, "failed to load visitor", err)
		}
	}

	visitor := model.VisitorItem{
		AppID:      appID,
		VisitorID:  uuid.NewString(),
		CreatedAt:  stamp,
		LastSeenAt: stamp,
	}
	if err := s.repo.CreateVisitor(ctx, visitor); err != nil {
		return "", newError(ErrorCodeInternal, "failed to create visitor", err)
	}
	return visitor.VisitorID, nil
}

// Reply is the outcome of a visitor query. Text is empty when Matched is false.
type Reply struct {
	Text    string
	Matched bool
}

// Answer looks query up in the app's knowledge and records it.
func (s *Service) Answer(ctx context.Context, session internaljwt.Session, query string) (Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Reply{}, newError(ErrorCodeValidation, "query is required", nil)
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return Reply{}, newError(ErrorCodeValidation, "query is too long", nil)
	}
	if session.AppID == "" || session.VisitorID == "" {
		return Reply{}, newError(ErrorCodeUnauthorized, "invalid session", nil)
	}

	app, err := s.repo.GetApp(ctx, session.AppID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reply{}, newError(ErrorCodeUnauthorized, "invalid session", err)
		}
		return Reply{}, newError(ErrorCodeInternal, "failed to load app", err)
	}

	answer, matched := bestAnswer(app.Knowledge, query)

	record := model.QueryItem{
		AppID:     session.AppID,
		VisitorID: session.VisitorID,
		QueryID:   uuid.NewString(),
		Query:     query,
		Answer:    answer,
		Matched:   matched,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.CreateQuery(ctx, record); err != nil {
		return Reply{}, newError(ErrorCodeInternal, "failed to record query", err)
	}

	return Reply{Text: answer, Matched: matched}, nil
}

// CreateApp registers an app together with its first application key. The
// returned key is the only copy of the secret.
func (s *Service) CreateApp(ctx context.Context, params CreateAppParams) (CreateAppResult, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return CreateAppResult{}, newError(ErrorCodeValidation, "app name is required", nil)
	}

	widget, err := validateWidgetSettings(params.Widget)
	if err != nil {
		return CreateAppResult{}, err
	}

	for i, entry := range params.Knowledge {
		if strings.TrimSpace(entry.Answer) == "" {
			return CreateAppResult{}, newError(ErrorCodeValidation, "knowledge entry answer is required", nil)
		}
		if strings.TrimSpace(entry.Question) == "" && len(entry.Keywords) == 0 {
			return CreateAppResult{}, newError(ErrorCodeValidation, "knowledge entry needs a question or keywords", nil)
		}
		params.Knowledge[i].Answer = strings.TrimSpace(entry.Answer)
	}

	now := s.now().UTC().Format(time.RFC3339)
	appID := uuid.NewString()
	widget.WidgetID = uuid.NewString()

	keyID, secret, appKey := utils.GenerateAppKey()
	hash, err := internaljwt.HashSecret(secret)
	if err != nil {
		return CreateAppResult{}, newError(ErrorCodeInternal, "failed to hash app secret", err)
	}

	// A failed key write must not leave a keyless app behind.
	key := model.AppKeyItem{
		KeyID:      keyID,
		AppID:      appID,
		SecretHash: hash,
		CreatedAt:  now,
	}
	if err := s.repo.CreateAppKey(ctx, key); err != nil {
		return CreateAppResult{}, newError(ErrorCodeInternal, "failed to create app key", err)
	}

	app := model.AppItem{
		AppID:     appID,
		Name:      name,
		Widget:    widget,
		Knowledge: params.Knowledge,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateApp(ctx, app); err != nil {
		return CreateAppResult{}, newError(ErrorCodeInternal, "failed to create app", err)
	}

	return CreateAppResult{App: app, AppKey: appKey}, nil
}

// ParseSession verifies a bearer token issued by Access.
func (s *Service) ParseSession(token string) (internaljwt.Session, error) {
	session, err := s.issuer.Parse(token)
	if err != nil {
		return internaljwt.Session{}, newError(ErrorCodeUnauthorized, "invalid or expired token", err)
	}
	return session, nil
}
