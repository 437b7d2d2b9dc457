package widget

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docvia-widget/internal/dto"
	"docvia-widget/internal/session"
)

// Acquirer obtains a widget configuration and a fresh session token.
type Acquirer interface {
	Acquire(ctx context.Context, appKey string) (Access, error)
}

type AccessClient struct {
	client *Client
	store  session.Store
	log    zerolog.Logger
}

func NewAccessClient(client *Client, store session.Store, log zerolog.Logger) *AccessClient {
	if store == nil {
		store = session.NewMemoryStore()
	}
	return &AccessClient{
		client: client,
		store:  store,
		log:    log.With().Str("component", "access").Logger(),
	}
}

// Acquire issues one access-token call. The stored client identifier, if
// any, is sent along; a returned identifier replaces the stored one.
func (a *AccessClient) Acquire(ctx context.Context, appKey string) (Access, error) {
	appKey = strings.TrimSpace(appKey)
	if appKey == "" {
		return Access{}, newError(KindInvalidArgument, "app key is required", nil)
	}

	uid, err := a.store.Get(ctx, session.UIDKey)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		a.log.Warn().Err(err).Msg("read client identifier")
	}

	body, err := a.client.post(ctx, accessTokenPath, "", dto.AccessTokenRequest{
		AppSecret: appKey,
		UUID:      uid,
	})
	if err != nil {
		return Access{}, err
	}

	access, err := decodeAccess(body)
	if err != nil {
		return Access{}, err
	}

	if access.UID != "" {
		if err := a.store.Set(ctx, session.UIDKey, access.UID); err != nil {
			a.log.Warn().Err(err).Msg("persist client identifier")
		}
	}

	return access, nil
}

func decodeAccess(body []byte) (Access, error) {
	var res dto.AccessTokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return Access{}, newError(KindDecode, "decode access response", err)
	}
	if res.Data == nil || res.Data.Widget == nil || res.Data.Token == nil {
		return Access{}, newError(KindDecode, "access response is missing widget or token", nil)
	}
	if res.Data.Token.Token == "" {
		return Access{}, newError(KindDecode, "access response carries an empty token", nil)
	}

	expireAt, err := time.Parse(time.RFC3339, res.Data.Token.ExpireAt)
	if err != nil {
		return Access{}, newError(KindDecode, "parse token expiry", err)
	}

	return Access{
		Widget: configFromResponse(*res.Data.Widget),
		Token: Token{
			Token:    res.Data.Token.Token,
			ExpireAt: expireAt,
		},
		UID: res.Data.UID,
	}, nil
}

func configFromResponse(w dto.WidgetResponse) Config {
	return Config{
		ID:                  w.ID,
		AppID:               w.AppID,
		AgentName:           w.AgentName,
		AgentPhoto:          w.AgentPhoto,
		HeaderColor:         w.HeaderColor,
		HeaderTextColor:     w.HeaderTextColor,
		AgentMessageColor:   w.AgentMessageColor,
		AgentTextColor:      w.AgentTextColor,
		VisitorMessageColor: w.VisitorMessageColor,
		VisitorTextColor:    w.VisitorTextColor,
		CreatedAt:           parseOptionalTime(w.CreatedAt),
		UpdatedAt:           parseOptionalTime(w.UpdatedAt),
	}
}

func parseOptionalTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
