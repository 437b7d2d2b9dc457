package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const DefaultSessionTTL = 15 * time.Minute

// Issuer signs and verifies widget session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue returns a signed token for session and the instant it expires.
func (i *Issuer) Issue(session Session) (string, time.Time, error) {
	now := i.now()
	expireAt := now.Add(i.ttl).Truncate(time.Second)

	claims := jwt.MapClaims{
		"appId": session.AppID,
		"uid":   session.VisitorID,
		"iat":   now.Unix(),
		"exp":   expireAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expireAt, nil
}

func (i *Issuer) Parse(tokenString string) (Session, error) {
	if len(tokenString) == 0 {
		return Session{}, fmt.Errorf("token string is empty")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return Session{}, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("claims of unauthorized type")
	}

	exp, ok := claims["exp"].(float64)
	if !ok || i.now().Unix() >= int64(exp) {
		return Session{}, fmt.Errorf("token expired")
	}

	appID, _ := claims["appId"].(string)
	uid, _ := claims["uid"].(string)
	if appID == "" || uid == "" {
		return Session{}, fmt.Errorf("token is missing session claims")
	}

	return Session{AppID: appID, VisitorID: uid}, nil
}
