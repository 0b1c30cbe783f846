package rtc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an issued channel token. It binds the app, the
// channel, the subject and their role to an expiry.
type Claims struct {
	AppID   string `json:"app_id"`
	Channel string `json:"channel"`
	UID     uint32 `json:"uid"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTBuilder signs channel tokens as HS256 JWTs with the app secret.
type JWTBuilder struct{}

// BuildToken implements TokenBuilder.
func (JWTBuilder) BuildToken(appID, appSecret, channel string, uid uint32, role string, expiresAt time.Time) (string, error) {
	claims := Claims{
		AppID:   appID,
		Channel: channel,
		UID:     uid,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    appID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(appSecret))
}

// ParseToken verifies a token's signature and expiry and returns its claims.
// Used by channel join validation and tests.
func ParseToken(tokenString, appSecret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(appSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
