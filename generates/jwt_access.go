package generates

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/legit-games/oid4vci/errors"
)

// NewJWTAccessTokenService create to generate the jwt access token instance
func NewJWTAccessTokenService(kid string, key []byte, method jwt.SigningMethod) *JWTAccessTokenService {
	return &JWTAccessTokenService{
		SignedKeyID:  kid,
		SignedKey:    key,
		SignedMethod: method,
	}
}

// JWTAccessTokenService mints signed JWT access tokens from the claim set
// assembled by the token endpoint handlers (sub, iss, client_id, scope, ...).
// iat/exp are stamped here when the caller did not set them.
type JWTAccessTokenService struct {
	SignedKeyID  string
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	// AccessTokenExp is applied when the claim set carries no exp. Zero means
	// DefaultAccessTokenExp.
	AccessTokenExp time.Duration
}

// DefaultAccessTokenExp default access token lifetime
const DefaultAccessTokenExp = 2 * time.Hour

// CreateAccessToken signs the claim set and returns the compact JWT.
func (a *JWTAccessTokenService) CreateAccessToken(ctx context.Context, claims map[string]interface{}) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	now := time.Now()
	if _, ok := mc["iat"]; !ok {
		mc["iat"] = now.Unix()
	}
	if _, ok := mc["exp"]; !ok {
		exp := a.AccessTokenExp
		if exp <= 0 {
			exp = DefaultAccessTokenExp
		}
		mc["exp"] = now.Add(exp).Unix()
	}

	token := jwt.NewWithClaims(a.SignedMethod, mc)
	if a.SignedKeyID != "" {
		token.Header["kid"] = a.SignedKeyID
	}
	var key interface{}
	if a.isEs() {
		v, err := jwt.ParseECPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return "", err
		}
		key = v
	} else if a.isRsOrPS() {
		v, err := jwt.ParseRSAPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return "", err
		}
		key = v
	} else if a.isHs() {
		key = a.SignedKey
	} else if a.isEd() {
		v, err := jwt.ParseEdPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return "", err
		}
		key = v
	} else {
		return "", errors.New("unsupported sign method")
	}

	return token.SignedString(key)
}

func (a *JWTAccessTokenService) isEs() bool {
	return strings.HasPrefix(a.SignedMethod.Alg(), "ES")
}

func (a *JWTAccessTokenService) isRsOrPS() bool {
	isRs := strings.HasPrefix(a.SignedMethod.Alg(), "RS")
	isPs := strings.HasPrefix(a.SignedMethod.Alg(), "PS")
	return isRs || isPs
}

func (a *JWTAccessTokenService) isHs() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "HS") }
func (a *JWTAccessTokenService) isEd() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "Ed") }
