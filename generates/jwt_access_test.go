package generates

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAccessTokenService(t *testing.T) {
	svc := NewJWTAccessTokenService("key-1", []byte("00000000"), jwt.SigningMethodHS512)

	raw, err := svc.CreateAccessToken(context.Background(), map[string]interface{}{
		"sub":       "user-1",
		"iss":       "https://issuer.example",
		"client_id": "client-1",
		"scope":     "openid credential",
	})
	if err != nil {
		t.Fatal(err)
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte("00000000"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if tok.Header["kid"] != "key-1" {
		t.Fatalf("kid header missing: %v", tok.Header)
	}
	if claims["sub"] != "user-1" || claims["iss"] != "https://issuer.example" {
		t.Fatalf("claims lost: %v", claims)
	}
	if claims["scope"] != "openid credential" {
		t.Fatalf("scope claim lost: %v", claims)
	}

	// iat/exp stamped by the service
	iat, ok := claims["iat"].(float64)
	if !ok {
		t.Fatal("iat not stamped")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatal("exp not stamped")
	}
	if time.Duration(exp-iat)*time.Second != DefaultAccessTokenExp {
		t.Fatalf("unexpected token lifetime: %v", exp-iat)
	}
}

func TestJWTAccessTokenServiceUnsupportedMethod(t *testing.T) {
	svc := NewJWTAccessTokenService("", []byte("x"), jwt.SigningMethodNone)
	if _, err := svc.CreateAccessToken(context.Background(), map[string]interface{}{"sub": "u"}); err == nil {
		t.Fatal("none algorithm should be rejected")
	}
}

func TestOpaqueAccessTokenService(t *testing.T) {
	svc := NewOpaqueAccessTokenService()

	claims := map[string]interface{}{"sub": "user-1", "client_id": "client-1"}
	t1, err := svc.CreateAccessToken(context.Background(), claims)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := svc.CreateAccessToken(context.Background(), claims)
	if err != nil {
		t.Fatal(err)
	}
	if t1 == "" || t2 == "" {
		t.Fatal("empty token")
	}
	if t1 == t2 {
		t.Fatal("tokens must be unique per issuance")
	}
}
