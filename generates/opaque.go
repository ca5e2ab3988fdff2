package generates

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// NewOpaqueAccessTokenService create an opaque token service. Tokens carry no
// claims on the wire; the claim set only seeds the uuid namespace so tokens
// for different subjects and clients never collide.
func NewOpaqueAccessTokenService() *OpaqueAccessTokenService {
	return &OpaqueAccessTokenService{}
}

// OpaqueAccessTokenService generate the opaque access token
type OpaqueAccessTokenService struct{}

// CreateAccessToken based on the UUID generated token
func (g *OpaqueAccessTokenService) CreateAccessToken(ctx context.Context, claims map[string]interface{}) (string, error) {
	var seed strings.Builder
	if sub, ok := claims["sub"].(string); ok {
		seed.WriteString(sub)
	}
	if cid, ok := claims["client_id"].(string); ok {
		seed.WriteString(cid)
	}
	t := uuid.NewSHA1(uuid.Must(uuid.NewRandom()), []byte(seed.String())).String()
	token := base64.URLEncoding.EncodeToString([]byte(t))
	return strings.ToUpper(strings.TrimRight(token, "=")), nil
}
