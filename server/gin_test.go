package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/models"
	"github.com/legit-games/oid4vci/store"
)

const testRedirectURI = "http://localhost:9098/oauth2"

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clients := store.NewClientStore()
	clients.Set("111111", &models.Client{
		ID:           "111111",
		RedirectURIs: []string{testRedirectURI},
		Public:       true,
	})

	p, err := NewProvider(
		WithIssuer("https://issuer.example"),
		WithClientStore(clients),
	)
	if err != nil {
		t.Fatal(err)
	}

	srv := NewHTTPServer(p, func(w http.ResponseWriter, r *http.Request) (oid4vci.SessionInfo, error) {
		return models.NewSession("000000", nil), nil
	})
	return NewGinEngine(srv)
}

func TestGinAuthorizeCodeFlow(t *testing.T) {
	tsrv := httptest.NewServer(newTestEngine(t))
	defer tsrv.Close()

	e := httpexpect.Default(t, tsrv.URL)

	loc := e.GET("/oauth/authorize").
		WithQuery("response_type", "code").
		WithQuery("client_id", "111111").
		WithQuery("scope", "openid").
		WithQuery("state", "123").
		WithQuery("redirect_uri", testRedirectURI).
		WithRedirectPolicy(httpexpect.DontFollowRedirects).
		Expect().
		Status(http.StatusFound).
		Header("Location").Raw()

	u, err := url.Parse(loc)
	if err != nil {
		t.Fatal(err)
	}
	code := u.Query().Get("code")
	if code == "" {
		t.Fatalf("no code in redirect: %s", loc)
	}
	if u.Query().Get("state") != "123" {
		t.Fatalf("state not echoed: %s", loc)
	}

	resObj := e.POST("/oauth/token").
		WithFormField("redirect_uri", testRedirectURI).
		WithFormField("code", code).
		WithFormField("grant_type", "authorization_code").
		WithFormField("client_id", "111111").
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	resObj.Value("access_token").String().NotEmpty()
	resObj.Value("token_type").String().IsEqual("Bearer")
	resObj.Value("scope").String().IsEqual("openid")

	// codes are one-time: replaying the exchange fails
	resObj = e.POST("/oauth/token").
		WithFormField("redirect_uri", testRedirectURI).
		WithFormField("code", code).
		WithFormField("grant_type", "authorization_code").
		WithFormField("client_id", "111111").
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object()
	resObj.Value("error").String().IsEqual("invalid_grant")
}

func TestGinAuthorizeErrorRedirect(t *testing.T) {
	tsrv := httptest.NewServer(newTestEngine(t))
	defer tsrv.Close()

	e := httpexpect.Default(t, tsrv.URL)

	loc := e.GET("/oauth/authorize").
		WithQuery("response_type", "token").
		WithQuery("client_id", "111111").
		WithQuery("state", "123").
		WithQuery("redirect_uri", testRedirectURI).
		WithRedirectPolicy(httpexpect.DontFollowRedirects).
		Expect().
		Status(http.StatusFound).
		Header("Location").Raw()

	u, err := url.Parse(loc)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("error") != "unsupported_response_type" {
		t.Fatalf("error not delivered to redirect uri: %s", loc)
	}
	if u.Query().Get("state") != "123" {
		t.Fatalf("state not echoed on error: %s", loc)
	}
}

func TestGinTokenEndpointErrors(t *testing.T) {
	tsrv := httptest.NewServer(newTestEngine(t))
	defer tsrv.Close()

	e := httpexpect.Default(t, tsrv.URL)

	resObj := e.POST("/oauth/token").
		WithFormField("grant_type", "client_credentials").
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object()
	resObj.Value("error").String().IsEqual("unsupported_grant_type")

	resObj = e.POST("/oauth/token").
		WithFormField("grant_type", "authorization_code").
		WithFormField("client_id", "111111").
		WithFormField("code", "no-such-code").
		WithFormField("redirect_uri", testRedirectURI).
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object()
	resObj.Value("error").String().IsEqual("invalid_grant")
}
