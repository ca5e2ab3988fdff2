package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
)

// SessionResolver resolves the authenticated end-user session for an
// authorize request. Returning a nil session with a nil error means the
// resolver already wrote a response (e.g. a login redirect) and processing
// stops.
type SessionResolver func(w http.ResponseWriter, r *http.Request) (oid4vci.SessionInfo, error)

// HTTPServer exposes the provider's lifecycle operations over HTTP.
type HTTPServer struct {
	Provider       *Provider
	ResolveSession SessionResolver
}

// NewHTTPServer create an HTTP binding for the provider.
func NewHTTPServer(p *Provider, resolve SessionResolver) *HTTPServer {
	return &HTTPServer{Provider: p, ResolveSession: resolve}
}

// NewGinEngine builds a Gin router and registers the authorize and token
// endpoints.
func NewGinEngine(s *HTTPServer) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(parseFormMiddleware())

	// /oauth/authorize with session form restore middleware after login redirects
	r.GET("/oauth/authorize", restoreAuthorizeFormMiddleware(), ginFrom(s.HandleAuthorizeRequest))
	r.POST("/oauth/authorize", restoreAuthorizeFormMiddleware(), ginFrom(s.HandleAuthorizeRequest))

	r.POST("/oauth/token", ginFrom(s.HandleTokenRequest))

	return r
}

// HandleAuthorizeRequest the authorize request handling
func (s *HTTPServer) HandleAuthorizeRequest(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if r.Form == nil {
		_ = r.ParseForm()
	}
	req, errResp := s.Provider.CreateAuthorizationRequest(ctx, r.Form)
	if errResp != nil {
		return s.authorizeError(w, r.Form.Get("redirect_uri"), r.Form.Get("state"), errResp)
	}

	sess, err := s.ResolveSession(w, r)
	if err != nil {
		return err
	}
	if sess == nil {
		// resolver redirected to login
		return nil
	}

	resp, errResp := s.Provider.CreateAuthorizationResponse(ctx, req, sess)
	if errResp != nil {
		return s.authorizeError(w, req.RedirectURI, req.State, errResp)
	}

	location, err := AuthorizationRedirectURL(resp)
	if err != nil {
		return err
	}
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
	return nil
}

// HandleTokenRequest the token request handling
func (s *HTTPServer) HandleTokenRequest(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if r.Form == nil {
		_ = r.ParseForm()
	}
	req, errResp := s.Provider.CreateAccessTokenRequest(ctx, r.Form)
	if errResp == nil {
		var resp *AccessTokenResponse
		resp, errResp = s.Provider.CreateAccessTokenResponse(ctx, req)
		if errResp == nil {
			return writeJSON(w, AccessTokenResponseData(resp), http.StatusOK)
		}
	}

	data, status := ErrorData(errResp)
	return writeJSON(w, data, status)
}

// authorizeError delivers an authorize error to the redirect URI when there
// is one; otherwise it answers directly with JSON.
func (s *HTTPServer) authorizeError(w http.ResponseWriter, redirectURI, state string, errResp *errors.Response) error {
	if redirectURI != "" {
		location, err := AuthorizationErrorRedirectURL(redirectURI, s.Provider.Config.DefaultResponseMode, state, errResp)
		if err == nil {
			w.Header().Set("Location", location)
			w.WriteHeader(http.StatusFound)
			return nil
		}
	}
	data, status := ErrorData(errResp)
	return writeJSON(w, data, status)
}

func writeJSON(w http.ResponseWriter, data map[string]interface{}, status int) error {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func ginFrom(h func(http.ResponseWriter, *http.Request) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = h(c.Writer, c.Request)
		c.Abort()
	}
}

// parseFormMiddleware ensures r.ParseForm() is called for urlencoded/multipart requests so r.FormValue works.
func parseFormMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		ct := r.Header.Get("Content-Type")
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if ct != "" {
				if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
					_ = r.ParseForm()
				}
			}
		}
		c.Next()
	}
}

// restoreAuthorizeFormMiddleware restores saved authorize request form from session after login redirects.
func restoreAuthorizeFormMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if store, err := session.Start(c.Request.Context(), c.Writer, c.Request); err == nil {
			if v, ok := store.Get("ReturnUri"); ok {
				if form, ok2 := v.(map[string][]string); ok2 {
					c.Request.Form = form
				} else if vals, ok2 := v.(url.Values); ok2 {
					c.Request.Form = vals
				}
				store.Delete("ReturnUri")
				_ = store.Save()
			}
		}
		c.Next()
	}
}
