package server

import (
	"fmt"
	"net/url"
	"time"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/errors"
)

// AuthorizationResponseData payload fields of a successful authorize
// response, encoded into the redirect per the response mode.
func AuthorizationResponseData(resp *AuthorizationResponse) map[string]interface{} {
	data := map[string]interface{}{
		"code": resp.Code,
	}
	if resp.State != "" {
		data["state"] = resp.State
	}
	return data
}

// AccessTokenResponseData payload fields of a successful token response,
// serialized as the JSON body.
func AccessTokenResponseData(resp *AccessTokenResponse) map[string]interface{} {
	data := map[string]interface{}{
		"access_token": resp.AccessToken,
		"token_type":   resp.TokenType,
	}
	if resp.ExpiresIn > 0 {
		data["expires_in"] = int64(resp.ExpiresIn / time.Second)
	}
	if resp.Scope != "" {
		data["scope"] = resp.Scope
	}
	for k, v := range resp.Extra {
		data[k] = v
	}
	return data
}

// ErrorData payload fields and HTTP status of an error response.
func ErrorData(resp *errors.Response) (map[string]interface{}, int) {
	status := resp.StatusCode
	if status == 0 {
		status = 400
	}
	return resp.Data(), status
}

// AuthorizationRedirectURL builds the redirect location for an authorize
// response, encoding the payload in the query or the fragment per the
// response mode.
func AuthorizationRedirectURL(resp *AuthorizationResponse) (string, error) {
	return redirectURL(resp.RedirectURI, resp.ResponseMode, AuthorizationResponseData(resp))
}

// AuthorizationErrorRedirectURL builds the redirect location for an error on
// the authorize endpoint. state, when present on the original request, is
// echoed back.
func AuthorizationErrorRedirectURL(redirectURI string, mode oid4vci.ResponseMode, state string, errResp *errors.Response) (string, error) {
	data, _ := ErrorData(errResp)
	if state != "" {
		data["state"] = state
	}
	return redirectURL(redirectURI, mode, data)
}

func redirectURL(redirectURI string, mode oid4vci.ResponseMode, data map[string]interface{}) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for k, v := range data {
		q.Set(k, fmt.Sprint(v))
	}

	switch mode {
	case oid4vci.ResponseModeFragment:
		u.RawQuery = ""
		fragment, err := url.QueryUnescape(q.Encode())
		if err != nil {
			return "", err
		}
		u.Fragment = fragment
	default:
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
