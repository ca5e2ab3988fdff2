package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/legit-games/oid4vci/offer"
)

var (
	authBaseURL = env("OID4VCI_AUTH_BASE_URL", "http://localhost:9096")
	clientID    = env("OID4VCI_CLIENT_ID", "222222")
	secret      = env("OID4VCI_CLIENT_SECRET", "22222222")
	portvar     = env("OID4VCI_CLIENT_PORT", "9098")
)

var oauthCfg oauth2.Config

func main() {
	oauthCfg = oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		RedirectURL:  "http://localhost:" + portvar + "/oauth2",
		Scopes:       []string{"credential"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authBaseURL + "/oauth/authorize",
			TokenURL: authBaseURL + "/oauth/token",
		},
	}

	http.HandleFunc("/", handleIndex)
	http.HandleFunc("/oauth2", handleCallback)
	http.HandleFunc("/offer", handleOffer)

	log.Printf("Wallet example client running at http://localhost:%s", portvar)
	log.Fatal(http.ListenAndServe(":"+portvar, nil))
}

// handleIndex starts the authorization code flow.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	u := oauthCfg.AuthCodeURL("xyz")
	http.Redirect(w, r, u, http.StatusFound)
}

// handleCallback exchanges the code for an access token.
func handleCallback(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	if state := r.Form.Get("state"); state != "xyz" {
		http.Error(w, "State invalid", http.StatusBadRequest)
		return
	}
	code := r.Form.Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}
	token, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, token)
}

// handleOffer accepts a credential offer URL, parses it, and redeems its
// pre-authorized code at the token endpoint.
func handleOffer(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	offerURL := r.Form.Get("credential_offer_uri")
	if offerURL == "" {
		http.Error(w, "credential_offer_uri is required", http.StatusBadRequest)
		return
	}
	co, err := offer.Parse(offerURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if co.Grants == nil || co.Grants.PreAuthorizedCode == nil {
		http.Error(w, "offer carries no pre-authorized code grant", http.StatusBadRequest)
		return
	}

	form := url.Values{
		"grant_type":          {"pre-authorized_code"},
		"pre-authorized_code": {co.Grants.PreAuthorizedCode.PreAuthorizedCode},
	}
	if pin := r.Form.Get("user_pin"); pin != "" {
		form.Set("user_pin", pin)
	}
	resp, err := http.PostForm(authBaseURL+"/oauth/token", form)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var tokenResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, tokenResp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
