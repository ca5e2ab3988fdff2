package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/legit-games/oid4vci"
	"github.com/legit-games/oid4vci/config"
	"github.com/legit-games/oid4vci/generates"
	"github.com/legit-games/oid4vci/migrate"
	"github.com/legit-games/oid4vci/models"
	"github.com/legit-games/oid4vci/offer"
	"github.com/legit-games/oid4vci/preauth"
	"github.com/legit-games/oid4vci/server"
	"github.com/legit-games/oid4vci/store"
)

var (
	dumpvar   bool
	idvar     string
	secretvar string
	redirvar  string
	portvar   int
)

func init() {
	flag.BoolVar(&dumpvar, "d", true, "Dump requests and responses")
	flag.StringVar(&idvar, "i", "222222", "The client id being passed in")
	flag.StringVar(&secretvar, "s", "22222222", "The client secret being passed in")
	flag.StringVar(&redirvar, "r", "http://localhost:9098/oauth2", "The redirect url of the client")
	flag.IntVar(&portvar, "p", 9096, "the base port for the server")
}

func main() {
	flag.Parse()
	if dumpvar {
		log.Println("Dumping requests")
	}

	// Optionally run DB migrations before the server starts. Configure via
	// environment variables (see migrate.RunFromEnv docs):
	// MIGRATE_ON_START=1 MIGRATE_DRIVER=sqlite MIGRATE_DSN=./oid4vci.db
	if err := migrate.RunFromEnv(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	appCfg := config.GetConfig()

	// code store: prefer Valkey when configured; else memory
	var codeOpts []server.ProviderOption
	if addr := appCfg.ValkeyAddr(); addr != "" {
		if vs, err := store.NewValkeyCodeStore(addr, "oid4vci:"); err == nil {
			log.Printf("Using Valkey code store at %s", addr)
			codeOpts = append(codeOpts,
				server.WithAuthorizationCodeRepository(vs),
				server.WithPreAuthorizedCodeRepository(vs.PreAuthorized()),
			)
		} else {
			log.Printf("Valkey not available (%v), falling back to memory store", err)
		}
	}

	clientStore := store.NewClientStore()
	clientStore.Set(idvar, &models.Client{
		ID:           idvar,
		Secret:       secretvar,
		RedirectURIs: []string{redirvar},
	})
	log.Printf("Registered client: id=%s redirect_uri=%s", idvar, redirvar)

	opts := append([]server.ProviderOption{
		server.WithConfig(appCfg.ServerConfig()),
		server.WithIssuer(fmt.Sprintf("http://localhost:%d", portvar)),
		server.WithClientStore(clientStore),
		server.WithTokenService(generates.NewJWTAccessTokenService("", []byte("00000000"), jwt.SigningMethodHS512)),
	}, codeOpts...)

	provider, err := server.NewProvider(opts...)
	if err != nil {
		log.Fatalf("provider setup failed: %v", err)
	}

	srv := server.NewHTTPServer(provider, userSessionResolver)
	engine := server.NewGinEngine(srv)

	engine.GET("/login", func(c *gin.Context) { loginHandler(c.Writer, c.Request) })
	engine.POST("/login", func(c *gin.Context) { loginHandler(c.Writer, c.Request) })
	engine.GET("/auth", func(c *gin.Context) { authHandler(c.Writer, c.Request) })

	// Issue a pre-authorized code and return it as a credential offer.
	engine.POST("/offers/pre-authorized", func(c *gin.Context) {
		issued, err := provider.IssuePreAuthorizedCode(c.Request.Context(), preauth.IssueRequest{
			ClientID: idvar,
			Scopes:   []string{"credential"},
			Session:  models.NewSession("test", nil),
			UserPIN:  c.PostForm("user_pin"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		var txCode *offer.TxCode
		if c.PostForm("user_pin") != "" {
			txCode = &offer.TxCode{InputMode: "numeric", Description: "PIN sent out of band"}
		}
		co := offer.WithPreAuthorizedCodeGrant(provider.Issuer, []string{"ExampleCredential"}, issued.Code, txCode)
		uri, err := co.ToURL()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"credential_offer":     co,
			"credential_offer_uri": uri,
			"c_nonce":              issued.CredentialNonce,
		})
	})

	log.Printf("Server is running at %d port.", portvar)
	log.Printf("Authorize endpoint: http://localhost:%d/oauth/authorize", portvar)
	log.Printf("Token endpoint: http://localhost:%d/oauth/token", portvar)
	log.Fatal(engine.Run(fmt.Sprintf(":%d", portvar)))
}

func dumpRequest(writer io.Writer, header string, r *http.Request) error {
	data, err := httputil.DumpRequest(r, true)
	if err != nil {
		return err
	}
	writer.Write([]byte("\n" + header + ": \n"))
	writer.Write(data)
	return nil
}

// userSessionResolver resolves the logged-in user from the web session,
// redirecting to /login when there is none.
func userSessionResolver(w http.ResponseWriter, r *http.Request) (oid4vci.SessionInfo, error) {
	if dumpvar {
		_ = dumpRequest(os.Stdout, "userSessionResolver", r)
	}
	sessStore, err := session.Start(r.Context(), w, r)
	if err != nil {
		return nil, err
	}

	uid, ok := sessStore.Get("LoggedInUserID")
	if !ok {
		if r.Form == nil {
			r.ParseForm()
		}
		sessStore.Set("ReturnUri", r.Form)
		sessStore.Save()

		w.Header().Set("Location", "/login")
		w.WriteHeader(http.StatusFound)
		return nil, nil
	}

	sessStore.Delete("LoggedInUserID")
	sessStore.Save()
	return models.NewSession(uid.(string), nil), nil
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	if dumpvar {
		_ = dumpRequest(os.Stdout, "login", r)
	}
	sessStore, err := session.Start(r.Context(), w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Method == "POST" {
		if r.Form == nil {
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		if r.Form.Get("username") == "test" && r.Form.Get("password") == "test" {
			sessStore.Set("LoggedInUserID", r.Form.Get("username"))
			sessStore.Save()

			w.Header().Set("Location", "/auth")
			w.WriteHeader(http.StatusFound)
			return
		}
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	outputHTML(w, r, "static/login.html")
}

func authHandler(w http.ResponseWriter, r *http.Request) {
	if dumpvar {
		_ = dumpRequest(os.Stdout, "auth", r)
	}
	sessStore, err := session.Start(context.Background(), w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, ok := sessStore.Get("LoggedInUserID"); !ok {
		w.Header().Set("Location", "/login")
		w.WriteHeader(http.StatusFound)
		return
	}

	outputHTML(w, r, "static/auth.html")
}

func outputHTML(w http.ResponseWriter, req *http.Request, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer file.Close()
	fi, _ := file.Stat()
	http.ServeContent(w, req, file.Name(), fi.ModTime(), file)
}
