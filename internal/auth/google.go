package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/abhisek/studywise/internal/student"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig configures Google sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string

	// Prompt is handed the consent URL. It should open it in a browser or
	// show it to the user.
	Prompt func(authURL string) error

	Logger *zap.Logger
}

// GoogleProvider signs users in with Google using the authorization code
// flow with PKCE and a loopback redirect.
type GoogleProvider struct {
	*identityState
	oauth       oauth2.Config
	userInfoURL string
	prompt      func(string) error
	logger      *zap.Logger
}

// NewGoogleProvider returns a Google provider persisting its identity under
// dir.
func NewGoogleProvider(dir string, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google sign-in needs a client id")
	}
	if cfg.Prompt == nil {
		return nil, errors.New("google sign-in needs a prompt")
	}
	state, err := newIdentityState(dir)
	if err != nil {
		return nil, err
	}
	p := &GoogleProvider{
		identityState: state,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
		prompt:      cfg.Prompt,
		logger:      cfg.Logger,
	}
	if cfg.Endpoint.TokenURL != "" {
		p.oauth.Endpoint = cfg.Endpoint
	}
	if cfg.UserInfoURL != "" {
		p.userInfoURL = cfg.UserInfoURL
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

type callbackResult struct {
	code string
	err  error
}

func (p *GoogleProvider) SignIn(ctx context.Context) (*student.Identity, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}

	cfg := p.oauth
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr())
	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           p.callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	if err := p.prompt(authURL); err != nil {
		return nil, fmt.Errorf("open consent page: %w", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	id, err := p.fetchUser(ctx, &cfg, token)
	if err != nil {
		return nil, err
	}
	if err := p.set(id); err != nil {
		return nil, err
	}
	p.logger.Info("signed in with google", zap.String("uid", id.UID))
	return id, nil
}

func (p *GoogleProvider) SignOut(context.Context) error {
	return p.set(nil)
}

func (p *GoogleProvider) callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
			return
		case q.Get("error") == "access_denied":
			res.err = ErrSignInCancelled
		case q.Get("error") != "":
			res.err = fmt.Errorf("google sign-in: %s", q.Get("error"))
		case q.Get("code") == "":
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
			http.Error(w, "Sign-in already completed", http.StatusConflict)
			return
		}
		if res.err != nil {
			fmt.Fprintln(w, "Sign-in was not completed. You can close this window.")
			return
		}
		fmt.Fprintln(w, "Signed in to StudyWise. You can close this window.")
	})
	return mux
}

func (p *GoogleProvider) fetchUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*student.Identity, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch google user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch google user info: status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google user info: %w", err)
	}
	if payload.ID == "" {
		return nil, errors.New("google user info has no id")
	}
	return &student.Identity{
		UID:         payload.ID,
		DisplayName: payload.Name,
		Email:       payload.Email,
		PhotoURL:    payload.Picture,
	}, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
