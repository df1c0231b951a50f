package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// successPage is shown in the browser once the token exchange completes.
const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Complete</title>
    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center;
               height: 100vh; margin: 0; background: #fafafa; }
        main { text-align: center; background: #fff; padding: 2rem 3rem;
               border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.12); }
        h1 { color: #1DB954; margin-bottom: 0.5rem; }
        p { color: #555; }
    </style>
</head>
<body>
    <main>
        <h1>Authorization complete</h1>
        <p>Tracklink has your token. You can close this tab.</p>
    </main>
</body>
</html>
`

// OAuthResult carries the outcome of an authorization code flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the OAuth2 redirect endpoint during the authorization
// code flow and reports the outcome on a channel. It implements [Handler] so
// it can be mounted on a [Router].
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	claimed atomic.Bool
	done    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler creates a callback handler expecting the given CSRF state.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the paths this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// Result returns the channel the flow outcome is delivered on. Exactly one
// value is sent, then the channel is closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

// ServeHTTP validates the state parameter, exchanges the authorization code
// for a token, and delivers the outcome. Repeated callbacks are rejected.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.deliver(OAuthResult{err: fmt.Errorf("state parameter mismatch")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.deliver(OAuthResult{err: fmt.Errorf("authorization denied: %s (%s)",
			query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.deliver(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.deliver(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *OAuthHandler) deliver(result OAuthResult) {
	h.done.Do(func() {
		h.results <- result
		close(h.results)
	})
}
