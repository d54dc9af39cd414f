package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/setlistify/internal/shared"
)

// DefaultCallbackPath is served when the redirect URI has no path of its own.
const DefaultCallbackPath = "/callback"

// CompleteFunc finishes authorization with the code from the callback.
type CompleteFunc func(ctx context.Context, code string) error

// OAuthResult is the outcome of one callback.
type OAuthResult struct {
	err error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the authorization code redirect for a single login attempt.
//
// Only the first request is processed. Its outcome is sent on [OAuthHandler.Result].
type OAuthHandler struct {
	path     string
	state    string
	complete CompleteFunc
	served   atomic.Bool
	once     sync.Once
	result   chan OAuthResult
}

// NewOAuthHandler creates a handler that expects state and finishes with complete.
func NewOAuthHandler(state string, complete CompleteFunc) *OAuthHandler {
	return &OAuthHandler{
		path:     DefaultCallbackPath,
		state:    state,
		complete: complete,
		result:   make(chan OAuthResult, 1),
	}
}

// CallbackPath returns the path component of redirectURI, or [DefaultCallbackPath].
func CallbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return DefaultCallbackPath
	}
	return u.Path
}

func (h *OAuthHandler) Routes() []string {
	return []string{http.MethodGet + " " + h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.served.CompareAndSwap(false, true) {
		writePage(w, http.StatusConflict, false, "This login link was already used. Return to setlistify.")
		return
	}

	status, err := h.handle(r)
	h.Send(OAuthResult{err: err})
	if err != nil {
		writePage(w, status, false, err.Error())
		return
	}
	writePage(w, http.StatusOK, true, "You can close this window and return to setlistify.")
}

func (h *OAuthHandler) handle(r *http.Request) (int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return http.StatusBadRequest, shared.ErrInvalidState
	}

	code := q.Get("code")
	if reason := q.Get("error"); reason != "" || code == "" {
		detail := strings.TrimSpace(reason + " " + q.Get("error_description"))
		return http.StatusBadRequest, fmt.Errorf("authorization failed: %s", detail)
	}

	if err := h.complete(r.Context(), code); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err)
	}
	return http.StatusOK, nil
}

// Send delivers result unless a result was already sent.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

func writePage(w http.ResponseWriter, status int, ok bool, message string) {
	title := "Spotify Connected"
	if !ok {
		title = "Spotify Not Connected"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page.Execute(w, struct {
		Title   string
		Message string
		OK      bool
	}{title, message, ok})
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        h1.ok { color: #1DB954; }
        h1.err { color: #E22134; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 class="{{if .OK}}ok{{else}}err{{end}}">{{if .OK}}✓{{else}}✗{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))
