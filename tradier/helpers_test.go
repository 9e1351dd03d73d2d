package tradier

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{AccountID: "ACC123", AccessToken: "tok_abc"}

// newTestClient starts a server running h and returns a client bound to it.
func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	client, err := NewClient(testCreds,
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	)
	require.NoError(t, err)
	return client
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// unreachable fails the test if the client sends anything.
func unreachable(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}
}
