package tradier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// LiveURL is the production brokerage API.
	LiveURL = "https://api.tradier.com/v1"
	// SandboxURL is Tradier's paper trading API.
	SandboxURL = "https://sandbox.tradier.com/v1"

	defaultUserAgent = "rustyeddy-tradier/1.0"

	// maxErrorBody bounds how much of a response body an error message quotes.
	// The Body fields themselves are never cut.
	maxErrorBody = 64 * 1024
)

// BaseURL maps an environment name to its API root.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "live", "production", "prod":
		return LiveURL, nil
	case "sandbox", "paper":
		return SandboxURL, nil
	default:
		return "", &ConfigurationError{Field: "environment", Reason: fmt.Sprintf("unknown tradier env %q (want live|sandbox)", env)}
	}
}

// Credentials identify the account and authorize every request.
type Credentials struct {
	AccountID   string
	AccessToken string
}

// Validate reports the first missing credential.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.AccountID) == "" {
		missing = append(missing, "account id")
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		missing = append(missing, "access token")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Field: "credentials", Reason: "missing " + strings.Join(missing, " and ")}
	}
	return nil
}

// String never prints the token.
func (c Credentials) String() string {
	tok := "<empty>"
	if c.AccessToken != "" {
		tok = "<redacted>"
	}
	return fmt.Sprintf("account=%s token=%s", c.AccountID, tok)
}

// Client is an authenticated gateway to the Tradier brokerage API.
// It holds no mutable state after NewClient returns and may be shared
// between goroutines.
type Client struct {
	creds   Credentials
	baseURL string
	http    *resty.Client
	log     logrus.FieldLogger
}

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
	userAgent  string
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL points the client at another API root, e.g. SandboxURL or a
// test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient supplies the underlying transport. Timeouts, proxies and
// connection pooling are configured here.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// NewClient validates creds and builds a client. It never reads the
// environment and never touches the network.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	o := options{
		baseURL:   LiveURL,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(o.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Field: "base url", Reason: fmt.Sprintf("invalid url %q", o.baseURL)}
	}

	if o.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		o.logger = discard
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.NewWithClient(&http.Client{Timeout: 30 * time.Second})
	}
	rc.SetBaseURL(strings.TrimSuffix(o.baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bearer "+creds.AccessToken).
		SetHeader("User-Agent", o.userAgent).
		SetLogger(o.logger).
		SetRetryCount(0)

	return &Client{
		creds:   creds,
		baseURL: strings.TrimSuffix(o.baseURL, "/"),
		http:    rc,
		log:     o.logger,
	}, nil
}

// AccountID is the account every account-scoped call targets.
func (c *Client) AccountID() string { return c.creds.AccountID }

// BaseURL reports the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) accountPath(suffix string) string {
	return "/accounts/" + url.PathEscape(c.creds.AccountID) + suffix
}

// call describes one HTTP exchange.
type call struct {
	method string
	path   string
	query  url.Values
	form   url.Values
}

// do sends the request and classifies the status. On success the raw body
// is returned; every failure is one of the package's typed errors.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(cl.query) > 0 {
		req.SetQueryParamsFromValues(cl.query)
	}
	if cl.form != nil {
		req.SetFormDataFromValues(cl.form)
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method": cl.method,
			"path":   cl.path,
		}).WithError(err).Debug("tradier request failed")
		return nil, &TransportError{Method: cl.method, Path: cl.path, Err: errors.Wrap(err, "execute request")}
	}

	status := resp.StatusCode()
	c.log.WithFields(logrus.Fields{
		"method":  cl.method,
		"path":    cl.path,
		"status":  status,
		"elapsed": time.Since(start),
	}).Debug("tradier request")

	body := resp.Body()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &AuthenticationError{StatusCode: status, Body: string(body)}
	case status < 200 || status > 299:
		return nil, newAPIError(status, body)
	}
	return body, nil
}

// truncate shortens a body for use in an error message.
func truncate(s string) string {
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return strings.TrimSpace(s)
}
