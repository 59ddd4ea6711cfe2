package fake

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/journal"
)

const (
	// DefaultTimeout is the default request timeout of clients built by
	// NewClient.
	DefaultTimeout = 30 * time.Second

	// MaxRedirects matches the net/http default policy.
	MaxRedirects = 10
)

type clientConfig struct {
	timeout        time.Duration
	followRedirect bool
	metadata       map[string]any
	journal        *journal.Journal
	logger         *zap.Logger
}

type ClientOption func(*clientConfig)

// WithTimeout sets the client timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithFollowRedirects controls whether the client follows 3xx responses.
func WithFollowRedirects(follow bool) ClientOption {
	return func(c *clientConfig) {
		c.followRedirect = follow
	}
}

// WithMetadata seeds the environment of every server request.
func WithMetadata(metadata map[string]any) ClientOption {
	return func(c *clientConfig) {
		for k, v := range metadata {
			c.metadata[k] = v
		}
	}
}

// WithJournal records every dispatch in j.
func WithJournal(j *journal.Journal) ClientOption {
	return func(c *clientConfig) {
		c.journal = j
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = l
	}
}

func newClientConfig(opts []ClientOption) *clientConfig {
	c := &clientConfig{
		timeout:        DefaultTimeout,
		followRedirect: true,
		metadata:       make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	return c
}

func (c *clientConfig) transport(handler Handler) *Transport {
	return &Transport{
		handler:  handler,
		metadata: c.metadata,
		journal:  c.journal,
		logger:   c.logger,
	}
}

// NewClient returns an *http.Client whose requests are served by handler.
func NewClient(handler Handler, opts ...ClientOption) *http.Client {
	c := newClientConfig(opts)

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", MaxRedirects)
		}
		return nil
	}

	return &http.Client{
		Transport:     c.transport(handler),
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}
}
