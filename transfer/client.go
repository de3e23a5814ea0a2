// Package transfer holds the strategies moving remote episodes into their working files.
package transfer

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// chunkSize is the read size between two checks of the cancellation flag
const chunkSize = 32 * 1024

// ClientOptions configures the shared HTTP client
type ClientOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
}

// NewClient builds a retrying HTTP client logging through zap.
// Timeout bounds the wait for response headers, never the body transfer.
func NewClient(opts ClientOptions, logger *zap.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.Logger = &leveledLogger{logger: logger.Named("http").Sugar()}

	if opts.Timeout > 0 {
		if transport, ok := client.HTTPClient.Transport.(*http.Transport); ok {
			transport.ResponseHeaderTimeout = opts.Timeout
		}
	}
	if opts.UserAgent != "" {
		client.HTTPClient.Transport = &userAgentTransport{
			base:      client.HTTPClient.Transport,
			userAgent: opts.UserAgent,
		}
	}
	return client
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	logger *zap.SugaredLogger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

// Debug is where retryablehttp logs every attempt
func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}
