package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"bp-cli/internal/protocol"
	"bp-cli/internal/util"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrStreamRejected marks a stream request refused before any event was
// delivered.
var ErrStreamRejected = errors.New("stream request rejected")

// Source yields protocol events for an outbound message. Implemented by
// Client and by MockSource.
type Source interface {
	Send(ctx context.Context, sessionID, message string) iter.Seq2[protocol.Event, error]
}

// Client opens streaming requests against the design-session backend and
// exposes each response body as a lazy, pull-based event sequence. The
// consumer controls pacing; breaking out of the range stops production
// and releases the response body.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// NewClient constructs a streaming client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	// Streaming responses stay open indefinitely; cancellation comes from
	// the request context.
	client.HTTPClient.Timeout = 0
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client, logger: logger}
}

// Send opens the chat stream for a session and yields its events. The
// chat endpoint uses blank-line record framing.
//
// Failures before the first event surface as a yielded error; read
// failures after at least one event end the sequence quietly, keeping
// whatever state the consumer already folded.
func (c *Client) Send(ctx context.Context, sessionID, message string) iter.Seq2[protocol.Event, error] {
	return func(yield func(protocol.Event, error) bool) {
		body, err := json.Marshal(map[string]string{"message": message})
		if err != nil {
			yield(protocol.Event{}, err)
			return
		}
		endpoint := c.baseURL + "/sessions/" + url.PathEscape(sessionID) + "/stream"
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			yield(protocol.Event{}, fmt.Errorf("build stream request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("X-Request-ID", uuid.NewString())
		c.consume(req, &RecordDecoder{}, yield)
	}
}

// Watch follows the session's ambient event feed. The feed endpoint uses
// marker-prefixed line framing but carries the same event taxonomy as
// the chat stream.
func (c *Client) Watch(ctx context.Context, sessionID string) iter.Seq2[protocol.Event, error] {
	return func(yield func(protocol.Event, error) bool) {
		endpoint := c.baseURL + "/sessions/" + url.PathEscape(sessionID) + "/events"
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			yield(protocol.Event{}, fmt.Errorf("build watch request: %w", err))
			return
		}
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("X-Request-ID", uuid.NewString())
		c.consume(req, &LineDecoder{}, yield)
	}
}

func (c *Client) consume(req *retryablehttp.Request, dec Decoder, yield func(protocol.Event, error) bool) {
	resp, err := c.http.Do(req)
	if err != nil {
		yield(protocol.Event{}, fmt.Errorf("open stream: %w", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		yield(protocol.Event{}, fmt.Errorf("%w: status %d: %s", ErrStreamRejected, resp.StatusCode, util.Snippet(resp.Body, 4096)))
		return
	}
	c.pump(resp.Body, dec, yield)
}

// pump drains the response body through the decoder. A malformed frame is
// dropped without ending the stream; only transport failures end it.
func (c *Client) pump(body io.Reader, dec Decoder, yield func(protocol.Event, error) bool) {
	delivered := 0
	emit := func(frames []Frame) bool {
		for _, fr := range frames {
			ev, ok := protocol.ParseFrame(fr.Name, fr.Data)
			if !ok {
				c.logger.Debug("dropping malformed frame", zap.String("data", util.Preview(fr.Data, 1, 256)))
				continue
			}
			if !yield(ev, nil) {
				return false
			}
			delivered++
		}
		return true
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !emit(dec.Feed(string(buf[:n]))) {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				emit(dec.Flush())
				return
			}
			if delivered > 0 {
				// Soft completion: the consumer already holds folded
				// state from this turn, so the sequence ends quietly.
				c.logger.Warn("stream read failed after partial delivery",
					zap.Int("events_delivered", delivered), zap.Error(err))
				return
			}
			yield(protocol.Event{}, fmt.Errorf("stream read: %w", err))
			return
		}
	}
}
