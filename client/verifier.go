package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/pushstream/contract-tests/framework"
)

const (
	DefaultRequestTimeout = time.Second * 30
	chunkBufferSize       = 4096
)

// Verifier sends requests to the server under test and checks the responses.
//
// Each call runs its own event loop from start to finish and returns only after that loop has
// stopped, so calls never overlap unless the caller nests one inside another's callback.
type Verifier struct {
	baseURL    string
	httpClient *http.Client
	logger     framework.Logger

	// RequestTimeout limits single-shot calls such as Publish, and subscriptions that do not
	// set their own timeout. It must be longer than any keep-alive timeout in the server
	// configuration.
	RequestTimeout time.Duration
}

// PublishResult is what the server said about a published message.
type PublishResult struct {
	Status  int
	Body    string
	Channel string
}

// ChunkHandler is called for each piece of data received on a subscriber stream, in arrival
// order. It returns true once it has seen everything it was waiting for, which ends the
// call successfully; a non-nil error ends the call with that error.
type ChunkHandler func(chunk string) (done bool, err error)

// SubscribeOptions are the parameters for Subscribe.
type SubscribeOptions struct {
	Headers map[string]string

	// Timeout limits the whole subscription, from connecting to the last chunk. If it is not
	// positive, the Verifier's RequestTimeout is used.
	Timeout time.Duration

	// OnConnected, if set, is called when the response headers have arrived and before any
	// chunk is passed to the ChunkHandler.
	OnConnected func()
}

func NewVerifier(baseURL string, logger framework.Logger) *Verifier {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Verifier{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{},
		logger:         logger,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// PublishURL is the URL that a message for the channel is posted to.
func (v *Verifier) PublishURL(channel string) string {
	return v.baseURL + "/pub?id=" + url.QueryEscape(channel)
}

// SubscribeURL is the URL of the subscriber stream for a channel path. The path may name
// several channels separated by slashes.
func (v *Verifier) SubscribeURL(channelPath string) string {
	return v.baseURL + "/sub/" + channelPath
}

// StatsURL is the URL of the statistics for a channel, or of the summary if channel is empty.
func (v *Verifier) StatsURL(channel string) string {
	if channel == "" {
		return v.baseURL + "/channels_stats"
	}
	return v.baseURL + "/channels_stats?id=" + url.QueryEscape(channel)
}

// Publish posts a message and checks that the server accepted it: the status must be 200,
// the body must not be empty, and the body's "channel" property must equal the channel.
func (v *Verifier) Publish(
	ctx context.Context,
	channel string,
	headers map[string]string,
	body string,
) (PublishResult, error) {
	var result PublishResult
	target := v.PublishURL(channel)
	err := v.exchange(ctx, "POST", target, headers, body, func(status int, data []byte) error {
		result = PublishResult{Status: status, Body: string(data)}
		fail := func(message string) error {
			return &AssertionError{URL: target, Message: message, Status: status, Body: string(data)}
		}
		if status != http.StatusOK {
			return fail("request was not accepted")
		}
		if len(data) == 0 {
			return fail("empty response was received")
		}
		result.Channel = JSONText(ldvalue.Parse(data).GetByKey("channel"))
		if result.Channel != channel {
			return fail(fmt.Sprintf("channel was not recognized: expected %q, got %q", channel, result.Channel))
		}
		return nil
	})
	return result, err
}

// ChannelStats requests channel statistics and returns the parsed JSON body. The status must
// be 200.
func (v *Verifier) ChannelStats(ctx context.Context, channel string) (ldvalue.Value, error) {
	var stats ldvalue.Value
	target := v.StatsURL(channel)
	err := v.exchange(ctx, "GET", target, nil, "", func(status int, data []byte) error {
		if status != http.StatusOK {
			return &AssertionError{URL: target, Message: "statistics were not returned", Status: status, Body: string(data)}
		}
		if err := json.Unmarshal(data, &stats); err != nil {
			return &AssertionError{URL: target, Message: "statistics were not valid JSON", Status: status, Body: string(data)}
		}
		return nil
	})
	return stats, err
}

// SubscribeUntil opens a subscriber stream and passes each chunk to onChunk until onChunk
// reports that it is done. If the server closes the stream first, the result is an
// UnmetExpectationError.
func (v *Verifier) SubscribeUntil(
	ctx context.Context,
	channelPath string,
	headers map[string]string,
	timeout time.Duration,
	onChunk ChunkHandler,
) error {
	return v.Subscribe(ctx, channelPath, SubscribeOptions{Headers: headers, Timeout: timeout}, onChunk)
}

// Subscribe is SubscribeUntil with additional options.
func (v *Verifier) Subscribe(
	ctx context.Context,
	channelPath string,
	opts SubscribeOptions,
	onChunk ChunkHandler,
) error {
	if onChunk == nil {
		return errors.New("a chunk handler is required")
	}
	target := v.SubscribeURL(channelPath)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = v.RequestTimeout
	}
	r := newReactor(ctx, target, timeout)
	chunks := 0

	handleChunk := func(chunk string) {
		chunks++
		r.received.WriteString(chunk)
		jsonStr, _ := json.Marshal(chunk)
		v.logger.Printf("<< received on %s: %s", target, jsonStr)
		done, err := onChunk(chunk)
		switch {
		case err != nil:
			r.fail(err)
		case done:
			r.complete()
		}
	}

	r.start(func(ctx context.Context) {
		resp, err := v.send(ctx, "GET", target, opts.Headers, "")
		if err != nil {
			r.post(func() { r.fail(&TransportError{URL: target, Err: err}) })
			return
		}
		defer resp.Body.Close()

		status := resp.StatusCode
		connected := r.post(func() {
			v.logger.Printf("Subscriber connected to %s with status %d", target, status)
			if status != http.StatusOK {
				r.fail(&AssertionError{URL: target, Message: "subscription was not accepted", Status: status})
				return
			}
			if opts.OnConnected != nil {
				opts.OnConnected()
			}
		})
		if !connected {
			return
		}

		buf := make([]byte, chunkBufferSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := string(buf[:n])
				if !r.post(func() { handleChunk(chunk) }) {
					return
				}
			}
			if err == io.EOF {
				r.post(func() {
					r.fail(&UnmetExpectationError{URL: target, Chunks: chunks, Received: r.received.String()})
				})
				return
			}
			if err != nil {
				r.post(func() { r.fail(&TransportError{URL: target, Partial: r.received.String(), Err: err}) })
				return
			}
		}
	})
	return r.run()
}

// exchange performs a request whose whole response is read before check is called.
func (v *Verifier) exchange(
	ctx context.Context,
	method, target string,
	headers map[string]string,
	body string,
	check func(status int, data []byte) error,
) error {
	r := newReactor(ctx, target, v.RequestTimeout)
	r.start(func(ctx context.Context) {
		resp, err := v.send(ctx, method, target, headers, body)
		if err != nil {
			r.post(func() { r.fail(&TransportError{URL: target, Err: err}) })
			return
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			r.post(func() { r.fail(&TransportError{URL: target, Partial: string(data), Err: err}) })
			return
		}
		status := resp.StatusCode
		r.post(func() {
			r.received.Write(data)
			v.logger.Printf("%s %s returned status %d: %s", method, target, status, string(data))
			if err := check(status, data); err != nil {
				r.fail(err)
				return
			}
			r.complete()
		})
	})
	return r.run()
}

func (v *Verifier) send(
	ctx context.Context,
	method, target string,
	headers map[string]string,
	body string,
) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" || method == "POST" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	v.logger.Printf("Sending %s %s", method, target)
	return v.httpClient.Do(req)
}
