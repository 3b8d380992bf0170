package pushtests

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/pushstream/contract-tests/client"
	"github.com/pushstream/contract-tests/framework"
	"github.com/pushstream/contract-tests/lifecycle"
	"github.com/pushstream/contract-tests/process"
	"github.com/pushstream/contract-tests/serverconf"

	"github.com/stretchr/testify/require"
)

// SubscribeTimeout is the default limit for a subscriber stream. It is longer than the
// server's keep-alive and ping intervals.
const SubscribeTimeout = time.Second * 30

// Environment is what the suite needs to know about the server under test.
type Environment struct {
	Server     serverconf.Environment
	ScratchDir string

	// Override is applied to the default configuration of every test, before the test's own
	// override.
	Override serverconf.Override

	// Controller starts and stops the server. If nil, the server executable is run directly.
	Controller lifecycle.ServerController

	// BaseURL overrides the address that requests are sent to. If empty, each test sends its
	// requests to the host and port in its own effective configuration.
	BaseURL string
}

type environment struct {
	defaults   serverconf.Configuration
	templates  *serverconf.Templates
	scratchDir string
	controller lifecycle.ServerController
	baseURL    string
}

func newEnvironment(env Environment) (*environment, error) {
	templates, err := serverconf.NewTemplates()
	if err != nil {
		return nil, err
	}
	defaults := serverconf.Defaults(env.Server).Merge(env.Override)
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	e := &environment{
		defaults:   defaults,
		templates:  templates,
		scratchDir: env.ScratchDir,
		controller: env.Controller,
		baseURL:    env.BaseURL,
	}
	if e.controller == nil {
		e.controller = process.NewController(env.Server.Executable, nil)
	}
	return e, nil
}

// T represents a test or subtest in the push stream test suite.
//
// Like the T in Go's testing package, it can be passed to the assert and require packages.
// Tests that are started with RunWithServer get a freshly configured and started server,
// which is stopped again when the test ends; tests started with Run do not touch the server.
//
// The Publish, SubscribeUntil and ChannelStats methods make their requests through a
// client.Verifier and fail the test immediately if the verifier reports an error.
type T struct {
	context      *framework.Context
	env          *environment
	orchestrator *lifecycle.Orchestrator
	verifier     *client.Verifier
}

func newTestScope(c *framework.Context, env *environment, override serverconf.Override, unmanaged bool) *T {
	logger := c.DebugLogger()
	materializer := serverconf.NewMaterializer(env.scratchDir, env.templates, logger)
	params := lifecycle.Params{
		TestID:    c.ID().String(),
		Defaults:  env.defaults,
		Override:  override,
		Unmanaged: unmanaged,
	}
	orchestrator := lifecycle.NewOrchestrator(params, materializer, withLogging(env.controller, logger), logger)
	baseURL := env.baseURL
	if baseURL == "" {
		baseURL = orchestrator.Configuration().BaseURL()
	}
	return &T{
		context:      c,
		env:          env,
		orchestrator: orchestrator,
		verifier:     client.NewVerifier(baseURL, logger),
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit.
func (t *T) FailNow() {
	t.context.FailNow()
}

func (t *T) ID() framework.TestID {
	return t.context.ID()
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// SkipWithReason stops the test and reports it as skipped.
func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

// Run runs a subtest that does not start a server. It is used for grouping tests, and for
// tests that manage the server themselves.
func (t *T) Run(name string, action func(*T)) {
	t.run(name, nil, true, action)
}

// RunWithServer runs a subtest against a server that is configured with the default
// configuration plus override. The server is started before action is called and stopped
// afterward, even if the test fails.
func (t *T) RunWithServer(name string, override serverconf.Override, action func(*T)) {
	t.run(name, override, false, action)
}

func (t *T) run(name string, override serverconf.Override, unmanaged bool, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		t1 := newTestScope(c, t.env, override, unmanaged)
		c.Defer(func() {
			if err := t1.orchestrator.Teardown(context.Background()); err != nil {
				c.Errorf("teardown failed: %s", err)
			}
		})
		if err := t1.orchestrator.Setup(context.Background()); err != nil {
			c.Errorf("setup failed: %s", err)
			c.FailNow()
		}
		action(t1)
	})
}

// NewChannel returns a channel id that starts with prefix and has not been used before, so
// that messages stored by earlier runs cannot show up in this test.
func (t *T) NewChannel(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// Configuration returns the configuration that the test's server was started with.
func (t *T) Configuration() serverconf.Configuration {
	return t.orchestrator.Configuration()
}

// Verifier gives direct access to the verification calls, for tests that expect errors.
func (t *T) Verifier() *client.Verifier {
	return t.verifier
}

// Publish sends a message with no extra headers and requires it to be accepted.
func (t *T) Publish(channel, body string) client.PublishResult {
	return t.PublishWithHeaders(channel, nil, body)
}

// PublishWithHeaders sends a message and requires it to be accepted.
func (t *T) PublishWithHeaders(channel string, headers map[string]string, body string) client.PublishResult {
	result, err := t.verifier.Publish(context.Background(), channel, headers, body)
	require.NoError(t, err)
	return result
}

// SubscribeUntil opens a subscriber stream and calls onChunk for each chunk until it returns
// true. The test fails immediately if the stream ends first or cannot be read.
func (t *T) SubscribeUntil(channelPath string, headers map[string]string, timeout time.Duration,
	onChunk func(chunk string) bool) {
	err := t.verifier.SubscribeUntil(context.Background(), channelPath, headers, timeout,
		func(chunk string) (bool, error) {
			return onChunk(chunk), nil
		})
	require.NoError(t, err)
}

// SubscribeAfterConnect is like SubscribeUntil, but also calls onConnected once the server has
// accepted the subscription and before any chunk is read. Publishing from onConnected is how a
// test makes sure the subscriber is attached before the message goes out.
func (t *T) SubscribeAfterConnect(channelPath string, onConnected func(), onChunk func(chunk string) bool) {
	opts := client.SubscribeOptions{Timeout: SubscribeTimeout, OnConnected: onConnected}
	err := t.verifier.Subscribe(context.Background(), channelPath, opts,
		func(chunk string) (bool, error) {
			return onChunk(chunk), nil
		})
	require.NoError(t, err)
}

// ChannelStats requests statistics for a channel and requires them to be returned.
func (t *T) ChannelStats(channel string) ldvalue.Value {
	stats, err := t.verifier.ChannelStats(context.Background(), channel)
	require.NoError(t, err)
	return stats
}

// MessagePattern matches a message as the server renders it for this test's configuration.
// The message id is not known in advance, so any number is accepted in its place.
func (t *T) MessagePattern(channel, text string) *regexp.Regexp {
	template := "~text~"
	if c := t.Configuration(); !c.IsOmitted(serverconf.MessageTemplate) {
		template = serverconf.Unescape(c.Text(serverconf.MessageTemplate))
	}
	parts := strings.Split(template, "~id~")
	for i, p := range parts {
		p = strings.NewReplacer("~channel~", channel, "~text~", text).Replace(p)
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(strings.Join(parts, `\d+`))
}

// HeaderText is the header that the server sends to each new subscriber with this test's
// configuration, or "" if there is none.
func (t *T) HeaderText() string {
	c := t.Configuration()
	if c.IsOmitted(serverconf.HeaderTemplate) {
		return ""
	}
	return serverconf.Unescape(c.Text(serverconf.HeaderTemplate))
}

type loggingController struct {
	target lifecycle.ServerController
	logger framework.Logger
}

func withLogging(target lifecycle.ServerController, logger framework.Logger) lifecycle.ServerController {
	return loggingController{target: target, logger: framework.PrefixedLogger("[server] ", logger)}
}

func (l loggingController) Start(ctx context.Context, configPath string) (process.Result, error) {
	r, err := l.target.Start(ctx, configPath)
	l.log("start", r, err)
	return r, err
}

func (l loggingController) Stop(ctx context.Context, configPath string) (process.Result, error) {
	r, err := l.target.Stop(ctx, configPath)
	l.log("stop", r, err)
	return r, err
}

func (l loggingController) log(action string, r process.Result, err error) {
	status := "ok"
	if err != nil {
		status = fmt.Sprintf("failed: %s", err)
	}
	l.logger.Printf("%s: %s", action, status)
	if r.Diagnostics != "" && err == nil {
		l.logger.Printf("%s diagnostics: %s", action, r.Diagnostics)
	}
}
