// Package lifecycle brings the server under test into a known state before each test and
// cleans up after it.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/pushstream/contract-tests/framework"
	"github.com/pushstream/contract-tests/process"
	"github.com/pushstream/contract-tests/serverconf"
)

// Materializer writes a test's configuration files.
type Materializer interface {
	Materialize(testID string, c serverconf.Configuration) (serverconf.RenderedConfig, error)
}

// ServerController starts and stops the server for a given configuration file.
type ServerController interface {
	Start(ctx context.Context, configPath string) (process.Result, error)
	Stop(ctx context.Context, configPath string) (process.Result, error)
}

// Params describes one test's server.
type Params struct {
	// TestID determines where the configuration files are written.
	TestID string

	// Defaults is the configuration that Override is applied to.
	Defaults serverconf.Configuration

	// Override holds the test's own configuration changes, if any.
	Override serverconf.Override

	// Unmanaged turns Setup and Teardown into no-ops, for tests that need no server or that
	// control it themselves.
	Unmanaged bool
}

// Orchestrator runs the setup and teardown sequence for a single test. It is not safe to use
// two Orchestrators with the same TestID at the same time, since they share file paths.
type Orchestrator struct {
	params       Params
	materializer Materializer
	controller   ServerController
	logger       framework.Logger
	rendered     *serverconf.RenderedConfig
	started      bool
}

func NewOrchestrator(
	params Params,
	materializer Materializer,
	controller ServerController,
	logger framework.Logger,
) *Orchestrator {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Orchestrator{
		params:       params,
		materializer: materializer,
		controller:   controller,
		logger:       logger,
	}
}

// Configuration returns the effective configuration for the test.
func (o *Orchestrator) Configuration() serverconf.Configuration {
	return o.params.Defaults.Merge(o.params.Override)
}

// Rendered returns the files written by Setup, or nil if Setup has not written them.
func (o *Orchestrator) Rendered() *serverconf.RenderedConfig {
	return o.rendered
}

// Setup writes the configuration, stops any server instance left over from an earlier run,
// and starts the server. It stops at the first step that fails.
//
// The stop before starting is expected to fail when nothing is running, so its failure is
// only logged.
func (o *Orchestrator) Setup(ctx context.Context) error {
	if o.params.Unmanaged {
		return nil
	}
	rendered, err := o.materializer.Materialize(o.params.TestID, o.Configuration())
	if err != nil {
		return fmt.Errorf("could not create configuration: %w", err)
	}
	o.rendered = &rendered

	if _, err := o.controller.Stop(ctx, rendered.ConfigPath); err != nil {
		o.logger.Printf("Ignoring failure to stop a previous instance: %s", err)
	}
	if _, err := o.controller.Start(ctx, rendered.ConfigPath); err != nil {
		return err
	}
	o.started = true
	return nil
}

// Teardown stops the server and deletes the configuration files. If Setup started the server,
// a stop failure is returned immediately and leaves the files in place; the next Setup for the
// same test overwrites them. If the server never started, the stop is expected to fail, so
// that failure is only logged and the files are still deleted.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	if o.params.Unmanaged || o.rendered == nil {
		return nil
	}
	if _, err := o.controller.Stop(ctx, o.rendered.ConfigPath); err != nil {
		if o.started {
			return err
		}
		o.logger.Printf("Ignoring failure to stop a server that did not start: %s", err)
	}
	o.started = false
	if err := o.rendered.Remove(); err != nil {
		return err
	}
	o.logger.Printf("Removed %s and %s", o.rendered.ConfigPath, o.rendered.MimeTypesPath)
	o.rendered = nil
	return nil
}
