package main

import (
	"errors"
	"flag"
	"io"
	"os"

	"github.com/pushstream/contract-tests/framework"
	"github.com/pushstream/contract-tests/serverconf"
)

type commandParams struct {
	server     serverconf.Environment
	scratchDir string
	override   serverconf.Override
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
}

// read takes defaults from the environment variables and then applies the command line.
func (c *commandParams) read(args []string, getenv func(string) string, errOut io.Writer) error {
	env, err := serverconf.EnvironmentFrom(getenv)
	if err != nil {
		return err
	}
	c.server = env

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.server.Executable, "exe", c.server.Executable, "server executable (default from NGINX_EXEC)")
	fs.StringVar(&c.server.Host, "host", c.server.Host, "server hostname (default from NGINX_HOST)")
	fs.IntVar(&c.server.Port, "port", c.server.Port, "server port (default from NGINX_PORT)")
	fs.IntVar(&c.server.Workers, "workers", c.server.Workers, "worker processes (default from NGINX_WORKERS)")
	fs.StringVar(&c.scratchDir, "scratch-dir", os.TempDir(), "directory for generated configuration files")
	optionsFile := fs.String("options", "", "TOML file of server option overrides")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if c.server.Port <= 0 || c.server.Workers <= 0 {
		return errors.New("-port and -workers must be positive")
	}
	if c.server.Executable == "" {
		return errors.New("-exe must not be empty")
	}
	if *optionsFile != "" {
		if c.override, err = serverconf.LoadOverride(*optionsFile); err != nil {
			return err
		}
	}
	return nil
}
