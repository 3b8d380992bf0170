package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pushstream/contract-tests/framework"
	"github.com/pushstream/contract-tests/process"
	"github.com/pushstream/contract-tests/pushtests"
	"github.com/pushstream/contract-tests/serverconf"
)

func main() {
	var params commandParams
	if err := params.read(os.Args, os.Getenv, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		os.Exit(1)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	effective := serverconf.Defaults(params.server).Merge(params.override)
	fmt.Printf("Testing %s at %s with %s worker(s)\n",
		params.server.Executable, effective.BaseURL(), effective.Text(serverconf.Workers))
	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := framework.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	env := pushtests.Environment{
		Server:     params.server,
		ScratchDir: params.scratchDir,
		Override:   params.override,
		Controller: process.NewController(params.server.Executable, mainDebugLogger),
	}

	results, err := pushtests.RunTestSuite(env, params.filters.AsFilter, testLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start test suite: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		os.Exit(1)
	}
}
