// Package framework contains the low-level implementation of test harness infrastructure
// that is not specific to the push stream server.
//
// There is a general notion of a test context which is similar to Go's *testing.T, allowing
// pieces of test logic to be associated with a test identifier, to accumulate success/failure
// results, to register cleanup actions, and to capture debug output that is only shown when
// the test fails (or always, if the runner asks for it).
//
// The domain-specific code that knows how to bring up the server and talk to it lives in
// the serverconf, process, lifecycle, client and pushtests packages.
package framework
