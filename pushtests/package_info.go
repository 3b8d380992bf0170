// Package pushtests contains the push stream contract tests themselves and their supporting API.
//
// Infrastructure that is not specific to the push stream server, such as test contexts and
// result reporting, is in the lower-level framework package. Bringing the server up and down
// is done by the lifecycle package, and requests are made through the client package.
package pushtests
