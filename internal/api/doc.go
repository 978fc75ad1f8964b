// Package api handles incoming HTTP requests for the study surface: routing
// parameters, request validation and response formatting. It adapts HTTP to
// the study service and never exposes internal error text to clients.
package api
