// Package middleware provides the HTTP middleware of the scaffold API:
// request ids, request logging, metrics, tracing and security headers.
//
// It does not depend on package api; error rendering stays there.
package middleware
