// Package cutieapi is a thin client for the Cuti-E admin REST API.
//
// The client performs exactly one HTTP round trip per call, authenticates with
// an admin API key as a bearer token, and returns the response body as JSON.
// It knows nothing about individual endpoints; callers describe each request
// with method, path, query, and body.
package cutieapi
