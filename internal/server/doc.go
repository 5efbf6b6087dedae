// Package server assembles the clipstream API behind a single HTTP server.
//
// The server builds a consistent middleware chain of request IDs, security
// headers, logging, auditing, metrics, and authentication so handlers all
// share common protections and instrumentation. Public read-only routes pass
// the auth gate without a token; everything else under /api requires a valid
// access token.
package server
