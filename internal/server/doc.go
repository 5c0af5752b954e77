// Package server provides HTTP routing, middleware, and the PKCE callback
// handler for the Spotify authorization flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method filtering.
//
// # Callback Handler
//
// [CallbackHandler] receives the authorization redirect on a temporary
// localhost server. Redirects without a code parameter cause no side
// effects, so re-hitting the endpoint after a completed flow is a no-op.
// Redirects with a code are delegated to the Spotify client's PKCE token
// exchange and processed exactly once; the result is delivered through a
// one-shot channel and the CLI shuts the server down afterwards.
package server
