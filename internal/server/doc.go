// Package server runs the short-lived loopback listener that receives the Spotify authorization redirect.
//
// [Authorize] drives one login: it generates a state token, starts [Serve] on the configured address with an
// [OAuthHandler] mounted at the redirect URI's path, opens the authorization URL, and waits for the callback
// or for the context to end. The listener is shut down before Authorize returns.
//
// # Routing
//
// [BasicRouter] registers "METHOD /path" patterns on [http.ServeMux] and wraps every handler in the
// [Middleware] chain added with Use. The first middleware added runs outermost. Handlers that know their own
// patterns implement [Handler].
//
// # Callback
//
// [OAuthHandler] checks the state parameter, passes the code to a [CompleteFunc] and reports the outcome once
// on its result channel. A second request to the same handler is rejected.
package server
