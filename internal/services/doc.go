// Package services implements the HTTP clients used by setlistify.
//
// # setlist.fm
//
// [SetlistService] implements [SetlistProvider]. Requests carry the API key in the x-api-key header
// and are paced by a [rate.Limiter]. A 429 response is retried after waiting for the interval given
// in Retry-After (60 seconds when the header is missing or malformed). Retries are unbounded unless
// a cap is configured with [shared.SetlistConfig.MaxRetryWait].
//
// Lookups never return errors to the caller: transport failures, non-200 responses and decode errors
// are logged and reported as nil.
//
// # Spotify
//
// [SpotifyService] implements [Catalog]. It uses OAuth2 (authorization code) with automatic token
// refresh through [oauth2.Config.TokenSource]. [SpotifyService.WithToken] returns a copy bound to a
// single session's token and reports refreshed tokens back to the caller so they can be stored.
//
// Track search runs an ordered list of match tiers and stops at the first hit:
//  1. track:"{song}" artist:"{artist}" (only with an artist)
//  2. {song} {artist} (only with an artist)
//  3. {song}
//
// # Cover art
//
// [PrepareCoverImage] downsamples an image to fit 800x800 and re-encodes it as JPEG for
// [SpotifyService.UploadCover].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : a required key or client id is missing at construction
//   - [shared.ErrNotAuthenticated] : no token is bound to the service
//   - [shared.ErrTokenExpired] : Spotify answered 401 or the refresh failed
//   - [shared.ErrRateLimited] : a Retry-After exceeded the configured cap, or Spotify answered 429
//   - [shared.ErrAPIRequest] : any other failed request
package services
