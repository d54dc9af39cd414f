package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors are fatal and stop the command before any request is made.
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Spotify session errors. A build that hits one of these fails.
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrInvalidState     = fmt.Errorf("invalid oauth state")

	// Lookup and playlist errors. Lookups degrade to a warning; playlist errors fail the build.
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrArtistNotFound     = fmt.Errorf("artist not found")
	ErrSetlistNotFound    = fmt.Errorf("no recent setlist found")
	ErrPlaylistCreate     = fmt.Errorf("failed to create playlist")
	ErrPlaylistPopulate   = fmt.Errorf("failed to add tracks to playlist")
	ErrImageUpload        = fmt.Errorf("failed to upload playlist image")

	// Input validation
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
