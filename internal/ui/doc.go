// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one session from artist search to a finished playlist:
//  1. [SearchView] : Enter an artist name
//  2. [LookupView] : Wait for the artist and latest setlist lookup
//  3. [SetlistView] : Browse the setlist grouped into main set and encores
//  4. [ConnectView] : Authorize Spotify in the browser; the pending selection is restored afterwards
//  5. [ConfirmView] : Edit the playlist name
//  6. [BuildView] : Monitor real-time progress updates
//  7. [ResultView] : Display the playlist link and the songs that could not be matched
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during builds.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, d, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
