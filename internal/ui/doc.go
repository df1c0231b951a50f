// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist conversion:
//  1. [PlaylistListView] : Browse and select source playlists
//  2. [TrackListView] : Preview tracks before conversion
//  3. [ConfirmView] : Confirm the conversion operation
//  4. [ConvertView] : Monitor per-track resolution progress
//  5. [ResultView] : Review match outcomes, including unresolved tracks and remix-flagged links
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via tea.Msg.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during conversion.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
