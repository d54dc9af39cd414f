package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlistify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLookupDone MsgKind = iota
	MsgConnectDone
	MsgProgressUpdate
	MsgBuildDone
)

type lookupPayload struct {
	query  string
	result *tasks.LookupResult
	err    error
}

type buildPayload struct {
	result *tasks.BuildResult
	err    error
}

// lookupDoneMsg is the constructor for [MsgLookupDone]
func lookupDoneMsg(query string, result *tasks.LookupResult, err error) Msg {
	return Msg{kind: MsgLookupDone, data: lookupPayload{query, result, err}}
}

// connectDoneMsg is the constructor for [MsgConnectDone]
func connectDoneMsg(err error) Msg {
	return Msg{kind: MsgConnectDone, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// buildDoneMsg is the constructor for [MsgBuildDone]
func buildDoneMsg(result *tasks.BuildResult, err error) Msg {
	return Msg{kind: MsgBuildDone, data: buildPayload{result, err}}
}
