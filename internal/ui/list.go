package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/setlistify/internal/formatter"
	"github.com/desertthunder/setlistify/internal/models"
)

var _ list.Item = songItem{}

// songItem is one numbered line of a setlist group.
type songItem struct {
	line  string
	group string
}

func (i songItem) FilterValue() string { return i.line }
func (i songItem) Title() string       { return i.line }
func (i songItem) Description() string { return i.group }

// setlistItems flattens [formatter.DisplayGroups] into list items.
func setlistItems(setlist models.Setlist, artist string) []list.Item {
	var items []list.Item
	for _, g := range formatter.DisplayGroups(setlist, artist) {
		for _, line := range g.Lines {
			items = append(items, songItem{line: line, group: g.Label})
		}
	}
	return items
}
