package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/setlistify/internal/models"
)

const (
	MainSetLabel = "Main Set"
	EncoreLabel  = "Encore"

	// NoSongs is shown for a set that lists no songs.
	NoSongs = "no songs listed"
)

// SetGroup is a labeled run of sets.
type SetGroup struct {
	Label string
	Sets  []models.Set
}

// FormatStructure groups non-encore sets under "Main Set", followed by one group per encore.
//
// A single encore is labeled "Encore"; several are numbered "Encore 1", "Encore 2", ... in document order.
// "Main Set" is omitted when every set is an encore. Empty sets are kept.
func FormatStructure(setlist models.Setlist) []SetGroup {
	var main, encores []models.Set
	for _, set := range setlist.Sets.Set {
		if set.IsEncore() {
			encores = append(encores, set)
		} else {
			main = append(main, set)
		}
	}

	groups := make([]SetGroup, 0, len(encores)+1)
	if len(main) > 0 {
		groups = append(groups, SetGroup{Label: MainSetLabel, Sets: main})
	}

	for i, encore := range encores {
		label := EncoreLabel
		if len(encores) > 1 {
			label = fmt.Sprintf("%s %d", EncoreLabel, i+1)
		}
		groups = append(groups, SetGroup{Label: label, Sets: []models.Set{encore}})
	}
	return groups
}

// ExtractSongs flattens every song of every set in document order.
//
// A cover's original artist is the covered artist; every other song is attributed to artist.
func ExtractSongs(setlist models.Setlist, artist string) []models.ResolvedSong {
	songs := make([]models.ResolvedSong, 0, setlist.SongCount())
	for _, set := range setlist.Sets.Set {
		for _, song := range set.Songs {
			original := artist
			if song.Cover != nil && song.Cover.Name != "" {
				original = song.Cover.Name
			}

			songs = append(songs, models.ResolvedSong{
				Name:           song.Name,
				OriginalArtist: original,
				Info:           song.Info,
				IsTape:         song.Tape,
				IsCover:        song.Cover != nil,
			})
		}
	}
	return songs
}

// FormatDisplay renders "{index}. {name}" followed by the info, playback and cover annotations, in that order.
func FormatDisplay(song models.ResolvedSong, index int) string {
	var extras []string
	if song.Info != "" {
		extras = append(extras, fmt.Sprintf("*(%s)*", song.Info))
	}
	if song.IsTape {
		extras = append(extras, "🎵 (Playback)")
	}
	if song.IsCover {
		extras = append(extras, fmt.Sprintf("(Cover of %s)", song.OriginalArtist))
	}

	line := fmt.Sprintf("%d. %s", index, song.Name)
	if len(extras) > 0 {
		line += " " + strings.Join(extras, " ")
	}
	return line
}

// NumberedGroup is a [SetGroup] with its songs rendered by [FormatDisplay].
type NumberedGroup struct {
	Label string
	Lines []string
}

// DisplayGroups renders the grouped structure of a setlist.
//
// Numbering runs across groups, as it is shown to the user. A set without songs
// contributes the single line [NoSongs].
func DisplayGroups(setlist models.Setlist, artist string) []NumberedGroup {
	groups := FormatStructure(setlist)
	out := make([]NumberedGroup, 0, len(groups))

	index := 1
	for _, group := range groups {
		var lines []string
		for _, set := range group.Sets {
			if len(set.Songs) == 0 {
				lines = append(lines, NoSongs)
				continue
			}

			sub := models.Setlist{Sets: models.Sets{Set: []models.Set{set}}}
			for _, song := range ExtractSongs(sub, artist) {
				lines = append(lines, FormatDisplay(song, index))
				index++
			}
		}
		out = append(out, NumberedGroup{Label: group.Label, Lines: lines})
	}
	return out
}
