package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/services"
)

// SetlistText renders a setlist as plain text.
func SetlistText(setlist models.Setlist, artist string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", artist)
	fmt.Fprintf(&buf, "%s\n", setlist.Summary())
	if setlist.Tour != nil && setlist.Tour.Name != "" {
		fmt.Fprintf(&buf, "Tour: %s\n", setlist.Tour.Name)
	}

	for _, group := range DisplayGroups(setlist, artist) {
		fmt.Fprintf(&buf, "\n%s\n", group.Label)
		for _, line := range group.Lines {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.Bytes()
}

// SetlistMarkdown renders a setlist as Markdown with an optional cover image.
func SetlistMarkdown(setlist models.Setlist, artist, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", artist)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![%s](%s)\n\n", artist, imageFilename)
	}

	fmt.Fprintf(&buf, "**Date**: %s\n", setlist.EventDate)
	fmt.Fprintf(&buf, "**Venue**: %s, %s\n", setlist.Venue.Name, setlist.Venue.City.Name)
	if setlist.Tour != nil && setlist.Tour.Name != "" {
		fmt.Fprintf(&buf, "**Tour**: %s\n", setlist.Tour.Name)
	}
	fmt.Fprintf(&buf, "**Songs**: %d\n", setlist.SongCount())

	for _, group := range DisplayGroups(setlist, artist) {
		fmt.Fprintf(&buf, "\n## %s\n\n", group.Label)
		for _, line := range group.Lines {
			if line == NoSongs {
				fmt.Fprintf(&buf, "*%s*\n", NoSongs)
				continue
			}
			fmt.Fprintf(&buf, "%s\n", line)
		}
	}

	if setlist.URL != "" {
		fmt.Fprintf(&buf, "\n[View on setlist.fm](%s)\n", setlist.URL)
	}

	return buf.Bytes()
}

// SetlistCSV converts a setlist to CSV with columns: Position, Set, Song, Original Artist, Info, Tape, Cover
func SetlistCSV(setlist models.Setlist, artist string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Set", "Song", "Original Artist", "Info", "Tape", "Cover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	position := 1
	for _, group := range FormatStructure(setlist) {
		sub := models.Setlist{Sets: models.Sets{Set: group.Sets}}
		for _, song := range ExtractSongs(sub, artist) {
			record := []string{
				strconv.Itoa(position),
				group.Label,
				song.Name,
				song.OriginalArtist,
				song.Info,
				strconv.FormatBool(song.IsTape),
				strconv.FormatBool(song.IsCover),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			position++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON renders the raw setlist document, indented.
func ToJSON(setlist models.Setlist) ([]byte, error) {
	return json.MarshalIndent(setlist, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport writes {base}_songs.csv and {base}_setlist.json.
//
// The base defaults to the setlist ID.
func WriteCSVExport(setlist models.Setlist, artist, base string) (*CSVExportResult, error) {
	if base == "" {
		base = setlist.ID
	}

	csvData, err := SetlistCSV(setlist, artist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := base + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadata, err := ToJSON(setlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate setlist JSON: %w", err)
	}

	metadataFile := base + "_setlist.json"
	if err := os.WriteFile(metadataFile, metadata, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{SongsFile: songsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warnings   []string
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL is set, {dir}/artist.jpg.
//
// The directory defaults to the setlist ID. A failed image download is reported in Warnings.
func WriteMarkdownExport(ctx context.Context, setlist models.Setlist, artist, outputDir, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = setlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var imageFilename string
	if imageURL != "" {
		if data, err := services.DownloadImage(ctx, nil, imageURL); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download artist image: %v", err))
		} else {
			imagePath := filepath.Join(outputDir, "artist.jpg")
			if err := os.WriteFile(imagePath, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save artist image: %v", err))
			} else {
				imageFilename = "artist.jpg"
				result.CoverImage = imagePath
				result.Files = append(result.Files, imagePath)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, SetlistMarkdown(setlist, artist, imageFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport writes a plain text setlist, defaulting to {setlist.ID}_setlist.txt.
func WriteTextExport(setlist models.Setlist, artist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_setlist.txt", setlist.ID)
	}

	if err := os.WriteFile(path, SetlistText(setlist, artist), 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}
