// Package formatter shapes setlist.fm documents for display and playlist building.
//
// [FormatStructure] groups sets under "Main Set" and "Encore" labels, [ExtractSongs] flattens a setlist
// into [models.ResolvedSong] values in performance order, and [FormatDisplay] renders one numbered line.
//
// The export functions render a whole setlist as plain text, Markdown or CSV and write it to disk.
package formatter
