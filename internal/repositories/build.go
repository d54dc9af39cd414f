package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/shared"
)

// BuildRepository persists [models.Build] history.
type BuildRepository struct {
	db *sql.DB
}

// NewBuildRepository creates a new [BuildRepository] with the given database connection
func NewBuildRepository(db *sql.DB) *BuildRepository {
	return &BuildRepository{db: db}
}

const buildColumns = `id, sequence, session_id, artist_name, setlist_id, playlist_id, playlist_name,
	status, tracks_total, tracks_added, not_found, error_message, created_at, updated_at`

// Create inserts a new build with generated ID and sequence
func (r *BuildRepository) Create(build *models.Build) error {
	if err := build.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	notFound, err := json.Marshal(build.NotFound())
	if err != nil {
		return fmt.Errorf("failed to encode not found songs: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "builds")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO builds (` + buildColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(query,
		id, sequence, build.SessionID(), build.ArtistName(), nullString(build.SetlistID()), nullString(build.PlaylistID()),
		build.PlaylistName(), string(build.Status()), build.TracksTotal(), build.TracksAdded(), string(notFound),
		nullString(build.ErrorMessage()), build.CreatedAt(), build.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build: %w", err)
	}

	build.SetID(id)
	build.SetSequence(sequence)
	return nil
}

// Get retrieves a build by ID
func (r *BuildRepository) Get(id string) (*models.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE id = ?`

	build, err := scanBuild(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query build: %w", err)
	}
	return build, nil
}

// Update writes the build's progress and outcome
func (r *BuildRepository) Update(build *models.Build) error {
	if err := build.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	notFound, err := json.Marshal(build.NotFound())
	if err != nil {
		return fmt.Errorf("failed to encode not found songs: %w", err)
	}

	now := time.Now()
	build.SetUpdatedAt(now)

	query := `
		UPDATE builds
		SET playlist_id = ?, playlist_name = ?, status = ?, tracks_added = ?, not_found = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(build.PlaylistID()), build.PlaylistName(), string(build.Status()), build.TracksAdded(),
		string(notFound), nullString(build.ErrorMessage()), now, build.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update build: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("build not found: %s", build.ID())
	}

	return nil
}

// Delete removes a build by ID
func (r *BuildRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete build: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("build not found: %s", id)
	}

	return nil
}

// List retrieves builds matching the given criteria, newest first.
//
// Supported criteria: "session_id" and "status" (string), "limit" (int).
func (r *BuildRepository) List(criteria map[string]any) ([]*models.Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds WHERE 1 = 1`
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	var builds []*models.Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, build)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return builds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*models.Build, error) {
	var (
		id           string
		sequence     int
		sessionID    string
		artistName   string
		setlistID    sql.NullString
		playlistID   sql.NullString
		playlistName string
		status       string
		tracksTotal  int
		tracksAdded  int
		notFoundJSON string
		errorMessage sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &sequence, &sessionID, &artistName, &setlistID, &playlistID, &playlistName,
		&status, &tracksTotal, &tracksAdded, &notFoundJSON, &errorMessage, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	notFound := []string{}
	if err := json.Unmarshal([]byte(notFoundJSON), &notFound); err != nil {
		return nil, fmt.Errorf("failed to decode not found songs: %w", err)
	}

	build := models.NewBuild(sessionID, artistName, setlistID.String, playlistName, tracksTotal)
	build.SetID(id)
	build.SetSequence(sequence)
	build.SetCreatedAt(createdAt)
	build.SetUpdatedAt(updatedAt)
	build.Restore(playlistID.String, models.BuildState(status), tracksAdded, notFound, errorMessage.String)

	return build, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
