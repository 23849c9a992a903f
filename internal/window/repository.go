package window

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for window fleet persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// ListWindows retrieves all configured windows ordered by name.
	ListWindows(ctx context.Context) ([]Window, error)

	// GetWindow retrieves a window by ID.
	// Returns ErrWindowNotFound if the window does not exist.
	GetWindow(ctx context.Context, id string) (*Window, error)

	// CreateWindow inserts a new window.
	// Returns ErrWindowExists if a window with the same ID already exists.
	CreateWindow(ctx context.Context, w *Window) error

	// UpdateWindow modifies an existing window.
	// Returns ErrWindowNotFound if the window does not exist.
	UpdateWindow(ctx context.Context, w *Window) error

	// DeleteWindow removes a window by ID.
	// Returns ErrWindowNotFound if the window does not exist.
	DeleteWindow(ctx context.Context, id string) error

	// ListGroups retrieves all window groups ordered by name.
	ListGroups(ctx context.Context) ([]Group, error)

	// GetGroup retrieves a group by ID.
	// Returns ErrGroupNotFound if the group does not exist.
	GetGroup(ctx context.Context, id string) (*Group, error)

	// CreateGroup inserts a new group.
	// Returns ErrGroupExists if a group with the same ID already exists.
	CreateGroup(ctx context.Context, g *Group) error

	// UpdateGroup modifies an existing group.
	// Returns ErrGroupNotFound if the group does not exist.
	UpdateGroup(ctx context.Context, g *Group) error

	// DeleteGroup removes a group by ID. Windows referencing it keep
	// running with their group link cleared by the schema.
	DeleteGroup(ctx context.Context, id string) error

	// GlobalLayer retrieves the fleet-wide base configuration layer.
	GlobalLayer(ctx context.Context) (ConfigLayer, error)

	// SetGlobalField writes one field of the global layer.
	SetGlobalField(ctx context.Context, field string, v Value) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const windowColumns = `id, name, group_id, indoor_sensor, overrides, created_at, updated_at`

// ListWindows retrieves all configured windows ordered by name.
func (r *SQLiteRepository) ListWindows(ctx context.Context) ([]Window, error) {
	query := `SELECT ` + windowColumns + ` FROM windows ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying windows: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var windows []Window
	for rows.Next() {
		w, scanErr := scanWindow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		windows = append(windows, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating windows: %w", err)
	}
	return windows, nil
}

// GetWindow retrieves a window by ID.
func (r *SQLiteRepository) GetWindow(ctx context.Context, id string) (*Window, error) {
	query := `SELECT ` + windowColumns + ` FROM windows WHERE id = ?`

	w, err := scanWindow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, fmt.Errorf("querying window by id: %w", err)
	}
	return w, nil
}

// CreateWindow inserts a new window.
func (r *SQLiteRepository) CreateWindow(ctx context.Context, w *Window) error {
	if err := validateName(w.Name); err != nil {
		return err
	}
	overrides, err := marshalLayer(w.Overrides)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	query := `
		INSERT INTO windows (id, name, group_id, indoor_sensor, overrides, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		w.ID, w.Name, w.GroupID, w.IndoorSensor, overrides,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrWindowExists
		}
		return fmt.Errorf("inserting window: %w", err)
	}
	return nil
}

// UpdateWindow modifies an existing window.
func (r *SQLiteRepository) UpdateWindow(ctx context.Context, w *Window) error {
	if err := validateName(w.Name); err != nil {
		return err
	}
	overrides, err := marshalLayer(w.Overrides)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE windows
		SET name = ?, group_id = ?, indoor_sensor = ?, overrides = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		w.Name, w.GroupID, w.IndoorSensor, overrides, now.Format(time.RFC3339), w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating window: %w", err)
	}
	return requireRow(result, ErrWindowNotFound)
}

// DeleteWindow removes a window by ID.
func (r *SQLiteRepository) DeleteWindow(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM windows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting window: %w", err)
	}
	return requireRow(result, ErrWindowNotFound)
}

const groupColumns = `id, name, kind, overrides, created_at, updated_at`

// ListGroups retrieves all window groups ordered by name.
func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]Group, error) {
	query := `SELECT ` + groupColumns + ` FROM window_groups ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var groups []Group
	for rows.Next() {
		g, scanErr := scanGroup(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

// GetGroup retrieves a group by ID.
func (r *SQLiteRepository) GetGroup(ctx context.Context, id string) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM window_groups WHERE id = ?`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("querying group by id: %w", err)
	}
	return g, nil
}

// CreateGroup inserts a new group.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g *Group) error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	overrides, err := marshalLayer(g.Overrides)
	if err != nil {
		return err
	}
	kind := g.Kind
	if kind == "" {
		kind = "default"
	}

	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	query := `
		INSERT INTO window_groups (id, name, kind, overrides, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		g.ID, g.Name, kind, overrides,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrGroupExists
		}
		return fmt.Errorf("inserting group: %w", err)
	}
	return nil
}

// UpdateGroup modifies an existing group.
func (r *SQLiteRepository) UpdateGroup(ctx context.Context, g *Group) error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	overrides, err := marshalLayer(g.Overrides)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE window_groups
		SET name = ?, kind = ?, overrides = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		g.Name, g.Kind, overrides, now.Format(time.RFC3339), g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// DeleteGroup removes a group by ID.
func (r *SQLiteRepository) DeleteGroup(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM window_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// GlobalLayer retrieves the fleet-wide base configuration layer.
//
// Each row of global_config stores one field as a JSON value, so zero,
// false and explicit null survive the round trip unambiguously.
func (r *SQLiteRepository) GlobalLayer(ctx context.Context) (ConfigLayer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT field, value FROM global_config`)
	if err != nil {
		return nil, fmt.Errorf("querying global config: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	layer := make(ConfigLayer)
	for rows.Next() {
		var field, raw string
		if err := rows.Scan(&field, &raw); err != nil {
			return nil, fmt.Errorf("scanning global config row: %w", err)
		}
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("global field %s: %w", field, err)
		}
		layer[field] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating global config: %w", err)
	}
	return layer, nil
}

// SetGlobalField writes one field of the global layer.
func (r *SQLiteRepository) SetGlobalField(ctx context.Context, field string, v Value) error {
	if field == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidValue)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding global field %s: %w", field, err)
	}

	query := `
		INSERT INTO global_config (field, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, field, string(raw), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing global field %s: %w", field, err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanWindow scans a window row into a Window struct.
func scanWindow(row rowScanner) (*Window, error) {
	var (
		w            Window
		groupID      sql.NullString
		indoorSensor sql.NullString
		overrides    string
		createdAt    string
		updatedAt    string
	)

	if err := row.Scan(&w.ID, &w.Name, &groupID, &indoorSensor, &overrides, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if groupID.Valid {
		w.GroupID = &groupID.String
	}
	w.IndoorSensor = indoorSensor.String

	if err := json.Unmarshal([]byte(overrides), &w.Overrides); err != nil {
		return nil, fmt.Errorf("decoding window overrides: %w", err)
	}
	w.CreatedAt = parseTimestamp(createdAt)
	w.UpdatedAt = parseTimestamp(updatedAt)
	return &w, nil
}

// scanGroup scans a group row into a Group struct.
func scanGroup(row rowScanner) (*Group, error) {
	var (
		g         Group
		overrides string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&g.ID, &g.Name, &g.Kind, &overrides, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(overrides), &g.Overrides); err != nil {
		return nil, fmt.Errorf("decoding group overrides: %w", err)
	}
	g.CreatedAt = parseTimestamp(createdAt)
	g.UpdatedAt = parseTimestamp(updatedAt)
	return &g, nil
}

// marshalLayer encodes a layer as JSON for storage. A nil layer stores as
// an empty object.
func marshalLayer(layer ConfigLayer) (string, error) {
	if layer == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(layer)
	if err != nil {
		return "", fmt.Errorf("encoding overrides: %w", err)
	}
	return string(raw), nil
}

// maxNameLength bounds window and group names.
const maxNameLength = 100

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}

// requireRow converts a zero-rows-affected result into notFound.
func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation detects SQLite primary key conflicts without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// parseTimestamp parses stored RFC3339 timestamps, tolerating the
// SQLite default strftime format from older rows.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
