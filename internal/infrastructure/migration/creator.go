package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MigrationFile describes a freshly generated migration pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   time.Time
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down SQL pair into dir.
// The version prefix is the current UTC timestamp, so files sort
// in creation order.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	if name == "" {
		return nil, fmt.Errorf("migration name is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now().UTC()
	version := now.Format("20060102150405")
	slug := sanitizeName(name)

	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: description,
		Timestamp:   now,
		UpPath:      filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", version, slug)),
		DownPath:    filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", version, slug)),
	}

	if err := writeStub(mf.UpPath, "up", mf); err != nil {
		return nil, err
	}
	if err := writeStub(mf.DownPath, "down", mf); err != nil {
		os.Remove(mf.UpPath)
		return nil, err
	}

	return mf, nil
}

// ListMigrations returns the sorted up-migration filenames in dir
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

func writeStub(path, direction string, mf *MigrationFile) error {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Migration: %s (%s)\n", mf.Name, direction)
	if mf.Description != "" {
		fmt.Fprintf(&b, "-- Description: %s\n", mf.Description)
	}
	fmt.Fprintf(&b, "-- Created: %s\n\n", mf.Timestamp.Format(time.RFC3339))

	if direction == "up" {
		b.WriteString("-- Write the forward migration here\n")
	} else {
		b.WriteString("-- Write the rollback for the up migration here\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s migration: %w", direction, err)
	}
	return nil
}

// sanitizeName lowercases the name and collapses anything outside
// [a-z0-9] into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
