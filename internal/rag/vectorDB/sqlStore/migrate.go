package sqlStore

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration is one NNN_name.up.sql file split into statements.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// RunMigrations applies, in version order, every NNN_name.up.sql file in files
// newer than current. apply runs the statements and records the version.
// Files whose name does not start with a number are ignored.
func RunMigrations(ctx context.Context, files fs.FS, current int, apply func(ctx context.Context, m Migration) error) ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	var applied []string
	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(files, name)
		if err != nil {
			return applied, fmt.Errorf("reading migration %s: %w", name, err)
		}
		m := Migration{Version: version, Name: name, Statements: SplitStatements(string(content))}
		if err := apply(ctx, m); err != nil {
			return applied, fmt.Errorf("executing migration %s: %w", name, err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}

// migrate brings the schema up to the newest file in the dialect's migrations.
// Each file may hold several statements separated by semicolons.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at VARCHAR(64) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	applied, err := RunMigrations(ctx, s.dialect.Migrations, currentVersion, func(ctx context.Context, m Migration) error {
		for _, stmt := range m.Statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			m.Version, s.clock().UTC().Format(TextTimeLayout))
		return err
	})
	for _, name := range applied {
		s.logger.Info("applied migration", "backend", s.dialect.Name, "file", name)
	}
	return err
}

// SplitStatements cuts a migration file on semicolons and drops blank pieces
// and pieces that are only comments.
func SplitStatements(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
