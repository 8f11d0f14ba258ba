package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: scope rows by terminal_id so several tills can share one database.
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// Scaffolder writes new goose migration files. Now defaults to time.Now.
type Scaffolder struct {
	Dir string
	Now func() time.Time
}

// CreateSQLMigration scaffolds <dir>/<version>_<slug>.sql using the wall clock.
func CreateSQLMigration(dir, name string) (string, error) {
	return Scaffolder{Dir: dir}.Create(name)
}

// Create writes an empty Up/Down migration and returns its path.
func (s Scaffolder) Create(name string) (string, error) {
	if s.Dir == "" {
		return "", errors.New("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", s.Dir, err)
	}

	target := filepath.Join(s.Dir, now().UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", target)
		}
		return "", fmt.Errorf("create migration %q: %w", target, err)
	}
	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close migration %q: %w", target, err)
	}
	return target, nil
}

// migrationSlug lowercases name and folds every run of non [a-z0-9] into one underscore.
func migrationSlug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
