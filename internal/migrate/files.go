package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/calljmp/cli/pkg/types"
)

// migrationFilePattern matches tracked migration filenames: a numeric version
// prefix, a dash or underscore, and a name. Both zero-padded and
// Unix-seconds prefixes satisfy it. Everything else in the directory is
// ignored.
var migrationFilePattern = regexp.MustCompile(`^(\d+)[-_]([a-zA-Z0-9_-]+)\.sql$`)

// migrationNamePattern constrains names passed to CreateFile.
var migrationNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ListFiles discovers migration files in dir, sorted by ascending version
// then name. A missing directory yields an empty list.
func ListFiles(dir string) ([]types.MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var files []types.MigrationFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue // prefix too large to track, ignore like a non-match
		}
		files = append(files, types.MigrationFile{
			Version: version,
			Name:    m[2],
			Path:    filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Version != files[j].Version {
			return files[i].Version < files[j].Version
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// CreateFile generates a new empty migration file in dir. The version prefix
// is the next zero-padded sequence number, or the current Unix seconds when
// timestamped is set. Returns the created path.
func CreateFile(dir, name string, timestamped bool) (string, error) {
	if !migrationNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid migration name %q: use letters, digits, dashes, underscores", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	var prefix string
	if timestamped {
		prefix = strconv.FormatInt(time.Now().Unix(), 10)
	} else {
		existing, err := ListFiles(dir)
		if err != nil {
			return "", err
		}
		var next int64 = 1
		for _, f := range existing {
			if f.Version >= next {
				next = f.Version + 1
			}
		}
		prefix = fmt.Sprintf("%04d", next)
	}

	path := filepath.Join(dir, prefix+"-"+name+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating migration file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "-- Migration: %s\n\n", name); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return path, nil
}

// LoadSchemaDir concatenates every .sql file of a schema directory in
// filename order into one DDL script.
func LoadSchemaDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading schema dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		content, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return "", fmt.Errorf("reading schema file %s: %w", n, err)
		}
		b.Write(content)
		if !strings.HasSuffix(string(content), "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
