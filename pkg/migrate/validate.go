package migrate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

var fileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// File is one SQL migration found on disk.
type File struct {
	Version int64
	Name    string
	Path    string
}

func parseVersion(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// scanDir lists the .sql migrations in dir ordered by version. Files whose
// names do not follow the goose convention are reported by ValidateDir.
func scanDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := fileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := parseVersion(m[1])
		if err != nil {
			continue
		}
		files = append(files, File{Version: v, Name: m[2], Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks every migration in dir: naming, unique versions, both
// goose sections present and balanced StatementBegin/End markers. All
// problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := fileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name
		errs = multierr.Append(errs, checkSections(filepath.Join(dir, name)))
	}
	return errs
}

func checkSections(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var up, down bool
	depth := 0
	line := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line++
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			up = true
		case "-- +goose Down":
			if depth != 0 {
				return fmt.Errorf("%s:%d: Down section starts inside an open statement", name, line)
			}
			down = true
		case "-- +goose StatementBegin":
			depth++
			if depth > 1 {
				return fmt.Errorf("%s:%d: nested StatementBegin", name, line)
			}
		case "-- +goose StatementEnd":
			depth--
			if depth < 0 {
				return fmt.Errorf("%s:%d: StatementEnd without StatementBegin", name, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	switch {
	case !up:
		return fmt.Errorf("%s: missing \"-- +goose Up\"", name)
	case !down:
		return fmt.Errorf("%s: missing \"-- +goose Down\"", name)
	case depth != 0:
		return fmt.Errorf("%s: unterminated StatementBegin", name)
	}
	return nil
}
