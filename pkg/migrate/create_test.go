package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestSlug(t *testing.T) {
	require.Equal(t, "add_box_ratings", Slug("  Add Box--Ratings! "))
	require.Equal(t, "", Slug("!!!"))
}

func TestCreateAtBumpsTakenVersion(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := createAt(dir, "one", at)
	require.NoError(t, err)
	second, err := createAt(dir, "two", at)
	require.NoError(t, err)

	require.Equal(t, "20250301100000_one.sql", filepath.Base(first))
	require.Equal(t, "20250301100001_two.sql", filepath.Base(second))

	files, err := scanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "one", files[0].Name)
}

func TestValidateDirCollectsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("bad-name.sql", "-- +goose Up\n-- +goose Down\n")
	write("20250101000000_no_down.sql", "-- +goose Up\nSELECT 1;\n")
	write("20250101000001_open.sql", "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n")

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 3)
}
