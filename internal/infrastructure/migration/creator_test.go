package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/joinville/accounts/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add phones table", "add_phones_table"},
		{"Add-Phones-Table", "add_phones_table"},
		{"ADD_PHONES_TABLE", "add_phones_table"},
		{"add__phones__table", "add_phones_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"assinatura eletrônica", "assinatura_eletrnica"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add phone index", "Index phones by number")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_phone_index.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_phone_index.down.sql"), first.DownPath)

	upContent, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add_phone_index")
	assert.Contains(t, string(upContent), "Index phones by number")

	downContent, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")

	second, err := CreateMigration(dir, "drop legacy columns", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
}

func TestCreateMigration_ContinuesExistingSequence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.up.sql"), []byte("--"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.down.sql"), []byte("--"), 0o644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, "000008", mf.Version)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "test migration")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_add_index.up.sql":         {Data: []byte("--")},
		"000010_add_index.down.sql":       {Data: []byte("--")},
		"000002_create_identity.up.sql":   {Data: []byte("--")},
		"000002_create_identity.down.sql": {Data: []byte("--")},
		"000001_create_accounts.up.sql":   {Data: []byte("--")},
		"README.md":                       {Data: []byte("docs")},
		"nested.up.sql/000003_x.up.sql":   {Data: []byte("--")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_accounts", "000002_create_identity", "000010_add_index"}, got)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_accounts", "000002_create_identity", "000003_create_access", "000004_people_signature_checked_at"}, got)

	for _, name := range got {
		_, err := migrations.FS.ReadFile(name + ".down.sql")
		assert.NoError(t, err, name)
	}
}
