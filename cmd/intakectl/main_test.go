package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLevelCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "child stops at first no",
			args: []string{"level", "--birthday", "2017-04-02", "--now", "2024-06-15", "--skills", "n"},
			want: []string{"Age bracket: child", "Level: BEGINNER 1", "Face-in-water comfort is still developing."},
		},
		{
			name: "toddler with parent",
			args: []string{"level", "--birthday", "2022-01-10", "--now", "2024-06-15", "--parent-in-water"},
			want: []string{"Age bracket: toddler", "Level: PARENTTOT"},
		},
		{
			name: "toddler needs parent answer",
			args: []string{"level", "--birthday", "2022-01-10", "--now", "2024-06-15"},
			want: []string{"Incomplete: pass --parent-in-water"},
		},
		{
			name: "adult",
			args: []string{"level", "--birthday", "1990-01-01", "--now", "2024-06-15"},
			want: []string{"Age bracket: adult", "(ADULT_1)"},
		},
		{
			name: "too young",
			args: []string{"level", "--birthday", "2024-05-01", "--now", "2024-06-15"},
			want: []string{"Age bracket: too_young", "A little too young"},
		},
		{
			name: "next skill",
			args: []string{"level", "--birthday", "2017-04-02", "--now", "2024-06-15", "--skills", "yy"},
			want: []string{"Incomplete: skill 3: Can your swimmer float on front and back independently?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, "", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestLevelCommandErrors(t *testing.T) {
	_, err := runCmd(t, "", "level")
	assert.Error(t, err, "birthday is required")

	_, err = runCmd(t, "", "level", "--birthday", "04/02/2017")
	assert.ErrorContains(t, err, "invalid --birthday")

	_, err = runCmd(t, "", "level", "--birthday", "2017-04-02", "--skills", "yx")
	assert.ErrorContains(t, err, "invalid --skills")

	_, err = runCmd(t, "", "level", "--birthday", "2017-04-02", "--skills", strings.Repeat("y", 14))
	assert.ErrorContains(t, err, "only 13 checks")
}

func TestMatchCommand(t *testing.T) {
	out, err := runCmd(t, "", "match", "B", "B", "A", "D")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Equal(t, "Structure     70", lines[0])
	assert.Contains(t, out, "Internal code: B")
	assert.Contains(t, out, "Primary: Structured Sam / Steven")
	assert.NotContains(t, out, "Secondary:")

	_, err = runCmd(t, "", "match", "A", "B", "C")
	assert.Error(t, err)

	_, err = runCmd(t, "", "match", "A", "B", "C", "E")
	assert.ErrorContains(t, err, "question 4")
}

func TestCatalogValidateCommand(t *testing.T) {
	out, err := runCmd(t, "", "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog (embedded) is valid")
	assert.Contains(t, out, "skills:       13")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("locations: []\n"), 0o644))
	_, err = runCmd(t, "", "catalog", "validate", "--file", bad)
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := runCmd(t, "", "hash-password", "s3cret-pass")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))

	out, err = runCmd(t, "from-stdin-1\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin-1")))

	_, err = runCmd(t, "", "hash-password", "short")
	assert.ErrorContains(t, err, "at least 8")
}
