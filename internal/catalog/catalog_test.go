package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	c, err := Load("")

	require.NoError(t, err)
	require.NotEmpty(t, c.Exams)
	require.NotEmpty(t, c.Levels)
	for _, e := range c.Exams {
		require.NotEmpty(t, e.Name)
		require.NotEmpty(t, e.Cargos, "exam %q", e.Name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
exams:
  - name: Concurso X
    cargos:
      - name: Cargo X1
        subjects: [Português]
levels: [Iniciante]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)

	require.NoError(t, err)
	require.Len(t, c.Exams, 1)
	require.Equal(t, "Concurso X", c.Exams[0].Name)
	require.Equal(t, []string{"Português"}, c.Exams[0].Cargos[0].Subjects)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
}

func TestLoadRejectsInvalidCatalog(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "{{{"},
		{name: "no exams", content: "levels: [Iniciante]"},
		{name: "no levels", content: "exams: [{name: X, cargos: [{name: Y}]}]"},
		{name: "exam without cargos", content: "exams: [{name: X}]\nlevels: [Iniciante]"},
		{name: "cargo without name", content: "exams: [{name: X, cargos: [{subjects: [A]}]}]\nlevels: [Iniciante]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLookups(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	exam, ok := c.Exam(c.Exams[0].Name)
	require.True(t, ok)
	require.Equal(t, c.Exams[0].Name, exam.Name)

	cargo, ok := c.Cargo(c.Exams[0].Name, c.Exams[0].Cargos[0].Name)
	require.True(t, ok)
	require.Equal(t, c.Exams[0].Cargos[0].Name, cargo.Name)

	_, ok = c.Exam("does not exist")
	require.False(t, ok)

	_, ok = c.Cargo(c.Exams[0].Name, "does not exist")
	require.False(t, ok)
}
