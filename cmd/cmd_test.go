package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/census-bulk-importer/internal/config"
	"github.com/ginjaninja78/census-bulk-importer/internal/editor"
	"github.com/ginjaninja78/census-bulk-importer/internal/preview"
	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

const sampleCSV = "COMUNIDAD,TORRE,CASA O APTO,APELLIDOS Y NOMBRES,CEDULA\n" +
	"Norte,1,101,Pérez Ana,123\n" +
	"Sur,,,Rojas Eva,456\n"

type fixture struct {
	dir        string
	input      string
	archiveDir string
	configPath string
}

func newFixture(t *testing.T, csv, endpoint string, extraConfig ...string) fixture {
	t.Helper()
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvCensusFile, "")

	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		input:      filepath.Join(dir, "censo.csv"),
		archiveDir: filepath.Join(dir, "imported"),
		configPath: filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.WriteFile(f.input, []byte(csv), 0o644))

	cfg := "archive_dir: " + f.archiveDir + "\nlog_level: error\n"
	if endpoint != "" {
		cfg += "endpoint: " + endpoint + "\n"
	}
	for _, line := range extraConfig {
		cfg += line + "\n"
	}
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o644))
	return f
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	importFile, importEdit, dryRun, endpointOverride, keepInput, accessible = "", false, false, "", false, false
	previewFile, previewPlain, previewShowIDs = "", false, false
	verbose = false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestPreviewCommand(t *testing.T) {
	f := newFixture(t, sampleCSV, "")

	out, err := run(t, "preview", "--config", f.configPath, "--file", f.input, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Comunidad: Norte")
	assert.Contains(t, out, "Torre: Sin Torre")
	assert.Contains(t, out, "Rojas Eva")
	assert.Contains(t, out, "2 registros, 2 comunidades")
}

func TestPreviewEmptyFile(t *testing.T) {
	f := newFixture(t, "COMUNIDAD,TORRE\n", "")

	out, err := run(t, "preview", "--config", f.configPath, "--file", f.input)
	require.NoError(t, err)
	assert.Contains(t, out, preview.EmptyMessage)
}

func TestImportDryRun(t *testing.T) {
	f := newFixture(t, sampleCSV, "")

	out, err := run(t, "import", "--config", f.configPath, "--file", f.input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"datos": [`)
	assert.Contains(t, out, `"APELLIDOS Y NOMBRES": "Pérez Ana"`)
	assert.FileExists(t, f.input)
}

func TestImportSubmitsAndArchives(t *testing.T) {
	var received struct {
		Datos []map[string]string `json:"datos"`
	}
	var session string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session = r.Header.Get("X-Import-Session")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
	}))
	defer srv.Close()

	f := newFixture(t, sampleCSV, srv.URL+"/api/bulk-import")

	out, err := run(t, "import", "--config", f.configPath, "--file", f.input)
	require.NoError(t, err)
	assert.Contains(t, out, "2 registros enviados")

	require.Len(t, received.Datos, 2)
	assert.Equal(t, "Norte", received.Datos[0]["COMUNIDAD"])
	assert.Equal(t, map[string]string{"COMUNIDAD": "Sur", "APELLIDOS Y NOMBRES": "Rojas Eva", "CEDULA": "456"}, received.Datos[1])
	assert.NotEmpty(t, session)

	assert.NoFileExists(t, f.input)
	assert.FileExists(t, filepath.Join(f.archiveDir, "censo.csv"))
}

func TestImportFailureSavesRecovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFixture(t, sampleCSV, srv.URL)

	_, err := run(t, "import", "--config", f.configPath, "--file", f.input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	assert.FileExists(t, f.input)
	pending, err := filepath.Glob(filepath.Join(f.archiveDir, "pending", "import_*.json"))
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestImportEndpointFlagOverridesConfig(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	f := newFixture(t, sampleCSV, "http://127.0.0.1:1/unused")

	_, err := run(t, "import", "--config", f.configPath, "--file", f.input, "--endpoint", srv.URL, "--keep")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.FileExists(t, f.input)
}

func TestVersionCommand(t *testing.T) {
	f := newFixture(t, sampleCSV, "")
	out, err := run(t, "version", "--config", f.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Census Bulk Importer")
	assert.Contains(t, out, "Version:    "+Version)
}

func TestPreviewCaseVariantColumns(t *testing.T) {
	f := newFixture(t, "COMUNIDAD,APELLIDOS Y NOMBRES,Fecha,FECHA\nNorte,Pérez Ana,2020,2021\n", "")

	out, err := run(t, "preview", "--config", f.configPath, "--file", f.input, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Comunidad: Norte")
	assert.Contains(t, out, "Pérez Ana")
}

func TestImportDryRunCaseVariantColumns(t *testing.T) {
	f := newFixture(t, "COMUNIDAD,FECHA NAC,FECHA-NAC\nNorte,1990,1991\n", "")

	out, err := run(t, "import", "--config", f.configPath, "--file", f.input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"FECHA NAC": "1990"`)
	assert.Contains(t, out, `"FECHA-NAC_1": "1991"`)
}

func TestPreviewPrintsWarningCount(t *testing.T) {
	f := newFixture(t, "COMUNIDAD,TORRE,APELLIDOS Y NOMBRES\nNorte,1,\nSur,2,Rojas Eva\n", "")

	out, err := run(t, "preview", "--config", f.configPath, "--file", f.input, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Advertencias: 2")
}

func TestImportArchivesIntoDateSubdirs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	f := newFixture(t, sampleCSV, srv.URL, "archive_subdirs: true")

	_, err := run(t, "import", "--config", f.configPath, "--file", f.input)
	require.NoError(t, err)

	archived, err := filepath.Glob(filepath.Join(f.archiveDir, "*", "*", "*", "censo.csv"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)
	assert.NoFileExists(t, filepath.Join(f.archiveDir, "censo.csv"))
}

// abortingPrompter renames the first record, then cancels the record list.
type abortingPrompter struct {
	calls int
}

func (a *abortingPrompter) ChooseRecord([]editor.Choice) (string, error) {
	a.calls++
	if a.calls == 1 {
		return "person_1", nil
	}
	return "", editor.ErrAborted
}

func (a *abortingPrompter) EditRecord(_ string, fields []types.Field) ([]types.Field, error) {
	out := append([]types.Field(nil), fields...)
	for i := range out {
		if out[i].Name == "APELLIDOS Y NOMBRES" {
			out[i].Value = "Rojas Eva María"
		}
	}
	return out, nil
}

func (a *abortingPrompter) ConfirmRetry(error) (bool, error) { return false, nil }

func TestImportEditAbortSavesRecovery(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer srv.Close()

	f := newFixture(t, sampleCSV, srv.URL)
	prompter = &abortingPrompter{}
	t.Cleanup(func() { prompter = nil })

	_, err := run(t, "import", "--config", f.configPath, "--file", f.input, "--edit")
	assert.ErrorIs(t, err, editor.ErrAborted)
	assert.Zero(t, hits)
	assert.FileExists(t, f.input)

	pending, err := filepath.Glob(filepath.Join(f.archiveDir, "pending", "import_*.json"))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	data, err := os.ReadFile(pending[0])
	require.NoError(t, err)
	var saved struct {
		Datos []map[string]string `json:"datos"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved.Datos, 2)
	assert.Equal(t, "Rojas Eva María", saved.Datos[1]["APELLIDOS Y NOMBRES"])
}
