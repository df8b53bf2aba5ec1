package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nexconsult/cnpj-enricher/internal/report"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/nexconsult/cnpj-enricher/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cnpj-enricher", cmd.Use)

	for _, name := range []string{"run", "validate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, "command %s should exist", name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	input := runCmd.Flags().Lookup("input")
	require.NotNil(t, input)
	assert.Equal(t, "i", input.Shorthand)

	out := runCmd.Flags().Lookup("output-dir")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)
	assert.Equal(t, ".", out.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "validate", "--format", "xml", "11444777000161")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate_Text(t *testing.T) {
	stdout, _, err := execute(t, "validate", "11.444.777/0001-61", "00000000000000")

	require.ErrorIs(t, err, ErrInvalidCNPJ)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "11.444.777/0001-61")
	assert.True(t, strings.HasSuffix(lines[0], "OK"))
	assert.True(t, strings.HasSuffix(lines[1], "invalid sequence"))
}

func TestValidate_AllValid(t *testing.T) {
	_, _, err := execute(t, "validate", "11444777000161", "11222333000181")

	assert.NoError(t, err)
}

func TestValidate_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "validate", "11444777000162")

	require.True(t, errors.Is(err, ErrInvalidCNPJ))
	var infos []utils.CNPJInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "check digit 2 invalid", infos[0].Validation.Reason)
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, _, err := execute(t, "validate")

	assert.Error(t, err)
}

func setupRegistry(t *testing.T, calls *int32) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if strings.HasSuffix(r.URL.Path, "/11222333000181") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"razao_social": "EMPRESA EXEMPLO LTDA", "uf": "SP"}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOOKUP_BASE_URL", srv.URL+"/api/cnpj/v1")
	t.Setenv("LOOKUP_PACING_DELAY", "0")
	t.Setenv("LOOKUP_RETRY_DELAY", "1ms")
}

func TestRun_WritesReports(t *testing.T) {
	var calls int32
	setupRegistry(t, &calls)

	dir := t.TempDir()
	input := filepath.Join(dir, "empresas.csv")
	require.NoError(t, os.WriteFile(input, []byte("Nome,CNPJ\nA,11.444.777/0001-61\nB,123\nC,11222333000181\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	stdout, stderr, err := execute(t, "run", "--input", input, "--output-dir", outDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "11444777000161 OK")
	assert.Contains(t, stdout, "--- Concluído! ---")
	assert.Contains(t, stdout, "1 sucesso(s), 2 erro(s)")
	assert.Contains(t, stderr, "00000000000123 inválido: check digit 1 invalid")
	assert.Contains(t, stderr, "Erro: CNPJ não encontrado")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	ok, err := os.ReadFile(filepath.Join(outDir, report.OKFileName))
	require.NoError(t, err)
	assert.Contains(t, string(ok), "11444777000161,EMPRESA EXEMPLO LTDA")

	failures, err := os.ReadFile(filepath.Join(outDir, report.ErrorsFileName))
	require.NoError(t, err)
	assert.Equal(t, "CNPJ,Erro\n123,check digit 1 invalid\n11222333000181,CNPJ não encontrado\n", string(failures))
}

func TestRun_JSONSummary(t *testing.T) {
	var calls int32
	setupRegistry(t, &calls)

	dir := t.TempDir()
	input := filepath.Join(dir, "empresas.csv")
	require.NoError(t, os.WriteFile(input, []byte("CNPJ\n11444777000161\n"), 0o644))

	stdout, _, err := execute(t, "--format", "json", "run", "-i", input, "-o", dir)
	require.NoError(t, err)

	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, "empresas.csv", summary.Source)
	assert.Equal(t, 1, summary.Successes)
	assert.Equal(t, 0, summary.Failures)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, []string{filepath.Join(dir, report.OKFileName)}, summary.Files)
}

func TestRun_MissingColumn(t *testing.T) {
	var calls int32
	setupRegistry(t, &calls)

	input := filepath.Join(t.TempDir(), "empresas.csv")
	require.NoError(t, os.WriteFile(input, []byte("Nome\nA\n"), 0o644))

	_, _, err := execute(t, "run", "--input", input)

	var inputErr *services.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRun_RequiresInput(t *testing.T) {
	_, _, err := execute(t, "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}
