package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-enricher/internal/config"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/nexconsult/cnpj-enricher/internal/utils"
	"github.com/nexconsult/cnpj-enricher/internal/worker"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brasilAPIPayload = `{
	"razao_social": "EMPRESA EXEMPLO LTDA",
	"nome_fantasia": "EXEMPLO",
	"inscricoes_estaduais": [],
	"cep": "01311000",
	"logradouro": "AVENIDA PAULISTA",
	"numero": "1000",
	"complemento": null,
	"bairro": "BELA VISTA",
	"municipio": "SAO PAULO",
	"uf": "SP",
	"ddd_telefone_1": "1133334444",
	"correio_eletronico": "contato@exemplo.com.br"
}`

type testEnv struct {
	server *Server
	runner *worker.Runner
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/11222333000181") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(brasilAPIPayload))
	}))
	t.Cleanup(registry.Close)

	cfg := config.Defaults()
	cfg.Lookup.BaseURL = registry.URL + "/api/cnpj/v1"
	cfg.Lookup.RetryDelay = time.Millisecond
	cfg.Lookup.PacingDelay = 0
	cfg.Security.RateLimit.RequestsPerMinute = 0
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	container, err := services.NewContainer(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	runner := worker.NewRunner(container.Pipeline, container.JobStore, cfg.Jobs.QueueSize, cfg.Jobs.MaxLogLines, logger)
	runner.Start()
	t.Cleanup(runner.Stop)

	return &testEnv{
		server: NewServer(ctx, cfg, logger, container, runner),
		runner: runner,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) submitCSV(t *testing.T, body string) models.JobResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs?filename=empresas.csv", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")

	w := e.do(req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var job models.JobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	return job
}

func (e *testEnv) waitFinished(t *testing.T, id string) models.JobResponse {
	t.Helper()
	var job models.JobResponse
	require.Eventually(t, func() bool {
		w := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+id, nil))
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status.Finished()
	}, 3*time.Second, 10*time.Millisecond)
	return job
}

func TestJobLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	job := env.submitCSV(t, "Nome,CNPJ\nA,11.444.777/0001-61\nB,00000000000000\nC,11222333000181\n")
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, "empresas.csv", job.Source)
	assert.Equal(t, 3, job.Total)

	done := env.waitFinished(t, job.ID)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.Equal(t, 3, done.Processed)
	assert.Equal(t, 1, done.SuccessCount)
	assert.Equal(t, 2, done.ErrorCount)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/results/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "cnpjs_ok.csv")
	assert.Equal(t,
		"CNPJ,Razao Social,Nome Fantasia,Inscrição Estadual,Cep,Endereço,Numero,Complemento,Bairro,Cidade,UF,Telefone,E-mail\n"+
			"11444777000161,EMPRESA EXEMPLO LTDA,EXEMPLO,,01311000,AVENIDA PAULISTA,1000,,BELA VISTA,SAO PAULO,SP,1133334444,contato@exemplo.com.br\n",
		w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/results/errors", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CNPJ,Erro\n00000000000000,invalid sequence\n11222333000181,CNPJ não encontrado\n", w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+job.ID+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateJob_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "lista.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("CNPJ\n11444777000161\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := env.do(req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var job models.JobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "lista.csv", job.Source)
	assert.Equal(t, "/api/v1/jobs/"+job.ID, w.Header().Get("Location"))

	done := env.waitFinished(t, job.ID)
	assert.Equal(t, 1, done.SuccessCount)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/results/errors", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateJob_InvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader("Nome\nA\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_INPUT", resp.Code)
	assert.Contains(t, resp.Message, "Coluna 'CNPJ' não encontrada")
}

func TestCreateJob_MultipartWithoutFile(t *testing.T) {
	env := newTestEnv(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJob_TooLarge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Jobs.MaxUploadBytes = 16
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader("CNPJ\n11444777000161\n11222333000181\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := env.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestJobNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{
		"/api/v1/jobs/missing",
		"/api/v1/jobs/missing/results/ok",
		"/api/v1/jobs/missing/results/errors",
	} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "JOB_NOT_FOUND", path)
	}

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/jobs/missing/cancel", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateCNPJ(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/cnpj/11444777000161/validate", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info utils.CNPJInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Validation.Valid)
	assert.Equal(t, "11.444.777/0001-61", info.Formatted)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/cnpj/11444777000162/validate", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.False(t, info.Validation.Valid)
	assert.Equal(t, "check digit 2 invalid", info.Validation.Reason)
}

func TestValidateBatch(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cnpj/validate",
		strings.NewReader(`{"cnpjs": ["11.444.777/0001-61", "00000000000000", "123"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ValidateBatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Valid)
	assert.Equal(t, 2, resp.Invalid)
	assert.Equal(t, "invalid sequence", resp.Results[1].Validation.Reason)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cnpj/validate", strings.NewReader(`{"cnpjs": []}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Services, "job_store")
	assert.Contains(t, health.Services, "lookup")
	assert.Contains(t, health.Services, "pipeline")

	w = env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":true`)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	job := env.submitCSV(t, "CNPJ\n11444777000161\n")
	env.waitFinished(t, job.ID)

	var metrics models.MetricsResponse
	require.Eventually(t, func() bool {
		w := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &metrics) != nil {
			return false
		}
		return metrics.Jobs.Completed == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), metrics.Jobs.Total)
	assert.Equal(t, int64(1), metrics.Lookups)
	assert.Positive(t, metrics.System.Goroutines)
}

func TestSwaggerHiddenInProduction(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.Environment = "production"
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoRouteAndNoMethod(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
