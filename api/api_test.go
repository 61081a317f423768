package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyerfyer/contract-filler/api/handler"
	"github.com/fyerfyer/contract-filler/api/middleware"
	"github.com/fyerfyer/contract-filler/api/model"
	"github.com/fyerfyer/contract-filler/internal/cache"
	"github.com/fyerfyer/contract-filler/internal/database"
	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/docx/docxtest"
	"github.com/fyerfyer/contract-filler/internal/repository"
	"github.com/fyerfyer/contract-filler/internal/services"
	"github.com/fyerfyer/contract-filler/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	Router  *gin.Engine
	Cache   cache.Cache
	Service *services.ContractService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	middleware.SetLogger(logger)

	dbName := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	service := services.NewContractService(fileStorage,
		services.WithLogger(logger),
		services.WithCache(memCache),
		services.WithRunRepository(repository.NewRunRepositoryWithDB(db)),
		services.WithWorkDir(t.TempDir()),
		services.WithDownloadTTL(time.Hour),
	)

	router := SetupRouter(
		handler.NewContractHandler(service, ""),
		handler.NewExtractHandler(service),
		32<<20,
	)
	return &testEnv{Router: router, Cache: memCache, Service: service}
}

var templateBody = []string{
	docxtest.P(docxtest.R("Vendedor: JOÃO DE SOUZA, brasileiro(a), natural de ________.")),
	docxtest.P(docxtest.R("ITBI guia {{GUIA_ITBI}} no valor de {{VALOR_ITBI}}.")),
	docxtest.P(docxtest.R("Contrato {{NUM_CONTRATO}}")),
}

func fixture(t *testing.T, slot services.Slot) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "internal", "services", "testdata", string(slot)+".txt"))
	require.NoError(t, err)
	return data
}

type formFile struct {
	field, name string
	data        []byte
}

func contractFiles(t *testing.T, footer ...string) []formFile {
	t.Helper()
	files := []formFile{{"modelo", "modelo.docx", docxtest.Build(t, templateBody, footer)}}
	for _, slot := range services.SourceSlots() {
		files = append(files, formFile{string(slot), string(slot) + ".txt", fixture(t, slot)})
	}
	return files
}

func multipartRequest(t *testing.T, url string, files []formFile, values map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) model.Response {
	t.Helper()
	var resp model.Response
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func fillContract(t *testing.T, env *testEnv) model.FillContractResponse {
	t.Helper()
	req := multipartRequest(t, "/api/contracts", contractFiles(t, docxtest.P(docxtest.R("Contrato nº 2024/0077"))), map[string]string{"sexo": "feminino"})
	w := serve(env, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data model.FillContractResponse
	resp := decode(t, w, &data)
	require.Equal(t, 0, resp.Code)
	return data
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestTraceIDPropagated(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/contracts/nao-existe", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	w := serve(env, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))
	resp := decode(t, w, nil)
	assert.Equal(t, "trace-123", resp.TraceID)
}

func TestFillContract(t *testing.T) {
	env := setupTestEnv(t)

	data := fillContract(t, env)
	assert.NotEmpty(t, data.RunID)
	assert.Equal(t, "completed", data.Status)
	assert.Equal(t, "2024/0077", data.ContractNumber)
	assert.Equal(t, "São Paulo - SP", data.Fields["ficha"]["NATURALIDADE"])
	assert.Equal(t, "2024.000.123-4", data.Fields["itbi"]["GUIA_ITBI"])
	assert.Equal(t, services.DefaultOutputName, data.FileName)
	assert.Equal(t, "/api/contracts/"+data.RunID+"/download", data.DownloadURL)
	assert.NotEmpty(t, data.Events)
	assert.Empty(t, data.Unresolved)

	w := serve(env, httptest.NewRequest(http.MethodGet, data.DownloadURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, docx.MimeType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), services.DefaultOutputName)
	assert.Equal(t, data.RunID, w.Header().Get("X-Run-ID"))

	doc, err := docx.Open(w.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Vendedor: JOÃO DE SOUZA, brasileira, natural de São Paulo - SP.")
	assert.Contains(t, doc.Text(), "R$ 10.500,00")
	assert.Contains(t, doc.Text(), "Contrato 2024/0077")
}

func TestFillContract_WithoutRunHistory(t *testing.T) {
	env := setupTestEnv(t)
	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	service := services.NewContractService(fileStorage, services.WithWorkDir(t.TempDir()))
	env.Router = SetupRouter(handler.NewContractHandler(service, ""), handler.NewExtractHandler(service), 32<<20)

	data := fillContract(t, env)
	assert.NotEmpty(t, data.RunID)
	assert.Empty(t, data.DownloadURL)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/"+data.RunID+"/download", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := multipartRequest(t, "/api/contracts?download=true", contractFiles(t), nil)
	w = serve(env, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, docx.MimeType, w.Header().Get("Content-Type"))
}

func TestFillContract_DirectDownload(t *testing.T) {
	env := setupTestEnv(t)

	req := multipartRequest(t, "/api/contracts?download=true", contractFiles(t), nil)
	w := serve(env, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, docx.MimeType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=contrato_preenchido.docx`, w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))

	doc, err := docx.Open(w.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Contrato {{NUM_CONTRATO}}")
	assert.Contains(t, doc.Text(), "brasileiro")
}

func TestFillContract_MissingUpload(t *testing.T) {
	env := setupTestEnv(t)

	files := contractFiles(t)[:3]
	w := serve(env, multipartRequest(t, "/api/contracts", files, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Documento ausente", resp.Message)
}

func TestFillContract_InvalidGender(t *testing.T) {
	env := setupTestEnv(t)

	w := serve(env, multipartRequest(t, "/api/contracts", contractFiles(t), map[string]string{"sexo": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFillContract_InvalidTemplateType(t *testing.T) {
	env := setupTestEnv(t)

	files := contractFiles(t)
	files[0].name = "modelo.pdf"
	w := serve(env, multipartRequest(t, "/api/contracts", files, nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Tipo de documento inválido", decode(t, w, nil).Message)
}

func TestFillContract_ParseFailure(t *testing.T) {
	env := setupTestEnv(t)

	files := contractFiles(t)
	for i := range files {
		if files[i].field == "matricula" {
			files[i] = formFile{"matricula", "matricula.pdf", []byte("%PDF-1.4 corrompido")}
		}
	}
	w := serve(env, multipartRequest(t, "/api/contracts", files, nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var data model.FailedRunResponse
	resp := decode(t, w, &data)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.NotEmpty(t, data.RunID)
	require.NotEmpty(t, data.Events)
	assert.Equal(t, "error", string(data.Events[len(data.Events)-1].Level))

	w = serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/"+data.RunID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var run model.RunDetailResponse
	decode(t, w, &run)
	assert.Equal(t, "failed", run.Status)
	assert.Empty(t, run.DownloadURL)

	w = serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/"+data.RunID+"/download", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetRunAndList(t *testing.T) {
	env := setupTestEnv(t)
	first := fillContract(t, env)
	second := fillContract(t, env)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/"+first.RunID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var detail model.RunDetailResponse
	decode(t, w, &detail)
	assert.Equal(t, first.RunID, detail.RunID)
	assert.Equal(t, "feminino", detail.Gender)
	assert.Equal(t, "modelo.docx", detail.TemplateName)
	assert.Equal(t, "2024/0077", detail.ContractNumber)
	assert.Equal(t, "São Paulo - SP", detail.Fields["ficha"]["NATURALIDADE"])
	assert.Len(t, detail.Events, len(first.Events))

	w = serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts?page=1&page_size=1&status=completed", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list model.RunListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 1, list.PageSize)
	require.Len(t, list.Runs, 1)
	assert.Contains(t, []string{first.RunID, second.RunID}, list.Runs[0].RunID)
	assert.NotEmpty(t, list.Runs[0].DownloadURL)

	w = serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts?status=desconhecido", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/nao-existe", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, decode(t, w, nil).Code)

	w = serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/nao-existe/download", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownload_Expired(t *testing.T) {
	env := setupTestEnv(t)
	data := fillContract(t, env)

	require.NoError(t, env.Cache.Clear())

	w := serve(env, httptest.NewRequest(http.MethodGet, data.DownloadURL, nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "Download expirado", decode(t, w, nil).Message)
}

func TestReport(t *testing.T) {
	env := setupTestEnv(t)
	data := fillContract(t, env)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/contracts/"+data.RunID+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), data.RunID)
	assert.Contains(t, w.Body.String(), "<table>")
}

func TestExtractDocument(t *testing.T) {
	env := setupTestEnv(t)

	req := multipartRequest(t, "/api/extract/itbi", []formFile{{"file", "guia.txt", fixture(t, services.SlotTransferTax)}}, nil)
	w := serve(env, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data model.ExtractResponse
	decode(t, w, &data)
	assert.Equal(t, "itbi", data.Kind)
	assert.Equal(t, "2024.000.123-4", data.Fields["GUIA_ITBI"])
	assert.Equal(t, "R$ 10.500,00", data.Fields["VALOR_ITBI"])
	assert.Empty(t, data.Missing)
}

func TestExtractDocument_ContractNumber(t *testing.T) {
	env := setupTestEnv(t)

	template := docxtest.Build(t, templateBody, []string{docxtest.P(docxtest.R("Contrato nº 2024/0077"))})
	req := multipartRequest(t, "/api/extract/contrato", []formFile{{"file", "modelo.docx", template}}, nil)
	w := serve(env, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data model.ExtractResponse
	decode(t, w, &data)
	assert.Equal(t, "2024/0077", data.Fields["NUM_CONTRATO"])
}

func TestExtractDocument_BadRequests(t *testing.T) {
	env := setupTestEnv(t)

	req := multipartRequest(t, "/api/extract/passaporte", []formFile{{"file", "x.txt", []byte("x")}}, nil)
	assert.Equal(t, http.StatusBadRequest, serve(env, req).Code)

	req = multipartRequest(t, "/api/extract/itbi", nil, map[string]string{"outro": "x"})
	assert.Equal(t, http.StatusBadRequest, serve(env, req).Code)

	req = multipartRequest(t, "/api/extract/itbi", []formFile{{"file", "guia.exe", []byte("x")}}, nil)
	assert.Equal(t, http.StatusBadRequest, serve(env, req).Code)
}

func TestNormalizeTemplate(t *testing.T) {
	env := setupTestEnv(t)

	req := multipartRequest(t, "/api/templates/normalize", []formFile{{"modelo", "modelo.docx", docxtest.Build(t, templateBody, nil)}}, nil)
	w := serve(env, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, docx.MimeType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), services.NormalizedTemplateName)

	doc, err := docx.Open(w.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Vendedor: JOÃO DE SOUZA, {{BRASILEIRO}}, natural de {{NATURALIDADE}}.")
}

func TestListFields(t *testing.T) {
	env := setupTestEnv(t)

	w := serve(env, httptest.NewRequest(http.MethodGet, "/api/fields", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var data model.FieldsResponse
	decode(t, w, &data)
	require.Len(t, data.Steps, 9)
	assert.Equal(t, services.StepGeneral, data.Steps[0].Step)
	assert.Contains(t, data.Steps[0].Fields, "NATURALIDADE")
	assert.Equal(t, []string{"NUM_CONTRATO"}, data.Steps[8].Fields)
	assert.Contains(t, data.Kinds, "cnd_prefeitura")
}

func TestCors(t *testing.T) {
	env := setupTestEnv(t)

	w := serve(env, httptest.NewRequest(http.MethodOptions, "/api/contracts", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
