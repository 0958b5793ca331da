package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/document/service"
	"signet/internal/document/store"
	"signet/internal/identity"
	id "signet/pkg/domain"
	"signet/pkg/testutil"
)

type stubValidator struct {
	claims *identity.Claims
}

func (v stubValidator) ValidateToken(string) (*identity.Claims, error) {
	return v.claims, nil
}

// noUsage reports every document as unattached.
type noUsage struct{}

func (noUsage) CountLinksByDocument(context.Context, id.DocumentID) (int, error) {
	return 0, nil
}

func newDocumentRouter(t *testing.T, ownerID id.UserID) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemory(), store.NewMemoryBlobStore(), noUsage{},
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	validator := stubValidator{claims: &identity.Claims{UserID: ownerID, Email: "owner@example.com"}}
	h := New(svc, validator, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func uploadFile(t *testing.T, router http.Handler, name, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndDownload(t *testing.T) {
	ownerID := id.NewUserID()
	router := newDocumentRouter(t, ownerID)

	rec := uploadFile(t, router, "Contract", "contract.pdf", "%PDF-1.7 body")
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Contract", doc["name"])
	assert.Equal(t, "contract.pdf", doc["original_filename"])
	assert.Equal(t, "processing", doc["status"])
	docID := doc["id"].(string)

	getReq := httptest.NewRequest(http.MethodGet, "/documents/"+docID+"/content", nil)
	getReq.Header.Set("Authorization", "Bearer test-token")
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "%PDF-1.7 body", getRec.Body.String())
	assert.Contains(t, getRec.Header().Get("Content-Disposition"), `filename="contract.pdf"`)
}

func TestUploadNameFallsBackToFilename(t *testing.T) {
	router := newDocumentRouter(t, id.NewUserID())

	rec := uploadFile(t, router, "", "scan.pdf", "body")
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "scan.pdf", doc["name"])
}

func TestUploadRequiresFileField(t *testing.T) {
	router := newDocumentRouter(t, id.NewUserID())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Contract"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadRequiresAuth(t *testing.T) {
	router := newDocumentRouter(t, id.NewUserID())

	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProcessedAndDeleteLifecycle(t *testing.T) {
	router := newDocumentRouter(t, id.NewUserID())

	rec := uploadFile(t, router, "Contract", "contract.pdf", "body")
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	docID := doc["id"].(string)

	procReq := testutil.NewJSONRequest(t, http.MethodPost, "/documents/"+docID+"/processed", map[string]any{"page_count": 3})
	procReq.Header.Set("Authorization", "Bearer test-token")
	procRec := testutil.DoRequest(router, procReq)
	testutil.AssertStatus(t, procRec, http.StatusOK)

	processed := testutil.UnmarshalResponse[map[string]any](t, procRec)
	assert.Equal(t, "ready", (*processed)["status"])
	assert.Equal(t, float64(3), (*processed)["page_count"])

	delReq := testutil.NewRequest(t, http.MethodDelete, "/documents/"+docID)
	delReq.Header.Set("Authorization", "Bearer test-token")
	testutil.AssertStatus(t, testutil.DoRequest(router, delReq), http.StatusNoContent)

	getReq := testutil.NewRequest(t, http.MethodGet, "/documents/"+docID)
	getReq.Header.Set("Authorization", "Bearer test-token")
	getRec := testutil.DoRequest(router, getReq)
	testutil.AssertStatus(t, getRec, http.StatusNotFound)
	testutil.AssertErrorCode(t, getRec, "not_found")
}

func TestListDocuments(t *testing.T) {
	router := newDocumentRouter(t, id.NewUserID())

	for i := 0; i < 3; i++ {
		rec := uploadFile(t, router, "Contract", "contract.pdf", "body")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/documents?page=1&page_size=2", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["total"])
	assert.Len(t, resp["documents"].([]any), 2)
	assert.Equal(t, true, resp["has_more"])
}
