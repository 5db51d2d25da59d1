package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/optira-energie/comparateur-api/internal/entity"
	"github.com/optira-energie/comparateur-api/internal/infra/http/handlers"
	"github.com/optira-energie/comparateur-api/internal/usecase"
)

// MockBlobStorageHandler
type MockBlobStorageHandler struct {
	mock.Mock
}

func (m *MockBlobStorageHandler) Upload(ctx context.Context, path string, content []byte, contentType string) (string, error) {
	args := m.Called(ctx, path, content, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStorageHandler) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

func uploadRouter(repo *MockProspectRepositoryHandler, store *MockBlobStorageHandler) *chi.Mux {
	h := handlers.NewUploadHandler(usecase.NewUploadFileUseCase(repo, store))
	r := chi.NewRouter()
	r.Post("/api/prospects/{id}/documents", h.HandleUpload)
	r.Delete("/api/prospects/{id}/documents/{category}/{fileId}", h.HandleDelete)
	return r
}

func multipartUpload(t *testing.T, category, documentCategory string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="facture.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	assert.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))

	mw.WriteField("category", category)
	if documentCategory != "" {
		mw.WriteField("documentCategory", documentCategory)
	}
	mw.Close()

	return body, mw.FormDataContentType()
}

// filesUploadedLabels collects every category label value currently present
// on the files_uploaded_total series.
func filesUploadedLabels(t *testing.T) map[string]bool {
	mfs, err := prometheus.DefaultGatherer.Gather()
	assert.NoError(t, err)

	labels := map[string]bool{}
	for _, mf := range mfs {
		if mf.GetName() != "files_uploaded_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "category" {
					labels[l.GetValue()] = true
				}
			}
		}
	}
	return labels
}

func TestHandleUploadSuccess(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	store := new(MockBlobStorageHandler)

	p := entity.NewProspect("", "")
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, "application/pdf").
		Return("https://blob.example.com/facture.pdf", nil)
	repo.On("AppendDocument", mock.Anything, p.ID, entity.CategoryGasBills, mock.Anything).Return(nil)

	router := uploadRouter(repo, store)

	body, contentType := multipartUpload(t, "gas-bills", "")
	req := httptest.NewRequest("POST", "/api/prospects/"+p.ID+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleUploadMetricUsesBoundedCategory(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	store := new(MockBlobStorageHandler)

	p := entity.NewProspect("", "")
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://blob.example.com/kbis.pdf", nil)
	repo.On("AppendDocument", mock.Anything, p.ID, entity.CategoryOtherDocuments, mock.Anything).Return(nil)

	router := uploadRouter(repo, store)

	// documentCategory is client-chosen free text; it must never become a
	// metric label or anyone can mint unbounded time series.
	body, contentType := multipartUpload(t, "documents", "texte-libre-client-42")
	req := httptest.NewRequest("POST", "/api/prospects/"+p.ID+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	labels := filesUploadedLabels(t)
	assert.True(t, labels["documents"])
	assert.False(t, labels["texte-libre-client-42"])
}

func TestHandleUploadRejectsUnknownCategory(t *testing.T) {
	router := uploadRouter(new(MockProspectRepositoryHandler), new(MockBlobStorageHandler))

	body, contentType := multipartUpload(t, "selfies", "")
	req := httptest.NewRequest("POST", "/api/prospects/p1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
