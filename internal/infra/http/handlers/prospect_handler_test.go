package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/optira-energie/comparateur-api/internal/entity"
	"github.com/optira-energie/comparateur-api/internal/infra/http/handlers"
	"github.com/optira-energie/comparateur-api/internal/usecase"
)

// MockProspectRepositoryHandler
type MockProspectRepositoryHandler struct {
	mock.Mock
}

func (m *MockProspectRepositoryHandler) Create(ctx context.Context, p *entity.Prospect) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProspectRepositoryHandler) FindByID(ctx context.Context, id string) (*entity.Prospect, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Prospect), args.Error(1)
}

func (m *MockProspectRepositoryHandler) Save(ctx context.Context, p *entity.Prospect) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProspectRepositoryHandler) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProspectRepositoryHandler) AppendDocument(ctx context.Context, id string, category entity.DocumentCategory, fd entity.FileDescriptor) error {
	args := m.Called(ctx, id, category, fd)
	return args.Error(0)
}

func (m *MockProspectRepositoryHandler) RemoveDocument(ctx context.Context, id string, category entity.DocumentCategory, fileID string) error {
	args := m.Called(ctx, id, category, fileID)
	return args.Error(0)
}

func (m *MockProspectRepositoryHandler) List(ctx context.Context, limit int) ([]*entity.Prospect, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Prospect), args.Error(1)
}

func (m *MockProspectRepositoryHandler) UpdateStatus(ctx context.Context, id string, status entity.ProspectStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockSessionStoreHandler
type MockSessionStoreHandler struct {
	mock.Mock
}

func (m *MockSessionStoreHandler) Find(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStoreHandler) Claim(ctx context.Context, sessionID, prospectID string) (string, error) {
	args := m.Called(ctx, sessionID, prospectID)
	if args.String(0) == "" {
		return prospectID, args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockSessionStoreHandler) Release(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func prospectRouter(repo *MockProspectRepositoryHandler, sessions *MockSessionStoreHandler) *chi.Mux {
	uc := usecase.NewProspectSessionUseCase(repo, sessions, nil)
	h := handlers.NewProspectHandler(uc)

	r := chi.NewRouter()
	r.Post("/api/prospects", h.HandleCreate)
	r.Get("/api/prospects/{id}", h.HandleGet)
	r.Put("/api/prospects/{id}/steps/{step}", h.HandleUpdateStep)
	r.Post("/api/prospects/{id}/finalize", h.HandleFinalize)
	return r
}

func TestHandleCreateFirstCallReturns201(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	sessions := new(MockSessionStoreHandler)
	sessions.On("Find", mock.Anything, "sess-1").Return("", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	sessions.On("Claim", mock.Anything, "sess-1", mock.Anything).Return("", nil)

	router := prospectRouter(repo, sessions)

	req := httptest.NewRequest("POST", "/api/prospects", nil)
	req.Header.Set("X-Session-ID", "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
}

func TestHandleCreateRepeatedCallReturns200SameID(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	sessions := new(MockSessionStoreHandler)
	sessions.On("Find", mock.Anything, "sess-2").Return("existing-id", nil)

	router := prospectRouter(repo, sessions)

	req := httptest.NewRequest("POST", "/api/prospects", nil)
	req.Header.Set("X-Session-ID", "sess-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "existing-id", body["id"])
	repo.AssertNotCalled(t, "Create")
}

func TestHandleCreateMissingSessionHeader(t *testing.T) {
	router := prospectRouter(new(MockProspectRepositoryHandler), new(MockSessionStoreHandler))

	req := httptest.NewRequest("POST", "/api/prospects", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetUnknownProspectReturns404(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	repo.On("FindByID", mock.Anything, "ghost").Return(nil, entity.ErrProspectNotFound)

	router := prospectRouter(repo, new(MockSessionStoreHandler))

	req := httptest.NewRequest("GET", "/api/prospects/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
}

func TestHandleUpdateStepValidationReturns422(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	p := entity.NewProspect("", "")
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	router := prospectRouter(repo, new(MockSessionStoreHandler))

	req := httptest.NewRequest("PUT", "/api/prospects/"+p.ID+"/steps/1", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors []usecase.ValidationError `json:"errors"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Errors)
	assert.Equal(t, "company.sirenNumber", body.Errors[0].Field)
}

func TestHandleUpdateStepSuccessReturnsNextStep(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	p := entity.NewProspect("", "")
	p.Company = entity.Company{SirenNumber: "913837233", Name: "Boulangerie Martin"}
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	router := prospectRouter(repo, new(MockSessionStoreHandler))

	req := httptest.NewRequest("PUT", "/api/prospects/"+p.ID+"/steps/1", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		NextStep int `json:"nextStep"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.NextStep)
}

func TestHandleFinalizeConflictWhenAlreadySubmitted(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	p := entity.NewProspect("", "")
	p.Status = entity.StatusNew
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	router := prospectRouter(repo, new(MockSessionStoreHandler))

	req := httptest.NewRequest("POST", "/api/prospects/"+p.ID+"/finalize", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleFinalizeReturnsRedirect(t *testing.T) {
	repo := new(MockProspectRepositoryHandler)
	p := entity.NewProspect("", "")
	p.Company = entity.Company{
		SirenNumber:  "913837233",
		Name:         "Boulangerie Martin",
		ActivityType: entity.ActivityElectricity,
	}
	repo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	router := prospectRouter(repo, new(MockSessionStoreHandler))

	payload := `{
		"contact": {
			"civility": "M.",
			"firstName": "Pierre",
			"lastName": "Martin",
			"email": "pierre.martin@exemple.fr",
			"phone": "0612345678"
		},
		"consents": {"dataProcessing": true}
	}`
	req := httptest.NewRequest("POST", "/api/prospects/"+p.ID+"/finalize", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, p.ID, body["id"])
	assert.Equal(t, "/merci?prospectId="+p.ID, body["redirectUrl"])
}
