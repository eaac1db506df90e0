package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/kozaktomas/face-recall/internal/constants"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/people"
	"go.uber.org/zap"
)

// PeopleService is the part of people.Service the handlers call.
type PeopleService interface {
	AddPerson(ctx context.Context, req people.AddPersonRequest) (*database.Person, error)
	GetPeople(ctx context.Context, pairID string) ([]database.PersonWithEmbeddings, error)
	Scan(ctx context.Context, req people.ScanRequest) (*people.ScanResult, error)
	UpdatePerson(ctx context.Context, req people.UpdatePersonRequest) (*people.UpdateResult, error)
	DeletePerson(ctx context.Context, req people.DeletePersonRequest) error
}

// PeopleHandler handles the people and scan endpoints.
type PeopleHandler struct {
	service       PeopleService
	maxUploadSize int64
	logger        *zap.Logger
}

// NewPeopleHandler creates a new people handler. A non-positive upload size
// falls back to the default limit.
func NewPeopleHandler(service PeopleService, maxUploadSize int64, logger *zap.Logger) *PeopleHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = constants.MaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeopleHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// parseMultipart limits and parses a multipart body.
func (h *PeopleHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return false
	}
	return true
}

// decodeJSON limits and decodes a JSON body into v.
func (h *PeopleHandler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// formImage returns the uploaded image, or nil when none was sent. The
// caller closes the returned file.
func formImage(r *http.Request) (*people.ImageFile, multipart.File, error) {
	file, header, err := r.FormFile(constants.ImageFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &people.ImageFile{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}, file, nil
}

// optionalValue returns a pointer to the form value when the field was sent.
func optionalValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// AddPerson handles POST /api/addPerson.
func (h *PeopleHandler) AddPerson(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, file, err := formImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if file != nil {
		defer file.Close()
	}

	person, err := h.service.AddPerson(r.Context(), people.AddPersonRequest{
		PairID:       r.FormValue("pair_id"),
		Name:         r.FormValue("name"),
		Relationship: r.FormValue("relationship"),
		Occupation:   r.FormValue("occupation"),
		Age:          r.FormValue("age"),
		Notes:        r.FormValue("notes"),
		Embedding:    r.FormValue("embedding"),
		Image:        image,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"person": person,
	})
}

// GetPeople handles GET /api/getPeople.
func (h *PeopleHandler) GetPeople(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetPeople(r.Context(), r.URL.Query().Get("pair_id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"people": list,
	})
}

// Scan handles POST /api/scan.
func (h *PeopleHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req people.ScanRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Scan(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdatePerson handles PUT /api/updatePerson. Only the form fields that are
// present are changed.
func (h *PeopleHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	image, file, err := formImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if file != nil {
		defer file.Close()
	}

	form := r.MultipartForm
	result, err := h.service.UpdatePerson(r.Context(), people.UpdatePersonRequest{
		PersonID:     r.FormValue("person_id"),
		Name:         optionalValue(form, "name"),
		Relationship: optionalValue(form, "relationship"),
		Occupation:   optionalValue(form, "occupation"),
		Age:          optionalValue(form, "age"),
		Notes:        optionalValue(form, "notes"),
		Image:        image,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"image_url": result.ImageURL,
	})
}

// DeletePerson handles DELETE /api/deletePerson.
func (h *PeopleHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	var req people.DeletePersonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.DeletePerson(r.Context(), req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}
