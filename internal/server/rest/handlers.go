package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/models"
	"github.com/dmitrijs2005/threatscope/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

// Accounts covers registration and login.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// Intake covers file analysis and the per-user views over it.
type Intake interface {
	Ingest(ctx context.Context, id services.Identity, content []byte, filename, contentType string) (*models.FileRecord, error)
	DashboardSummary(ctx context.Context, id services.Identity) (models.DashboardSummary, error)
	ListFiles(ctx context.Context, id services.Identity, limit int) ([]models.FileRecord, error)
}

// Profiles covers operations on the caller's own account.
type Profiles interface {
	Get(ctx context.Context, id services.Identity) (*services.Profile, error)
	UpdateProfile(ctx context.Context, id services.Identity, name, password *string) error
	SetPhoto(ctx context.Context, id services.Identity, content []byte, filename, contentType string) (string, error)
	ClearPhoto(ctx context.Context, id services.Identity) error
}

// Admin covers the role-gated user management operations.
type Admin interface {
	ListUsers(ctx context.Context, id services.Identity) ([]models.User, error)
	DeleteUser(ctx context.Context, id services.Identity, targetID string) error
	SetAdmin(ctx context.Context, id services.Identity, targetID string, isAdmin bool) error
}

// Handler binds HTTP requests to the service operations.
type Handler struct {
	accounts       Accounts
	intake         Intake
	profiles       Profiles
	admin          Admin
	log            logging.Logger
	maxUploadBytes int64
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      loginUser `json:"user"`
}

type analyzeResponse struct {
	Message  string      `json:"message"`
	ID       string      `json:"id"`
	Filename string      `json:"filename"`
	Risk     models.Risk `json:"risk"`
}

type profileUpdateRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type photoResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

type filesResponse struct {
	Files []models.FileRecord `json:"files"`
}

// decodeJSON reads a JSON object from the body. An empty body decodes as {}
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLarge
	}
	return errBadBody
}

// readUpload reads one multipart file field in full, bounded by the
// configured upload size. A request without the field is missing.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string, missing error) ([]byte, string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, "", "", errTooLarge
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, "", "", missing
		}
		return nil, "", "", common.Validationf("Invalid multipart form")
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", "", missing
		}
		return nil, "", "", common.Validationf("Invalid multipart form")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", err
	}
	return content, hdr.Filename, hdr.Header.Get("Content-Type"), nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageBody{Message: "User registered successfully"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      loginUser{ID: res.User.ID, Name: res.User.Name, IsAdmin: res.User.IsAdmin},
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.intake.DashboardSummary(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	content, filename, contentType, err := h.readUpload(w, r, "file", common.ErrNoFileProvided)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	rec, err := h.intake.Ingest(r.Context(), identityFrom(r), content, filename, contentType)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Message:  "File analyzed",
		ID:       rec.ID,
		Filename: rec.Filename,
		Risk:     rec.Risk,
	})
}

func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, h.log, common.Validationf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	list, err := h.intake.ListFiles(r.Context(), identityFrom(r), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, filesResponse{Files: list})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.profiles.UpdateProfile(r.Context(), identityFrom(r), req.Name, req.Password); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Profile updated"})
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	content, filename, contentType, err := h.readUpload(w, r, "photo", common.ErrNoPhotoProvided)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	name, err := h.profiles.SetPhoto(r.Context(), identityFrom(r), content, filename, contentType)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, photoResponse{Message: "Profile photo uploaded", Filename: name})
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.ClearPhoto(r.Context(), identityFrom(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Profile photo deleted"})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.admin.ListUsers(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), identityFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "User deleted"})
}

func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)

	var req setAdminRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.IsAdmin == nil {
		writeError(w, r, h.log, common.Validationf("is_admin is required"))
		return
	}

	if err := h.admin.SetAdmin(r.Context(), id, chi.URLParam(r, "id"), *req.IsAdmin); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "User updated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
