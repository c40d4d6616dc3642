package handler

import (
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/dashboard"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	reg *Registry
}

func NewAdminHandler(reg *Registry) *AdminHandler {
	return &AdminHandler{reg: reg}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Use(guard)
	r.Get("/", h.Stats)
	r.Get("/assignments", h.ListAssignments)
	r.Post("/assignments", h.PostAssignment)
	r.Patch("/assignments/{id}/status", h.ChangeAssignmentStatus)
	r.Get("/submissions", h.ListSubmissions)
	r.Patch("/submissions/{id}", h.GradeSubmission)
	r.Get("/users", h.ListUsers)
	r.Get("/stats", h.Stats)
	r.Get("/messages", h.ListMessages)
}

// view resolves the caller's admin dashboard or writes the error.
func (h *AdminHandler) view(w http.ResponseWriter, r *http.Request) (*dashboard.Admin, bool) {
	b, ok := browser(w, r)
	if !ok {
		return nil, false
	}
	a, err := h.reg.Admin(r.Context(), b)
	if err != nil {
		writeError(w, r, "load admin dashboard", err)
		return nil, false
	}
	return a, true
}

func (h *AdminHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Assignments(r.URL.Query().Get("q")))
}

func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Submissions(r.URL.Query().Get("q")))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Users(r.URL.Query().Get("q")))
}

func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Messages())
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Stats())
}

type outcomeResponse struct {
	Outcome string `json:"outcome"`
}

func (h *AdminHandler) ChangeAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, "change assignment status", err)
		return
	}
	var body struct {
		Status domain.AssignmentStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, "change assignment status", err)
		return
	}
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	outcome, err := a.ChangeAssignmentStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, "change assignment status", err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: outcome.String()})
}

func (h *AdminHandler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, "grade submission", err)
		return
	}
	var review domain.SubmissionReview
	if err := decodeJSON(r, &review); err != nil {
		writeError(w, r, "grade submission", err)
		return
	}
	a, ok := h.view(w, r)
	if !ok {
		return
	}
	outcome, err := a.GradeSubmission(r.Context(), id, review)
	if err != nil {
		writeError(w, r, "grade submission", err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: outcome.String()})
}

// PostAssignment takes a multipart form with title, description, deadline
// and an optional file.
func (h *AdminHandler) PostAssignment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, r, "post assignment", ErrBadRequest)
		return
	}
	deadline, err := parseDeadline(r.FormValue("deadline"))
	if err != nil {
		writeError(w, r, "post assignment", err)
		return
	}
	input := domain.NewAssignment{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Deadline:    deadline,
	}

	var attachment *dashboard.Attachment
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		attachment = &dashboard.Attachment{Name: header.Filename, Content: file}
	case err != http.ErrMissingFile:
		writeError(w, r, "post assignment", ErrBadRequest)
		return
	}

	a, ok := h.view(w, r)
	if !ok {
		return
	}
	created, err := a.PostAssignment(r.Context(), input, attachment)
	if err != nil {
		writeError(w, r, "post assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
