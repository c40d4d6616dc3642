package handler

import (
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/dashboard"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	reg *Registry
}

func NewDashboardHandler(reg *Registry) *DashboardHandler {
	return &DashboardHandler{reg: reg}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Use(guard)
	r.Get("/", h.Overview)
	r.Get("/assignments", h.ListAssignments)
	r.Get("/submissions", h.ListSubmissions)
	r.Post("/assignments/{id}/submissions", h.Submit)
	r.Post("/contact", h.Contact)
}

func (h *DashboardHandler) view(w http.ResponseWriter, r *http.Request) (*dashboard.Client, bool) {
	b, ok := browser(w, r)
	if !ok {
		return nil, false
	}
	c, err := h.reg.Client(r.Context(), b)
	if err != nil {
		writeError(w, r, "load dashboard", err)
		return nil, false
	}
	return c, true
}

type overviewResponse struct {
	Assignments []domain.Assignment `json:"assignments"`
	Submissions []domain.Submission `json:"submissions"`
}

// Overview is the dashboard landing route: every assignment and the
// caller's own submissions.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	c, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, overviewResponse{Assignments: c.Assignments(""), Submissions: c.Submissions()})
}

func (h *DashboardHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	c, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Assignments(r.URL.Query().Get("q")))
}

func (h *DashboardHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Submissions())
}

// Submit takes a multipart form with the work file and optional notes.
func (h *DashboardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := parsePathParam(r, "id")
	if err != nil {
		writeError(w, r, "submit", err)
		return
	}
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, r, "submit", ErrBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "submit", ErrBadRequest)
		return
	}
	defer file.Close()

	c, ok := h.view(w, r)
	if !ok {
		return
	}
	created, err := c.Submit(r.Context(), assignmentID, dashboard.Attachment{Name: header.Filename, Content: file}, r.FormValue("notes"))
	if err != nil {
		writeError(w, r, "submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *DashboardHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject string `json:"subject"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, "contact", err)
		return
	}
	c, ok := h.view(w, r)
	if !ok {
		return
	}
	msg, err := c.Contact(r.Context(), body.Subject, body.Content)
	if err != nil {
		writeError(w, r, "contact", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
