package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/roster"
)

const (
	maxUploadBytes = 10 << 20
	maxSnapshots   = 60
)

// handleRosterImport accepts either a multipart "file" field or a raw body
// whose format is given by ?format=.
func (s *server) handleRosterImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		body   io.Reader = r.Body
		format           = roster.FormatFor(r.URL.Query().Get("format"))
	)
	if isMultipart(r) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer f.Close()
		body = f
		if r.URL.Query().Get("format") == "" {
			format = roster.FormatFor(hdr.Filename)
		}
	}

	records, err := roster.Import(body, format)
	if errors.Is(err, roster.ErrNoRecords) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", format, err))
		return
	}

	n := s.engine.Import(r.Context(), records)
	writeJSON(w, http.StatusOK, map[string]any{
		"imported": n,
		"status":   s.engine.Status(),
	})
}

func (s *server) handleRosterExport(w http.ResponseWriter, r *http.Request) {
	format := roster.FormatFor(r.URL.Query().Get("format"))
	tracker := s.engine.Tracker()
	profile := tracker.Profile()
	rows := roster.Rows(profile, tracker.Topics())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(profile, format, s.now().Format("2006-01-02"))))
	if err := roster.Export(w, format, rows); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

func exportName(p progress.UserProfile, format roster.Format, date string) string {
	name := strings.Join(strings.Fields(p.FullName), "_")
	if name == "" {
		name = "Export"
	}
	return fmt.Sprintf("DiaAI_Rankings_%s_%s.%s", name, date, format)
}

func (s *server) requireTeacher(w http.ResponseWriter) bool {
	if s.dashboard == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard disabled")
		return false
	}
	if s.engine.Tracker().Profile().Role != progress.RoleTeacher {
		writeError(w, http.StatusForbidden, "teacher role required")
		return false
	}
	return true
}

type uploadFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// handleDashboardUpload reads every "files" part of a multipart form. A
// file that fails to parse is reported and skipped.
func (s *server) handleDashboardUpload(w http.ResponseWriter, r *http.Request) {
	if !s.requireTeacher(w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	if len(files) > maxSnapshots {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d files per upload", maxSnapshots))
		return
	}

	var failed []uploadFailure
	added := 0
	for _, fh := range files {
		if err := s.uploadSnapshot(fh); err != nil {
			failed = append(failed, uploadFailure{File: fh.Filename, Error: err.Error()})
			continue
		}
		added++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"failed":  failed,
		"summary": s.dashboard.Summary(),
	})
}

func (s *server) uploadSnapshot(fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.dashboard.Upload(fh.Filename, f)
	return err
}

func (s *server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	if !s.requireTeacher(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.dashboard.Summary())
}

func (s *server) handleDashboardReset(w http.ResponseWriter, _ *http.Request) {
	if !s.requireTeacher(w) {
		return
	}
	s.dashboard.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
