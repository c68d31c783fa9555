package httpapi

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/K-ALOHA/voxregister/internal/export"
	"github.com/K-ALOHA/voxregister/internal/store"
)

func (s *Server) handleAttendanceList(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date parameter is required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rows, err := s.store.AttendanceByDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []store.AttendanceRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMarksList(w http.ResponseWriter, r *http.Request) {
	ia := store.IAType(strings.ToUpper(r.URL.Query().Get("ia")))
	if !ia.IsValid() {
		writeError(w, http.StatusBadRequest, "ia parameter must be IA1 or IA2")
		return
	}

	rows, err := s.store.MarksByIA(r.Context(), ia)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []store.MarksRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// statsBody summarises record counts for dashboards.
type statsBody struct {
	Students   int `json:"students"`
	Attendance int `json:"attendance"`
	Marks      int `json:"marks"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		body statsBody
		err  error
	)
	if body.Students, err = s.store.CountStudents(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body.Attendance, err = s.store.CountAttendance(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body.Marks, err = s.store.CountMarks(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	report, err := export.ParseReport(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "type must be complete, attendance, or marks")
		return
	}

	// Build in memory first so a mid-generation failure can still produce a
	// clean error response.
	var buf bytes.Buffer
	if err := export.Write(r.Context(), s.store, &buf, report); err != nil {
		s.log.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.Exports.Add(r.Context(), 1)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="voxregister_`+string(report)+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
