package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/K-ALOHA/voxregister/internal/roster"
)

// handleRosterImport replaces the roster from an uploaded CSV. The file may
// arrive as a multipart "file" field or as the raw request body. Expected
// columns: USN, Name; a header row is detected and skipped.
func (s *Server) handleRosterImport(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "malformed multipart form")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		reader = file
	}

	students, err := parseRosterCSV(reader)
	if err != nil {
		s.metrics.RecordRosterImport(r.Context(), "invalid")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.ReplaceStudents(r.Context(), students); err != nil {
		s.metrics.RecordRosterImport(r.Context(), "error")
		s.log.Error("roster import failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.metrics.RecordRosterImport(r.Context(), "ok")
	s.log.Info("roster imported", "students", len(students))
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(students)})
}

// parseRosterCSV reads (USN, Name) rows. Extra columns are ignored.
func parseRosterCSV(r io.Reader) ([]roster.Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var students []roster.Student
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %v", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("csv line %d: need USN and Name columns", line)
		}

		usn := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(usn, "usn") {
			continue // header row
		}
		if usn == "" || name == "" {
			return nil, fmt.Errorf("csv line %d: empty USN or Name", line)
		}
		students = append(students, roster.Student{USN: usn, Name: name})
	}

	if len(students) == 0 {
		return nil, errors.New("csv contains no students")
	}
	return students, nil
}

func (s *Server) handleRosterList(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}
