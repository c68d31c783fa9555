package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/K-ALOHA/voxregister/internal/command"
	"github.com/K-ALOHA/voxregister/internal/store"
)

// commandRequest is the JSON body for text command endpoints. Multipart
// requests carry the same fields as form values plus an "audio" file.
type commandRequest struct {
	Text      string `json:"text"`
	Date      string `json:"date"`
	IAType    string `json:"ia_type"`
	USNPrefix string `json:"usn_prefix"`

	audio []byte
}

// parseCommandRequest decodes either a JSON body or a multipart form with an
// audio file. Returns a request-level error message suitable for a 400.
func parseCommandRequest(r *http.Request) (commandRequest, string) {
	var req commandRequest

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return req, "malformed multipart form"
		}
		req.Text = r.FormValue("text")
		req.Date = r.FormValue("date")
		req.IAType = r.FormValue("ia_type")
		req.USNPrefix = r.FormValue("usn_prefix")

		if file, _, err := r.FormFile("audio"); err == nil {
			defer file.Close()
			audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
			if err != nil {
				return req, "failed to read audio upload"
			}
			req.audio = audio
		}
		return req, ""
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return req, "malformed JSON body"
	}
	return req, ""
}

// options resolves the per-request interpretation options.
func (s *Server) options(req commandRequest) command.Options {
	prefix := req.USNPrefix
	if prefix == "" {
		prefix = s.defaultPrefix
	}
	return command.Options{USNPrefix: prefix}
}

func (s *Server) handleAttendanceCommand(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseCommandRequest(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Text == "" && req.audio == nil {
		writeError(w, http.StatusBadRequest, "provide text or an audio file")
		return
	}

	ctx := r.Context()
	start := time.Now()
	var out command.Outcome
	if req.audio != nil {
		out = s.pipeline.ProcessAttendanceAudio(ctx, req.audio, date, s.options(req))
	} else {
		out = s.pipeline.ProcessAttendance(ctx, req.Text, date, s.options(req))
	}
	s.record(ctx, "attendance", out, time.Since(start))
	s.writeOutcome(w, out)
}

func (s *Server) handleMarksCommand(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseCommandRequest(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	ia := store.IAType(strings.ToUpper(req.IAType))
	if !ia.IsValid() {
		writeError(w, http.StatusBadRequest, "ia_type must be IA1 or IA2")
		return
	}
	if req.Text == "" && req.audio == nil {
		writeError(w, http.StatusBadRequest, "provide text or an audio file")
		return
	}

	ctx := r.Context()
	start := time.Now()
	var out command.Outcome
	if req.audio != nil {
		out = s.pipeline.ProcessMarksAudio(ctx, req.audio, ia, s.options(req))
	} else {
		out = s.pipeline.ProcessMarks(ctx, req.Text, ia, s.options(req))
	}
	s.record(ctx, "marks", out, time.Since(start))
	s.writeOutcome(w, out)
}

// record updates the command metrics for one processed request.
func (s *Server) record(ctx context.Context, kind string, out command.Outcome, elapsed time.Duration) {
	status := "success"
	if !out.Success {
		status = string(out.Kind)
		s.metrics.RecordCommandFailure(ctx, kind, status)
	}
	s.metrics.RecordCommand(ctx, kind, status, elapsed)
}
