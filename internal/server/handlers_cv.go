package server

import (
	"io"
	"net/http"
)

// maxResumeSize bounds resume uploads at 10 MB
const maxResumeSize = 10 << 20

// handleUploadResume ingests a resume and enqueues its analysis. The response
// is 202 with the pending analysis record; clients poll handleGetCVAnalysis.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(r, "app_id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := s.pipeline.Intake(r.Context(), s.analysisActor(r), appID, header.Filename, data)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, result)
}

// handleGetCVAnalysis reports the status of an analysis job
func (s *Server) handleGetCVAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	result, err := s.pipeline.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
