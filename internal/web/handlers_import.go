package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/claims/internal/core"
)

// multipartMemory is the part of an upload kept in memory; the rest spills
// to a temporary file.
const multipartMemory = 32 << 20

// handleImport loads an uploaded claims CSV.
//
// Form fields:
//   - file: the CSV (required)
//   - clear: "true" empties the table first
//   - batch_size: rows per transaction, overriding IMPORT_BATCH_SIZE
//   - conflict_key: policy_id or claim_id, overriding IMPORT_CONFLICT_KEY
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	if r.ContentLength > maxSize {
		s.respondError(w, r, fmt.Errorf("upload of %d bytes over %d: %w", r.ContentLength, maxSize, core.ErrFileTooLarge))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("upload over %d bytes: %w", maxSize, core.ErrFileTooLarge)
		} else {
			err = &core.ValidationError{Field: "body", Message: "must be a multipart form: " + err.Error()}
		}
		s.respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &core.ValidationError{Field: "file", Message: "is required"})
		return
	}
	defer file.Close()

	opts := core.ImportOptions{
		Reader:      file,
		Source:      header.Filename,
		ConflictKey: core.ConflictKey(r.FormValue("conflict_key")),
	}
	if v := r.FormValue("clear"); v != "" {
		clearFirst, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, r, &core.ValidationError{Field: "clear", Value: v, Message: "must be true or false"})
			return
		}
		opts.ClearExisting = clearFirst
	}
	if v := r.FormValue("batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, r, &core.ValidationError{Field: "batch_size", Value: v, Message: "must be a positive integer"})
			return
		}
		opts.BatchSize = n
	}

	result, err := s.service.Import(withClient(r), opts)
	if err != nil && result != nil {
		s.respondPartialImport(w, r, result, err)
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportResponse(result))
}

// respondPartialImport reports an import that stopped at a failing batch.
// Batches before it stay committed, so the body carries the import counts
// alongside the mapped error instead of a bare ErrorResponse.
func (s *Server) respondPartialImport(w http.ResponseWriter, r *http.Request, result *core.ImportResult, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	resp := toImportResponse(result)
	resp.Error, resp.Action, resp.Code = msg.Message, msg.Action, msg.Code
	var se *core.StoreError
	if errors.As(err, &se) {
		resp.FailedBatch = se.Batch
	}

	logError(r, status, msg, err, "imported", result.Imported, "failed_batch", resp.FailedBatch)
	writeJSON(w, status, resp)
}

// handleImportStatus reports how many imports are running.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ImportStatus())
}
