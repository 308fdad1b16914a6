package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gamepanel/internal/constants"
	"gamepanel/internal/guard"
	"gamepanel/internal/services"
)

// multipartOverhead is allowed on top of the upload limit for part headers
// and boundaries.
const multipartOverhead = 64 << 10

// GET /api/files?path= - List a directory
func (s *Server) handleFilesList(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermFilesView)
	if identity == nil {
		return
	}

	listing, err := s.svc.Files.List(r.Context(), actorFor(r, identity), r.URL.Query().Get("path"))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"path":      listing.Path,
		"entries":   listing.Entries,
		"truncated": listing.Truncated,
		"roots":     s.svc.Files.Roots(),
	})
}

// GET /api/files/content?path= - Raw file contents
func (s *Server) handleFilesContent(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermFilesView)
	if identity == nil {
		return
	}

	fc, err := s.svc.Files.Read(r.Context(), actorFor(r, identity), r.URL.Query().Get("path"))
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeBinary)
	w.Header().Set(constants.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename="%s"`, guard.ContentDispositionFilename(fc.Name)))
	w.Header().Set("Content-Length", strconv.FormatInt(fc.Size, 10))
	w.WriteHeader(http.StatusOK)
	w.Write(fc.Content)
}

// filesUploadPath is the only route exempt from the JSON body cap.
const filesUploadPath = "/api/files/upload"

// POST /api/files/upload?dir= - Multipart upload; the file part is streamed to disk
func (s *Server) handleFilesUpload(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermFilesUpload)
	if identity == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.app.Config.Files.MaxUploadBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Expected multipart/form-data", constants.ErrCodeInvalidRequest)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "Missing file part", constants.ErrCodeInvalidRequest)
			return
		}
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				s.handleServiceError(w, r, services.ErrFileTooLarge)
				return
			}
			WriteError(w, http.StatusBadRequest, "Malformed multipart body", constants.ErrCodeInvalidRequest)
			return
		}
		if part.FormName() != constants.FormFieldFile {
			part.Close()
			continue
		}

		res, err := s.svc.Files.Upload(r.Context(), actorFor(r, identity), r.URL.Query().Get("dir"), part.FileName(), part)
		part.Close()
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				err = services.ErrFileTooLarge
			}
			s.handleServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, res)
		return
	}
}

// DELETE /api/files?path= - Delete a file or directory
func (s *Server) handleFilesDelete(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermFilesDelete)
	if identity == nil {
		return
	}

	if err := s.svc.Files.Delete(r.Context(), actorFor(r, identity), r.URL.Query().Get("path")); err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{"success": true})
}

// GET /api/files/search?q=&mode=&path= - Name search under a directory
func (s *Server) handleFilesSearch(w http.ResponseWriter, r *http.Request) {
	identity := s.requirePermission(w, r, constants.PermFilesSearch)
	if identity == nil {
		return
	}

	q := r.URL.Query()
	res, err := s.svc.Files.Search(r.Context(), actorFor(r, identity), services.SearchRequest{
		Path:    q.Get("path"),
		Pattern: q.Get("q"),
		Mode:    q.Get("mode"),
	})
	if err != nil {
		s.handleServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res)
}
