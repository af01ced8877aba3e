package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/internal/photo"
	"github.com/bstardust/photo-metadata/internal/tags"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// formField is the multipart field carrying the image
const formField = "file"

type errorResponse struct {
	Error string `json:"error"`
}

type tagResponse struct {
	Namespace string `json:"namespace"`
	ID        uint16 `json:"id"`
	Name      string `json:"name"`
	Known     bool   `json:"known"`
}

// writeJSON encodes v before the status goes out, so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetadata inspects the uploaded image and returns its report
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large"):
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+humanize.Bytes(uint64(limit)))
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "missing form field \""+formField+"\"")
		default:
			writeError(w, http.StatusBadRequest, "invalid multipart request: "+err.Error())
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	rep := photo.Inspect(header.Filename, bytes.NewReader(data), int64(len(data)))
	logger.Debug("Inspected %s (%s): %d tags, gps=%t", header.Filename,
		humanize.Bytes(uint64(len(data))), len(rep.Metadata), rep.GPS != nil)

	writeJSON(w, http.StatusOK, rep)
}

// handleTag resolves a numeric tag id in the exif or gps namespace
func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var ns tags.Namespace
	switch vars["namespace"] {
	case "exif":
		ns = tags.NamespaceExif
	case "gps":
		ns = tags.NamespaceGPS
	default:
		writeError(w, http.StatusNotFound, "unknown namespace "+strconv.Quote(vars["namespace"]))
		return
	}

	id, err := strconv.ParseUint(vars["id"], 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tag id must fit in 16 bits")
		return
	}

	_, known := tags.Lookup(ns, uint16(id))
	writeJSON(w, http.StatusOK, tagResponse{
		Namespace: ns.String(),
		ID:        uint16(id),
		Name:      tags.Resolve(ns, uint16(id)),
		Known:     known,
	})
}
