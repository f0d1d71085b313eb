package transport

import (
	"errors"
	"net/http"

	"tienda-api/internal/service"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger files spill to temp files.
const maxUploadMemory = 32 << 20 // 32 MB

// formUpload extracts one optional file from a parsed multipart form.
// Returns nil when the field was not provided.
func formUpload(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	return &service.Upload{
		Filename: header.Filename,
		Content:  file,
	}, nil
}

// formBool reads a checkbox-style form value.
func formBool(r *http.Request, field string) bool {
	switch r.FormValue(field) {
	case "true", "on", "1":
		return true
	}
	return false
}
