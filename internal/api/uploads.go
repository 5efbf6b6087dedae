package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"clipstream/internal/storage"
)

// maxUploadBytes caps the in-memory size of a media upload.
const maxUploadBytes = 512 << 20

var errObjectStorageDisabled = errors.New("media uploads are not configured")

// storeUploadedFile reads the named multipart file field and writes it to
// object storage under a random key with the given prefix.
func (h *Handler) storeUploadedFile(r *http.Request, field, keyPrefix string) (storage.ObjectReference, error) {
	if h.Objects == nil || !h.Objects.Enabled() {
		return storage.ObjectReference{}, errObjectStorageDisabled
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(field)
	if err != nil {
		return storage.ObjectReference{}, fmt.Errorf("read %s upload: %w", field, err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return storage.ObjectReference{}, fmt.Errorf("read %s upload: %w", field, err)
	}
	if len(body) == 0 {
		return storage.ObjectReference{}, fmt.Errorf("%s upload is empty", field)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	key := keyPrefix + newObjectKey() + strings.ToLower(filepath.Ext(header.Filename))
	ref, err := h.Objects.Upload(r.Context(), key, contentType, body)
	if err != nil {
		return storage.ObjectReference{}, fmt.Errorf("store %s upload: %w", field, err)
	}
	return ref, nil
}

// deleteStoredObject removes a media object, tolerating a disabled store.
func (h *Handler) deleteStoredObject(r *http.Request, key string) error {
	if key == "" || h.Objects == nil || !h.Objects.Enabled() {
		return nil
	}
	return h.Objects.Delete(r.Context(), key)
}

func newObjectKey() string {
	buffer := make([]byte, 16)
	if _, err := rand.Read(buffer); err != nil {
		panic(fmt.Sprintf("object key generation failed: %v", err))
	}
	return hex.EncodeToString(buffer)
}
