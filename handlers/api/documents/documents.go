// Package documents serves anonymously shared blobs such as exported scenes
// and shell configurations.
package documents

import (
	"bytes"
	"io"
	"net/http"

	"wireframe-canvas/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type DocumentCreateResponse struct {
	ID string `json:"id"`
}

func HandleCreate(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := new(bytes.Buffer)
		_, err := io.Copy(data, r.Body)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to read request body")
			http.Error(w, "Failed to copy", http.StatusInternalServerError)
			return
		}

		id, err := documentStore.Create(r.Context(), &core.Document{Data: *data})
		if err != nil {
			logrus.WithField("error", err).Error("Failed to save document")
			http.Error(w, "Failed to save", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, DocumentCreateResponse{ID: id})
	}
}

func HandleGet(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		document, err := documentStore.FindID(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{"document_id": id, "error": err}).Warn("Document lookup failed")
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(document.Data.Bytes()); err != nil {
			logrus.WithField("error", err).Error("Failed to write document")
		}
	}
}
