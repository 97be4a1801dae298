package server

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"foliorag/internal/content"
	"foliorag/internal/logging"
)

// maxIngestBody bounds POST /ingest request bodies. Base64 inflates a PDF by
// a third, so 32 MiB covers uploads around 20 MiB of raw PDF.
const maxIngestBody = 32 << 20

// handleIngest handles POST /ingest. It accepts either raw text or a
// base64-encoded PDF, extracts the text, and runs it through the ingestion
// pipeline. Caller-supplied metadata is attached to every chunk.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxIngestBody)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" && req.PDFBase64 == "" {
		writeError(w, http.StatusBadRequest, "Either 'text' or 'pdfBase64' is required")
		return
	}

	text := req.Text
	if text == "" {
		raw, err := base64.StdEncoding.DecodeString(req.PDFBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid base64 in 'pdfBase64'")
			return
		}
		text, err = content.ExtractPDFText(raw)
		if err != nil {
			log.Error("ingest: PDF extraction failed", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Could not extract text from the PDF")
			return
		}
	}

	doc := content.FromUpload(text, req.Filename, req.Metadata)
	chunks, err := s.ingester.Ingest(r.Context(), doc)
	if err != nil {
		log.Error("ingest: pipeline failed", slog.Any("error", err))
		s.metrics.ingestDocumentsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to ingest the document")
		return
	}

	s.metrics.ingestDocumentsTotal.WithLabelValues("ok").Inc()
	log.Info("ingest: document stored",
		slog.String("filename", req.Filename),
		slog.Int("chars", len(text)),
		slog.Int("chunks", chunks),
	)
	writeJSON(w, http.StatusOK, ingestResponse{Message: "Document(s) ingested successfully"})
}
