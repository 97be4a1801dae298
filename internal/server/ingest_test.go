package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestIngest_TextDocument(t *testing.T) {
	t.Parallel()

	ing := &fakeIngester{}
	s := newTestServer(t, &fakeAnswerer{}, ing, nil)

	body := `{"text":"I am a Go developer.","filename":"bio.txt","metadata":{"topic":"about"}}`
	rec := doJSON(t, s, http.MethodPost, "/ingest", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp ingestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Document(s) ingested successfully" {
		t.Errorf("message: got %q", resp.Message)
	}

	if len(ing.docs) != 1 {
		t.Fatalf("ingested docs: got %d, want 1", len(ing.docs))
	}
	doc := ing.docs[0]
	if doc.Text != "I am a Go developer." {
		t.Errorf("doc text: got %q", doc.Text)
	}
	if doc.Metadata["topic"] != "about" {
		t.Errorf("metadata not forwarded: %v", doc.Metadata)
	}
	if doc.Metadata["filename"] != "bio.txt" {
		t.Errorf("filename not recorded in metadata: %v", doc.Metadata)
	}
}

func TestIngest_MissingBothInputs(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/ingest", `{"metadata":{"k":"v"}}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Either 'text' or 'pdfBase64' is required" {
		t.Errorf("error: got %q", resp.Error)
	}
}

func TestIngest_InvalidBase64(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/ingest", `{"pdfBase64":"!!!not-base64!!!"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestIngest_PipelineFailure(t *testing.T) {
	t.Parallel()

	ing := &fakeIngester{err: fmt.Errorf("ingestion: embed chunk 0: timeout")}
	s := newTestServer(t, &fakeAnswerer{}, ing, nil)

	rec := doJSON(t, s, http.MethodPost, "/ingest", `{"text":"doc"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	// The pipeline's internal error must not leak.
	if body := rec.Body.String(); strings.Contains(body, "timeout") || strings.Contains(body, "chunk 0") {
		t.Errorf("internal error detail leaked: %s", body)
	}
}

func TestIngest_TextTakesPrecedenceOverPDF(t *testing.T) {
	t.Parallel()

	ing := &fakeIngester{}
	s := newTestServer(t, &fakeAnswerer{}, ing, nil)

	// When both are supplied, the raw text wins and the PDF is ignored.
	rec := doJSON(t, s, http.MethodPost, "/ingest", `{"text":"plain","pdfBase64":"aGVsbG8="}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if len(ing.docs) != 1 || ing.docs[0].Text != "plain" {
		t.Errorf("expected text to win: %+v", ing.docs)
	}
}
