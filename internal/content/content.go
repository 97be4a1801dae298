// Package content provides the document sources the ingestion pipeline
// feeds on: the static about-me text, blog posts and project records from
// the site's Postgres database, and uploaded documents (plain text or PDF).
// Each source item is flattened into one Document before chunking.
package content

import (
	"fmt"
	"strings"
)

// Document is one flattened source item ready for chunking.
type Document struct {
	// Text is the full flattened content ("Title: X\n\nBody").
	Text string

	// Source tags the originating collection: "about", "post", "project",
	// or "upload".
	Source string

	// Metadata holds traceability fields (slug, title, filename). Carried
	// onto every chunk produced from this document.
	Metadata map[string]string
}

// aboutText is the fixed boilerplate describing the site owner. It is always
// re-ingested on a full rebuild so the assistant can answer "who are you"
// style questions even when the database is empty.
const aboutText = `I am a software engineer and designer who builds web ` +
	`applications, developer tools, and data-heavy backends. This site is my ` +
	`portfolio: it collects my blog posts, selected client and personal ` +
	`projects, and testimonials from people I have worked with. I take on ` +
	`freelance and contract work — the contact form on the site is the best ` +
	`way to reach me. The assistant answering questions here only knows what ` +
	`is published on this site: the about text, the blog, and the project ` +
	`descriptions.`

// About returns the static boilerplate document.
func About() Document {
	return Document{
		Text:   aboutText,
		Source: "about",
		Metadata: map[string]string{
			"source": "about",
			"title":  "About me",
		},
	}
}

// FromPost flattens a blog post into a Document.
func FromPost(p Post) Document {
	return Document{
		Text:   flatten(p.Title, p.Body),
		Source: "post",
		Metadata: map[string]string{
			"source": "post",
			"slug":   p.Slug,
			"title":  p.Title,
		},
	}
}

// FromProject flattens a project record into a Document.
func FromProject(p Project) Document {
	return Document{
		Text:   flatten(p.Title, p.Description),
		Source: "project",
		Metadata: map[string]string{
			"source": "project",
			"slug":   p.Slug,
			"title":  p.Title,
		},
	}
}

// FromUpload wraps operator-supplied text (the /ingest endpoint) into a
// Document, merging any caller metadata under the fixed source tag.
func FromUpload(text, filename string, meta map[string]string) Document {
	md := map[string]string{"source": "upload"}
	for k, v := range meta {
		if k == "source" {
			continue
		}
		md[k] = v
	}
	if filename != "" {
		md["filename"] = filename
	}
	return Document{Text: text, Source: "upload", Metadata: md}
}

// flatten joins a title and body with the fixed label format used across all
// database-backed sources. Ingestion and retrieval both depend on this exact
// shape staying stable between runs.
func flatten(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return body
	}
	return fmt.Sprintf("Title: %s\n\n%s", title, body)
}
