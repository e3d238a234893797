package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/adrg/frontmatter"
)

// DocumentHandler turns raw file bytes into a Document
type DocumentHandler interface {
	CanHandle(path string) bool
	Handle(path string, data []byte) (*Document, error)
}

// postFrontMatter holds the frontmatter keys a post understands
type postFrontMatter struct {
	Title         string   `yaml:"title" toml:"title"`
	Tags          []string `yaml:"tags" toml:"tags"`
	CanonicalURL  string   `yaml:"canonical_url" toml:"canonical_url"`
	PublishStatus string   `yaml:"publish_status" toml:"publish_status"`
}

// MarkdownHandler handles markdown files (fallback)
type MarkdownHandler struct{}

func (h *MarkdownHandler) CanHandle(path string) bool {
	return true
}

func (h *MarkdownHandler) Handle(path string, data []byte) (*Document, error) {
	plain := &Document{
		Path:   path,
		Body:   string(data),
		Format: ContentFormatMarkdown,
	}
	if !hasFrontMatter(data) {
		return plain, nil
	}

	// A leading thematic break followed by another one later is not a
	// metadata block; such files are sent as-is
	var meta postFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return plain, nil
	}

	return &Document{
		Path:          path,
		Title:         strings.TrimSpace(meta.Title),
		Body:          strings.TrimLeft(string(body), "\r\n"),
		Format:        ContentFormatMarkdown,
		Tags:          meta.Tags,
		CanonicalURL:  meta.CanonicalURL,
		PublishStatus: meta.PublishStatus,
	}, nil
}

// hasFrontMatter reports whether data opens with a YAML or TOML delimiter line
func hasFrontMatter(data []byte) bool {
	for _, delim := range []string{"---", "+++"} {
		if !bytes.HasPrefix(data, []byte(delim)) {
			continue
		}
		rest := data[len(delim):]
		rest = bytes.TrimLeft(rest, " \t")
		if bytes.HasPrefix(rest, []byte("\n")) || bytes.HasPrefix(rest, []byte("\r\n")) {
			return true
		}
	}
	return false
}

// HTMLHandler converts HTML exports to markdown
type HTMLHandler struct {
	converter *md.Converter
}

// NewHTMLHandler creates an HTML handler with a commonmark converter
func NewHTMLHandler() *HTMLHandler {
	return &HTMLHandler{converter: md.NewConverter("", true, nil)}
}

func (h *HTMLHandler) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

func (h *HTMLHandler) Handle(path string, data []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML in %s: %w", path, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	markdown := h.converter.Convert(doc.Find("body"))

	return &Document{
		Path:   path,
		Title:  title,
		Body:   markdown,
		Format: ContentFormatMarkdown,
	}, nil
}
