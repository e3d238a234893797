package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	ErrNoHandler       = errors.New("no handler found")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrEmptyDocument   = errors.New("document is empty")
)

var utf8BOM = []byte("\xef\xbb\xbf")

// DocumentLoader reads local files through a handler chain
type DocumentLoader struct {
	handlers []DocumentHandler
	markdown goldmark.Markdown
}

// NewDocumentLoader creates a loader with the default handlers
func NewDocumentLoader() *DocumentLoader {
	l := &DocumentLoader{
		markdown: goldmark.New(),
	}

	// Register handlers (most specific first)
	l.AddHandler(NewHTMLHandler())
	l.AddHandler(&MarkdownHandler{}) // fallback

	return l
}

// AddHandler adds a document handler to the chain
func (l *DocumentLoader) AddHandler(handler DocumentHandler) {
	l.handlers = append(l.handlers, handler)
}

// Load reads path in full and builds a Document. An explicit title wins over
// any title found in the file.
func (l *DocumentLoader) Load(path, title string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, path)
	}

	var doc *Document
	for _, handler := range l.handlers {
		if handler.CanHandle(path) {
			doc, err = handler.Handle(path, data)
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoHandler, path)
	}

	if strings.TrimSpace(doc.Body) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	doc.Title = l.resolveTitle(doc, title)
	return doc, nil
}

// resolveTitle picks the explicit title, then the file's own title, then the
// first top-level heading, then the file name.
func (l *DocumentLoader) resolveTitle(doc *Document, explicit string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if doc.Title != "" {
		return doc.Title
	}
	if t := l.firstHeading(doc.Body); t != "" {
		return t
	}
	base := filepath.Base(doc.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// firstHeading returns the text of the first level-1 heading in content
func (l *DocumentLoader) firstHeading(content string) string {
	source := []byte(content)
	root := l.markdown.Parser().Parse(text.NewReader(source))

	var title string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
			title = strings.TrimSpace(string(heading.Text(source)))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return title
}
