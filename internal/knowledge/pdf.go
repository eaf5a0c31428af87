package knowledge

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minChunkLen filters out headings and page furniture.
const minChunkLen = 50

// AddPDF extracts per-page text from a PDF, splits it into paragraph chunks,
// and appends every chunk longer than minChunkLen to the corpus. Returns a
// status message with the resulting corpus size.
func (c *Corpus) AddPDF(path string) (string, error) {
	name := filepath.Base(path)

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close pdf file", "path", path, "error", closeErr)
		}
	}()

	var passages []Passage
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("failed to extract pdf page text", "source", name, "page", pageNum, "error", err)
			continue
		}
		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if len(para) > minChunkLen {
				passages = append(passages, Passage{Text: para, Source: name, Page: pageNum})
			}
		}
	}

	c.Add(passages...)

	return fmt.Sprintf("PDF loaded successfully. Extracted %d text chunks from '%s'.", len(passages), name), nil
}
