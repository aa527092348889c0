package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText reads the text layer page by page. Scanned PDFs without a
// text layer come back empty and are rejected by the caller.
func extractPDFText(content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("read page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), pages, nil
}
