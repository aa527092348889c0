package document

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

var (
	reLineBreak    = regexp.MustCompile(`\r\n?`)
	reHorizontalWS = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	reSpaceAtBreak = regexp.MustCompile(` ?\n ?`)
	reMultiBlank   = regexp.MustCompile(`\n{3,}`)
)

// PDFTextFunc returns the text layer of a PDF and its page count.
type PDFTextFunc func(content []byte) (string, int, error)

type Normalizer struct {
	pdfText PDFTextFunc
}

func NewNormalizer() *Normalizer {
	return &Normalizer{pdfText: extractPDFText}
}

// NewNormalizerWithPDF swaps the PDF text layer reader.
func NewNormalizerWithPDF(pdfText PDFTextFunc) *Normalizer {
	if pdfText == nil {
		pdfText = extractPDFText
	}
	return &Normalizer{pdfText: pdfText}
}

func (n *Normalizer) Normalize(ctx context.Context, doc domain.RawDocument) (domain.NormalizedText, error) {
	if err := ctx.Err(); err != nil {
		return domain.NormalizedText{}, err
	}

	var (
		raw   string
		pages int
	)
	switch doc.MediaType {
	case domain.MediaTypePlainText:
		if !utf8.Valid(doc.Content) {
			return domain.NormalizedText{}, domain.WrapError(
				domain.ErrExtractionIO, "normalize document",
				fmt.Errorf("%s is not valid UTF-8 text", displayName(doc.Filename)),
			)
		}
		raw = string(doc.Content)
		pages = 1
	case domain.MediaTypePDF:
		text, count, err := n.readPDF(doc.Content)
		if err != nil {
			return domain.NormalizedText{}, domain.WrapError(
				domain.ErrExtractionIO, "normalize document",
				fmt.Errorf("read pdf %s: %w", displayName(doc.Filename), err),
			)
		}
		raw = text
		pages = count
	default:
		return domain.NormalizedText{}, domain.WrapError(
			domain.ErrUnsupportedMediaType, "normalize document",
			fmt.Errorf("media type %q is not supported", doc.MediaType),
		)
	}

	text := NormalizeText(raw)
	if text == "" {
		return domain.NormalizedText{}, domain.WrapError(
			domain.ErrExtractionIO, "normalize document",
			fmt.Errorf("%s contains no extractable text", displayName(doc.Filename)),
		)
	}
	return domain.NormalizedText{Text: text, Pages: pages}, nil
}

func (n *Normalizer) readPDF(content []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	if len(content) == 0 {
		return "", 0, errors.New("empty pdf")
	}
	return n.pdfText(content)
}

// NormalizeText canonicalizes whitespace. NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\ufeff", "")
	s = reLineBreak.ReplaceAllString(s, "\n")
	s = reHorizontalWS.ReplaceAllString(s, " ")
	s = reSpaceAtBreak.ReplaceAllString(s, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func displayName(filename string) string {
	if strings.TrimSpace(filename) == "" {
		return "document"
	}
	return filename
}
