package domain

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

type MediaType string

const (
	MediaTypePDF       MediaType = "pdf"
	MediaTypePlainText MediaType = "plain-text"
)

// RawDocument is an uploaded FNOL file. It lives only for one pipeline run.
type RawDocument struct {
	Filename  string
	MediaType MediaType
	Content   []byte
}

type NormalizedText struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// ParseMediaType resolves a declared content type. An empty or generic
// declaration falls back to the filename extension.
func ParseMediaType(declared, filename string) (MediaType, error) {
	value := strings.TrimSpace(strings.ToLower(declared))
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		value = parsed
	}

	switch value {
	case "pdf", "application/pdf", "application/x-pdf":
		return MediaTypePDF, nil
	case "plain-text", "text", "txt", "text/plain":
		return MediaTypePlainText, nil
	case "", "application/octet-stream", "binary/octet-stream":
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".pdf":
			return MediaTypePDF, nil
		case ".txt", ".text":
			return MediaTypePlainText, nil
		}
	}

	label := declared
	if strings.TrimSpace(label) == "" {
		label = filepath.Ext(filename)
	}
	return "", WrapError(ErrUnsupportedMediaType, "parse media type", fmt.Errorf("media type %q is not pdf or plain text", label))
}
