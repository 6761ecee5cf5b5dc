package document

import (
	"context"
	"errors"
	"mime"
	"strings"
)

// ErrUnsupportedModality is returned for content types no TextSource handles.
var ErrUnsupportedModality = errors.New("tipo de archivo no soportado para OCR")

// Modality identifies how text is recovered from a document.
type Modality string

const (
	ModalityPDF   Modality = "pdf"
	ModalityImage Modality = "image"
	ModalityText  Modality = "text"
)

// Document is an uploaded invoice file.
type Document struct {
	Name        string
	ContentType string
	Content     []byte
}

// Modality resolves the document's modality from its content type.
func (d Document) Modality() (Modality, error) {
	return DetectModality(d.ContentType)
}

// DetectModality maps a MIME content type to a Modality. Parameters such as
// charset are ignored.
func DetectModality(contentType string) (Modality, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == "application/pdf":
		return ModalityPDF, nil
	case strings.HasPrefix(mediaType, "image/"):
		return ModalityImage, nil
	case mediaType == "text/plain":
		return ModalityText, nil
	default:
		return "", ErrUnsupportedModality
	}
}

// TextSource recovers raw text from document bytes.
// Implementations must be safe for concurrent use.
type TextSource interface {
	// ExtractText returns the text held in content. It honours ctx
	// cancellation for long running engines such as OCR.
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// TextSourceFunc adapts a function to TextSource.
type TextSourceFunc func(ctx context.Context, content []byte) (string, error)

// ExtractText calls f.
func (f TextSourceFunc) ExtractText(ctx context.Context, content []byte) (string, error) {
	return f(ctx, content)
}
