package extraction

import (
	"errors"
	"fmt"

	"3tcapital/ms_extraccion_facturas/internal/core/document"
)

var (
	ErrEmptyText         = errors.New("el texto a analizar está vacío")
	ErrEmptyDocument     = errors.New("el documento está vacío")
	ErrNoTextExtracted   = errors.New("no se pudo extraer texto del documento")
	ErrSourceUnavailable = errors.New("no hay un extractor de texto configurado para este tipo de archivo")
	ErrEmptyBatch        = errors.New("el lote no contiene documentos")
	ErrBatchTooLarge     = errors.New("el lote excede el número máximo de documentos")
	ErrAuditDisabled     = errors.New("la auditoría no está habilitada")
)

// SourceError reports a failure while recovering text from a PDF or image.
type SourceError struct {
	Modality document.Modality
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("error al extraer texto (%s): %v", e.Modality, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
