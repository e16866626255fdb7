package out

import (
	"context"
	"fmt"

	attachmentout "studyvault/internal/modules/attachment/port/out"
	"rsc.io/pdf"
)

type PDFPageCounter struct{}

func NewPDFPageCounter() attachmentout.PageCounter {
	return PDFPageCounter{}
}

// Pages opens the document and reports its page count. The pdf package
// panics on some malformed inputs, so those surface as errors.
func (PDFPageCounter) Pages(_ context.Context, path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()
	doc, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return doc.NumPage(), nil
}
