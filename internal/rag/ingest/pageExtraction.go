package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

// Page is the plain text of one 1-based page.
type Page struct {
	Number int
	Text   string
}

type pdfExtractor struct {
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func newPDFExtractor() *pdfExtractor {
	return &pdfExtractor{pageTimeout: config.PageExtractTimeout, logger: logger_i.NewLogger("pdf_extract")}
}

// openPDF reads the whole file through an explicit handle so it is always closed.
func openPDF(path string) (*pdf.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, func() { f.Close() }, nil
}

// newReader recovers the parser's panics on malformed cross-reference tables.
func newReader(f *os.File, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(f, size)
}

func (e *pdfExtractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	log := e.logger.WithTrace(ctx)
	r, closeFile, err := openPDF(path)
	if err != nil {
		log.Error("failed opening of pdf file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer closeFile()

	numPages := r.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)

	var pages []Page
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := e.protectExtract(ctx, page)
		if err != nil {
			// one unreadable page does not fail the document
			log.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, Page{Number: i, Text: content})
	}
	return pages, nil
}

// protectExtract bounds a single page with a timeout and turns parser panics into errors.
func (e *pdfExtractor) protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resChan <- result{err: fmt.Errorf("page parser panic: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(e.pageTimeout):
		return "", errors.New("page extraction timed out")
	}
}

func (e *pdfExtractor) ExtractImages(ctx context.Context, path string, minSize int) ([]RawImage, error) {
	r, closeFile, err := openPDF(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer closeFile()
	return extractImages(ctx, r, minSize, e.logger.WithTrace(ctx))
}

// catExtractor reads .docx, .odt, .rtf and plain text as a single page.
type catExtractor struct{}

func (catExtractor) ExtractPages(_ context.Context, path string) ([]Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}
	// these formats carry no page boundaries
	return []Page{{Number: 1, Text: text}}, nil
}

func (catExtractor) ExtractImages(context.Context, string, int) ([]RawImage, error) {
	return nil, nil
}
