package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/domain/ragErrors"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/rag/segmenter"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// Extractor reads page text and embedded images from one source file.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]Page, error)
	ExtractImages(ctx context.Context, path string, minSize int) ([]RawImage, error)
}

// Pipeline turns a file on disk into a stored document:
// Extracted, ExistingCheck, Replaced or Fresh, Chunked, Embedded, Persisted,
// then the best-effort image stage.
type Pipeline struct {
	segmenter    *segmenter.Segmenter
	embedder     embedding.Embedder
	store        vectorDB.Store
	extractor    Extractor
	images       ImageWriter
	minImageSize int
	logger       *logger_i.Logger
}

type Option func(*Pipeline)

// WithExtractor replaces the extension-based extractor choice for every file.
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithImageWriter enables the image stage. Without one, images are not extracted.
func WithImageWriter(w ImageWriter) Option {
	return func(p *Pipeline) { p.images = w }
}

func WithMinImageSize(px int) Option {
	return func(p *Pipeline) { p.minImageSize = px }
}

func NewPipeline(seg *segmenter.Segmenter, embedder embedding.Embedder, store vectorDB.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		segmenter:    seg,
		embedder:     embedder,
		store:        store,
		minImageSize: config.DefaultMinImageDim,
		logger:       logger_i.NewLogger("Document Ingestion"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs every stage on the calling goroutine. Chunks are written only
// after all of them are embedded, so a failure leaves the previous version of
// filename untouched.
func (p *Pipeline) Ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error) {
	start := time.Now()
	result, err := p.ingest(ctx, filePath, filename)
	metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start))
	if err != nil {
		metrics.CountIngest("error")
		return commonModels.IngestResult{}, err
	}
	metrics.CountIngest("ok")
	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, filePath string, filename string) (commonModels.IngestResult, error) {
	if filename == "" {
		filename = filepath.Base(filePath)
	}
	log := p.logger.WithTrace(ctx).With("filename", filename)

	extractor, err := p.extractorFor(filePath)
	if err != nil {
		return commonModels.IngestResult{}, err
	}

	pages, err := extractor.ExtractPages(ctx, filePath)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return commonModels.IngestResult{}, ragErrors.New(ragErrors.ErrExtraction, "ingest.extract", err)
	}
	pages = nonEmptyPages(pages)
	if len(pages) == 0 {
		return commonModels.IngestResult{}, ragErrors.Newf(ragErrors.ErrExtraction, "ingest.extract", "%s has no page with text", filename)
	}
	log.Debug("Extracted", "pages", len(pages))

	_, replaced, err := p.store.GetDocument(ctx, filename)
	if err != nil {
		return commonModels.IngestResult{}, ragErrors.New(ragErrors.ErrIngestion, "ingest.existing", err)
	}
	if replaced {
		log.Info("Replacing existing document")
	}

	totalChars := 0
	var chunks []commonModels.Chunk
	for _, page := range pages {
		totalChars += utf8.RuneCountInString(page.Text)
		texts, err := p.segmenter.Segment(page.Text)
		if err != nil {
			return commonModels.IngestResult{}, ragErrors.New(ragErrors.ErrIngestion, "ingest.segment", err)
		}
		for _, text := range texts {
			chunks = append(chunks, commonModels.Chunk{PageNumber: page.Number, Text: text})
		}
	}
	log.Debug("Chunked", "chunks", len(chunks))

	for i := range chunks {
		vector, err := p.embedder.GetEmbedding(ctx, chunks[i].Text)
		if err != nil {
			log.Error("Embedding failed, abandoning document", "chunk", i, "page", chunks[i].PageNumber, "error", err)
			return commonModels.IngestResult{}, ragErrors.New(ragErrors.ErrIngestion, "ingest.embed", err)
		}
		chunks[i].Embedding = vector
	}
	log.Debug("Embedded", "chunks", len(chunks))

	doc := commonModels.Document{
		Filename:   filename,
		PageCount:  len(pages),
		TotalChars: totalChars,
	}
	if err := p.store.UpsertDocument(ctx, doc, chunks, nil); err != nil {
		log.Error("Error persisting document", "error", err)
		return commonModels.IngestResult{}, ragErrors.New(ragErrors.ErrIngestion, "ingest.persist", err)
	}
	log.Info("Persisted", "pages", len(pages), "chunks", len(chunks), "replaced", replaced)

	return commonModels.IngestResult{
		Filename:    filename,
		PageCount:   len(pages),
		TotalChars:  totalChars,
		TotalChunks: len(chunks),
		Replaced:    replaced,
		Images:      p.saveImages(ctx, extractor, filePath, filename),
	}, nil
}

// saveImages never fails the ingestion; problems come back as the outcome warning.
func (p *Pipeline) saveImages(ctx context.Context, extractor Extractor, filePath, filename string) commonModels.ImageOutcome {
	if p.images == nil {
		return commonModels.ImageOutcome{}
	}
	log := p.logger.WithTrace(ctx).With("filename", filename)

	raw, err := extractor.ExtractImages(ctx, filePath, p.minImageSize)
	if err != nil {
		return p.imageWarning(log, commonModels.ImageOutcome{}, "image extraction failed", err)
	}
	outcome := commonModels.ImageOutcome{Extracted: len(raw)}

	if err := p.images.ClearImages(ctx, filename); err != nil {
		return p.imageWarning(log, outcome, "clearing previous image files failed", err)
	}

	var rows []commonModels.Image
	var writeErrs []error
	for _, img := range raw {
		path, err := p.images.WriteImage(ctx, filename, img)
		if err != nil {
			writeErrs = append(writeErrs, err)
			continue
		}
		rows = append(rows, commonModels.Image{
			Filename:   filename,
			PageNumber: img.PageNumber,
			ImagePath:  path,
			ImageIndex: img.Index,
			Width:      img.Width,
			Height:     img.Height,
		})
	}

	if err := p.store.SaveImages(ctx, filename, rows); err != nil {
		return p.imageWarning(log, outcome, "saving image rows failed", err)
	}
	outcome.Saved = len(rows)
	if len(writeErrs) > 0 {
		return p.imageWarning(log, outcome, fmt.Sprintf("%d image files could not be written", len(writeErrs)), errors.Join(writeErrs...))
	}
	log.Debug("ImagesBestEffort", "extracted", outcome.Extracted, "saved", outcome.Saved)
	return outcome
}

func (p *Pipeline) imageWarning(log *logger_i.Logger, outcome commonModels.ImageOutcome, msg string, err error) commonModels.ImageOutcome {
	log.Warn(msg, "error", err)
	metrics.IncrementImageWarnings()
	outcome.Warning = fmt.Sprintf("%s: %v", msg, err)
	return outcome
}

func (p *Pipeline) extractorFor(filePath string) (Extractor, error) {
	if p.extractor != nil {
		return p.extractor, nil
	}
	switch getDocType(filePath) {
	case commonModels.PDF:
		return newPDFExtractor(), nil
	case commonModels.DOCX, commonModels.TXT:
		return catExtractor{}, nil
	default:
		return nil, ragErrors.Newf(ragErrors.ErrInvalidInput, "ingest", "unsupported file type %q", filepath.Ext(filePath))
	}
}

// Supported reports whether filePath has an extension the pipeline can extract.
func Supported(filePath string) bool {
	return getDocType(filePath) != commonModels.ERR
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func nonEmptyPages(pages []Page) []Page {
	kept := pages[:0:0]
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			kept = append(kept, page)
		}
	}
	return kept
}
