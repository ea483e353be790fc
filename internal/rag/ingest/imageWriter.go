package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageWriter stores one PNG and returns the path recorded in the database.
// ClearImages drops whatever an earlier ingestion of filename wrote.
type ImageWriter interface {
	ClearImages(ctx context.Context, filename string) error
	WriteImage(ctx context.Context, filename string, img RawImage) (string, error)
}

// DirImageWriter writes into Root and returns paths relative to it.
type DirImageWriter struct {
	Root string
}

func NewDirImageWriter(root string) *DirImageWriter {
	return &DirImageWriter{Root: root}
}

// documentDir is the folder, relative to Root, holding one document's images.
func documentDir(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// ClearImages removes the document's image folder. A missing folder is not an error.
func (w *DirImageWriter) ClearImages(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(w.Root, documentDir(filename))); err != nil {
		return fmt.Errorf("clearing image dir: %w", err)
	}
	return nil
}

func (w *DirImageWriter) WriteImage(ctx context.Context, filename string, img RawImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.Join(documentDir(filename), fmt.Sprintf("page%d_img%d.png", img.PageNumber, img.Index))
	full := filepath.Join(w.Root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}
	if err := os.WriteFile(full, img.PNG, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
