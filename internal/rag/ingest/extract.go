package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

const pageExtractTimeout = 10 * time.Second

// ExtractSegments reads the file at path and returns its text segments: one per page for pdf,
// a single segment for docx and txt. meta.Source and meta.Filename default to path and its base name,
// the type is taken from meta.Filename's extension.
func ExtractSegments(ctx context.Context, path string, meta commonModels.SegmentMetadata) ([]commonModels.Segment, error) {
	if meta.Source == "" {
		meta.Source = path
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(path)
	}
	meta.Page = nil

	switch commonModels.DocTypeFromPath(meta.Filename) {
	case commonModels.PDF:
		return extractPDF(ctx, path, meta)
	case commonModels.DOCX:
		return extractDocx(path, meta)
	case commonModels.TXT:
		return extractTxt(path, meta)
	default:
		return nil, fmt.Errorf("%w: %q", ragErrors.ErrUnsupportedFormat, commonModels.FileExtension(meta.Filename))
	}
}

func extractPDF(ctx context.Context, path string, meta commonModels.SegmentMetadata) ([]commonModels.Segment, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	logger.Debug("extractPDF", "file", meta.Filename, "pages", numPages)
	segments := make([]commonModels.Segment, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "skipping null page", i)
			continue
		}

		content, err := protectExtract(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		pageMeta := meta
		pageMeta.Page = commonModels.IntPtr(i)
		segments = append(segments, commonModels.Segment{Text: content, Metadata: pageMeta})
	}
	return segments, nil
}

func extractDocx(path string, meta commonModels.SegmentMetadata) ([]commonModels.Segment, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract docx: %w", err)
	}
	return []commonModels.Segment{{Text: text, Metadata: meta}}, nil
}

func extractTxt(path string, meta commonModels.SegmentMetadata) ([]commonModels.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, errors.New("text file is not valid utf-8")
	}
	return []commonModels.Segment{{Text: string(data), Metadata: meta}}, nil
}

// protectExtract bounds a single page by pageExtractTimeout and recovers reader panics
func protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("malformed page: %v", r)}
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
	case <-time.After(pageExtractTimeout):
		logger.Error("pageExtract", "timeout", pageExtractTimeout)
		return "", errors.New("page extraction timed out")
	}
}
