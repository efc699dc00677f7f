package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/siteaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// Artifact is one written report file.
type Artifact struct {
	Format Format
	Path   string
	Bytes  int
}

// SaveArtifacts writes report in every format into dir, creating dir if
// needed. Files are written concurrently; the returned artifacts follow
// the order of formats.
func SaveArtifacts(ctx context.Context, dir string, report *model.Report, formats []Format) ([]Artifact, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := make([]Artifact, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		path := filepath.Join(dir, FileName(format, report.Timestamp))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := writeFile(path, format, report)
			if err != nil {
				return fmt.Errorf("failed to write %s report: %w", format, err)
			}
			artifacts[i] = Artifact{Format: format, Path: path, Bytes: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func writeFile(path string, format Format, report *model.Report) (n int, err error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := NewFileWriter(format, f)
	if err != nil {
		return 0, err
	}
	return w.Write(report)
}
