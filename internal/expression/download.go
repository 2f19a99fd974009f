package expression

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Downloader fetches registered datasets into a data directory.
type Downloader struct {
	client *http.Client
	logger *zap.Logger

	// Progress, when set, wraps the response body so the caller can report
	// bytes read. total is -1 when the server sends no length.
	Progress func(name string, total int64, body io.Reader) io.Reader
}

// NewDownloader creates a downloader using client, or a client with a long
// timeout when nil.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	return &Downloader{client: client, logger: zap.NewNop()}
}

// SetLogger sets the logger for download messages.
func (d *Downloader) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Download fetches src into datadir and returns the local path. Files that
// already exist are left alone.
func (d *Downloader) Download(ctx context.Context, src Source, datadir string) (string, error) {
	dest := src.Path(datadir)
	if info, err := os.Stat(dest); err == nil {
		d.logger.Info("dataset already downloaded",
			zap.String("dataset", src.Name),
			zap.String("path", dest),
			zap.String("size", humanize.IBytes(uint64(info.Size()))))
		return dest, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	d.logger.Info("downloading dataset", zap.String("dataset", src.Name), zap.String("url", src.URL))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if d.Progress != nil {
		body = d.Progress(src.Name, resp.ContentLength, body)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("download failed: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename file: %w", err)
	}

	d.logger.Info("download complete", zap.String("dataset", src.Name), zap.String("size", humanize.IBytes(uint64(n))))
	return dest, nil
}
