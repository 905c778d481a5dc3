// Package weights turns a weight record's access configuration into a file
// on local disk, downloading it into the weights directory when only a
// remote URL is configured.
package weights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"flowd/internal/plugin"
)

// Fetcher implements plugin.WeightFetcher.
type Fetcher struct {
	dir        string
	client     *http.Client
	log        zerolog.Logger
	maxElapsed time.Duration
	initial    time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the client used for downloads.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(f *Fetcher) { f.log = l } }

// WithRetry bounds the download retry loop.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(f *Fetcher) { f.initial, f.maxElapsed = initial, maxElapsed }
}

// New returns a Fetcher storing downloads under dir/flows/<revision>/.
func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir:        dir,
		client:     &http.Client{Timeout: 10 * time.Minute},
		log:        zerolog.Nop(),
		initial:    500 * time.Millisecond,
		maxElapsed: 2 * time.Minute,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

var _ plugin.WeightFetcher = (*Fetcher)(nil)

// Path returns an absolute local path for wc. A configured local path that
// exists wins; otherwise the online URL is downloaded once and reused.
func (f *Fetcher) Path(ctx context.Context, revision string, wc plugin.WeightConfig, sink plugin.MessageSink) (string, error) {
	emit := func(msg string) {
		if sink != nil {
			sink(msg)
		}
	}
	if wc.Local != "" {
		p, err := ExpandHome(wc.Local)
		if err != nil {
			return "", err
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if PathExists(p) {
			return p, nil
		}
		emit("Model path not found: " + wc.Local)
	}
	if wc.Online == "" {
		return "", MissingError{Name: wc.Name, Local: wc.Local}
	}

	name, err := filenameFromURL(wc.Online)
	if err != nil {
		return "", err
	}
	dir, err := ExpandHome(f.dir)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(filepath.Join(dir, "flows", revision, name))
	if err != nil {
		return "", err
	}
	if PathExists(target) {
		return target, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create weights dir: %w", err)
	}

	emit(fmt.Sprintf("Downloading %s to %s", shorten(wc.Online), target))
	op := func() error { return f.download(ctx, wc.Online, target, emit) }
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.initial
	bo.MaxElapsedTime = f.maxElapsed
	notify := func(err error, wait time.Duration) {
		f.log.Warn().Err(err).Str("url", wc.Online).Dur("retry_in", wait).Msg("weight download failed")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		emit(fmt.Sprintf("Could not download %s: %v", shorten(wc.Online), err))
		return "", DownloadError{URL: wc.Online, Err: err}
	}
	f.log.Info().Str("url", wc.Online).Str("path", target).Msg("weight downloaded")
	return target, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, target string, emit plugin.MessageSink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return backoff.Permanent(err)
	}
	defer os.Remove(tmp.Name())
	pr := &progress{total: resp.ContentLength, label: shorten(rawURL), emit: emit}
	if _, err := io.Copy(tmp, io.TeeReader(resp.Body, pr)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func filenameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse weight url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", errors.New("weight url has no file name: " + raw)
	}
	return name, nil
}

func shorten(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:20] + "..." + s[len(s)-20:]
}

// progress reports download progress in 10% steps.
type progress struct {
	total int64
	n     int64
	last  int64
	label string
	emit  plugin.MessageSink
}

func (p *progress) Write(b []byte) (int, error) {
	p.n += int64(len(b))
	if p.total > 0 && p.emit != nil {
		pct := p.n * 100 / p.total
		if pct/10 > p.last/10 {
			p.last = pct
			p.emit(fmt.Sprintf("Downloading %s: %d%%", p.label, pct))
		}
	}
	return len(b), nil
}
