package planpro

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const fileExtension = ".ppxml"

// Source is a raw PlanPro document and where it came from.
type Source struct {
	Location    string
	Name        string
	Data        []byte
	Fingerprint string
}

// Loader reads documents from local paths or http(s) URLs.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

func NewLoader(timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "planpro_loader"),
	}
}

// NormalizeLocation appends the .ppxml extension to local paths that lack it.
func NormalizeLocation(location string) string {
	if isURL(location) || strings.HasSuffix(location, fileExtension) {
		return location
	}
	return location + fileExtension
}

// TopologyName is the file stem of the location.
func TopologyName(location string) string {
	base := filepath.Base(location)
	if isURL(location) {
		base = path.Base(strings.SplitN(location, "?", 2)[0])
	}
	return strings.TrimSuffix(base, fileExtension)
}

func DataFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (l *Loader) Load(ctx context.Context, location string) (*Source, error) {
	location = NormalizeLocation(location)

	var (
		data []byte
		err  error
	)
	if isURL(location) {
		data, err = l.download(ctx, location)
	} else {
		data, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("read file: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	return &Source{
		Location:    location,
		Name:        TopologyName(location),
		Data:        data,
		Fingerprint: DataFingerprint(data),
	}, nil
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	l.logger.Info("starting PlanPro download", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "planpro-importer/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Error("failed to download PlanPro",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("download planpro: %w", err)
	}
	defer resp.Body.Close()

	l.logger.Debug("received HTTP response",
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	l.logger.Info("PlanPro download completed",
		"size_kb", len(data)/1024,
		"total_duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
