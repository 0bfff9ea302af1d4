package inventory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrPhotoTooLarge = errors.New("photo is too large")
	ErrNotAnImage    = errors.New("file is not an image")
)

// PhotoFetcher turns uploads and remote images into data: URLs, the form
// photos are stored in.
type PhotoFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewPhotoFetcher(maxBytes int64) *PhotoFetcher {
	return &PhotoFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
	}
}

// Download fetches an http(s) image.
func (f *PhotoFetcher) Download(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid photo url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build photo request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SupplySync/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	return f.encode(resp.Body)
}

// FromUpload reads a multipart file.
func (f *PhotoFetcher) FromUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > f.maxBytes {
		return "", ErrPhotoTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	return f.encode(file)
}

// Check validates a data: URL sent inline with a form. The empty string is
// accepted and means no photo.
func (f *PhotoFetcher) Check(dataURL string) error {
	if dataURL == "" {
		return nil
	}
	rest, ok := strings.CutPrefix(dataURL, "data:image/")
	if !ok {
		return ErrNotAnImage
	}
	_, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return ErrNotAnImage
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > f.maxBytes {
		return ErrPhotoTooLarge
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return ErrNotAnImage
	}
	return nil
}

func (f *PhotoFetcher) encode(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return "", ErrPhotoTooLarge
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", ErrNotAnImage
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
