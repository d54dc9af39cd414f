package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	"image/jpeg"
	_ "image/png" // decoder registration
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

const (
	// MaxCoverSize is the largest width and height of an uploaded cover.
	MaxCoverSize = 800

	// Spotify rejects cover payloads over 256 KB (base64 encoded).
	maxCoverPayload = 256 * 1024

	coverQuality    = 85
	minCoverQuality = 40
	maxImageBytes   = 10 << 20
)

// PrepareCoverImage decodes data, scales it to fit within [MaxCoverSize]x[MaxCoverSize] keeping the
// aspect ratio and re-encodes it as JPEG.
//
// Quality starts at 85 and is lowered until the base64 payload fits Spotify's limit.
func PrepareCoverImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), MaxCoverSize)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	for quality := coverQuality; ; quality -= 15 {
		buf.Reset()
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if base64Len(buf.Len()) <= maxCoverPayload || quality-15 < minCoverQuality {
			break
		}
	}

	return buf.Bytes(), nil
}

// fitWithin scales width and height down so neither exceeds limit. Smaller images are unchanged.
func fitWithin(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}

	if width >= height {
		h := height * limit / width
		return limit, max(h, 1)
	}

	w := width * limit / height
	return max(w, 1), limit
}

func base64Len(n int) int {
	return (n + 2) / 3 * 4
}

// DownloadImage fetches an image over HTTP.
func DownloadImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
