package services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/setlistify/internal/services"
	tu "github.com/desertthunder/setlistify/internal/testing"
)

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("img"))}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		data, err := services.DownloadImage(ctx, client, "https://i.scdn.co/image/a")
		if err != nil || string(data) != "img" {
			t.Errorf("expected image bytes, got %q (%v)", data, err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		_, err := services.DownloadImage(ctx, client, "https://i.scdn.co/image/a")
		if err == nil || !strings.Contains(err.Error(), "failed to download image") {
			t.Errorf("expected download error, got %v", err)
		}
	})

	t.Run("Bad Status", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(""))}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		if _, err := services.DownloadImage(ctx, client, "https://i.scdn.co/image/a"); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

		if _, err := services.DownloadImage(ctx, client, "https://i.scdn.co/image/a"); err == nil || !strings.Contains(err.Error(), "failed to read image") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}
