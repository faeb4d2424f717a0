package vision

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	img := imaging.New(400, 200, color.NRGBA{255, 255, 255, 255})
	f, err := os.CreateTemp(t.TempDir(), "label-*.png")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	_ = f.Close()
	if err := imaging.Save(img, f.Name()); err != nil {
		t.Fatalf("save image: %v", err)
	}
	return f.Name()
}

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ocr" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k1" {
			t.Fatalf("bad auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"CHATEAU EXAMPLE 2015"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "k1", HTTPClient: srv.Client()}
	text, err := c.Recognize(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "CHATEAU EXAMPLE 2015" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestRecognizeEmptyTextIsErrNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"  "}`))
	}))
	defer srv.Close()
	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	if _, err := c.Recognize(context.Background(), writeTestImage(t)); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText got %v", err)
	}
}

func TestRecognizeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := c.Recognize(context.Background(), writeTestImage(t))
	if err == nil || errors.Is(err, ErrNoText) {
		t.Fatalf("expected transport-style error got %v", err)
	}
}
