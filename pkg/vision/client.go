package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ErrNoText is returned when the vision service read the image fine but found
// no usable text on it (blank back label, logo-only shot).
var ErrNoText = errors.New("no text recognized")

// Client calls the external OCR/vision service. OCR itself is the service's
// job; this client only normalizes the photo and ships it.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from VISION_URL / VISION_API_KEY.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL:    strings.TrimRight(os.Getenv("VISION_URL"), "/"),
		APIKey:     os.Getenv("VISION_API_KEY"),
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize runs the label photo at path through the vision service and
// returns the raw OCR text. Transport and HTTP failures come back as errors;
// an empty transcription is ErrNoText.
func (c *Client) Recognize(ctx context.Context, path string) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("vision service not configured (VISION_URL)")
	}
	img, err := preprocess(path)
	if err != nil {
		return "", fmt.Errorf("prepare image: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "label.png")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(img); err != nil {
		return "", err
	}
	_ = mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/ocr", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("vision service status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var rr recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if strings.TrimSpace(rr.Text) == "" {
		return "", ErrNoText
	}
	return rr.Text, nil
}

// preprocess applies light normalization before upload: grayscale, a touch of
// contrast, and an upscale for small photos. Label shots from phones are
// often low-contrast and slightly soft.
func preprocess(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
