package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	uploadPath  = "api/v1/bom"
	contentType = "application/vnd.cyclonedx+json; version = 1.6"
)

// BOMRepoUploader publishes CycloneDX documents to a BOM repository.
type BOMRepoUploader struct {
	requestURL *url.URL
	client     *http.Client
}

func NewBOMRepoUploader(serverURL string, timeout time.Duration) (*BOMRepoUploader, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")

	if parsedURL.Scheme == "" || parsedURL.Host == "" || parsedURL.Path != "" {
		return nil, errors.New("please define the server url with a scheme and without path, e.g. `http://some-url.com`")
	}

	parsedURL.Path = uploadPath

	return &BOMRepoUploader{
		requestURL: parsedURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *BOMRepoUploader) Upload(ctx context.Context, raw []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL.String(), bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	created, err := decodeUploadResponse(resp)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "BOM uploaded",
		slog.String("urn", created.SerialNumber),
		slog.Int("version", created.Version))
	return nil
}

type BOMCreateResponse struct {
	SerialNumber string `json:"serialNumber"`
	Version      int    `json:"version"`
}

func decodeUploadResponse(resp *http.Response) (BOMCreateResponse, error) {
	var zero BOMCreateResponse
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return zero, fmt.Errorf("failed to parse response content type header: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		if mediaType != "application/json" {
			return zero, fmt.Errorf("expected `application/json` content type, got: %s", mediaType)
		}
		var bc BOMCreateResponse
		if err := json.NewDecoder(resp.Body).Decode(&bc); err != nil {
			return zero, fmt.Errorf("decoding json response failed: %w", err)
		}
		if bc.SerialNumber == "" || bc.Version == 0 {
			return zero, errors.New("received unexpected body")
		}
		return bc, nil

	case http.StatusBadRequest, http.StatusConflict, http.StatusUnsupportedMediaType:
		if mediaType != "application/problem+json" {
			return zero, fmt.Errorf("expected `application/problem+json` content type, got: %s", mediaType)
		}
		var problemDetail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&problemDetail); err != nil {
			return zero, fmt.Errorf("decoding json response failed: %w", err)
		}
		return zero, fmt.Errorf("status code: %d, detail: %s", resp.StatusCode, problemDetail.Detail)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return zero, err
	}
	return zero, fmt.Errorf("unknown error, status: %d, body: %s", resp.StatusCode, string(respBody))
}
