package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// UploadService pushes binary payloads into object storage and returns
// their public download URLs.
type UploadService struct {
	client *Client
}

type uploadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// Upload stores the payload at the given storage path and returns the
// public URL. contentType defaults to application/octet-stream.
func (s *UploadService) Upload(ctx context.Context, path, contentType string, payload io.Reader) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.client.baseURL+"/storage/"+path, payload)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build upload request")
	}
	req.Header.Set("Content-Type", contentType)

	token, err := s.client.tokens.IDToken(ctx)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryAuth, "no session token for upload").
			WithCode(goerrors.CodeUnauthorized)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.http.Do(req)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", goerrors.New("upload rejected", goerrors.CategoryOperation).
			WithMetadata(map[string]any{"status": resp.StatusCode, "path": path})
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode upload response")
	}
	return out.DownloadURL, nil
}
