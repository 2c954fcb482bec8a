package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"leadboard/domain"
)

func (c *Client) Company(ctx context.Context) (domain.Company, error) {
	var co domain.Company
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/company", path: "/company"}, &co)
	return co, err
}

// UploadLogo sends the logo as multipart form data in the "logo" field.
func (c *Client) UploadLogo(ctx context.Context, filename string, r io.Reader) (domain.Company, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", filename)
	if err != nil {
		return domain.Company{}, fmt.Errorf("upload logo: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.Company{}, fmt.Errorf("upload logo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.Company{}, fmt.Errorf("upload logo: %w", err)
	}

	var co domain.Company
	_, err = c.call(ctx, request{
		method:      http.MethodPost,
		route:       "/company/logo",
		path:        "/company/logo",
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
	}, &co)
	return co, err
}
