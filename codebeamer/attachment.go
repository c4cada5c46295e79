package codebeamer

// attachment.go contains the wiki page attachment operations.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// Attachment is a file attached to a wiki page.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// attachmentDto accepts numeric and string ids as the remote returns either
// depending on version.
type attachmentDto struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// ListAttachments returns the attachments of the wiki page. A page without
// attachments yields an empty slice.
func (c *Client) ListAttachments(ctx context.Context) ([]Attachment, error) {
	url := fmt.Sprintf("%s/rest/wikipage/%s/attachments", c.baseURL, c.wikiID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, &RemoteError{Op: "list attachments", URL: url, Err: err}
	}
	if status != http.StatusOK {
		return nil, &RemoteError{Op: "list attachments", URL: url, StatusCode: status}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []Attachment{}, nil
	}

	var dtos []attachmentDto
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, &RemoteError{Op: "list attachments", URL: url, StatusCode: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	attachments := make([]Attachment, 0, len(dtos))
	for _, dto := range dtos {
		attachments = append(attachments, Attachment{ID: dto.ID.String(), Name: dto.Name})
	}
	return attachments, nil
}

// ReadAttachmentContent returns the stored bytes of an attachment. Content
// that does not exist (404) is returned as empty; any other non-success
// status is an error so history is never dropped silently.
func (c *Client) ReadAttachmentContent(ctx context.Context, attachmentID string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/attachment/%s/content", c.baseURL, attachmentID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, &RemoteError{Op: "read attachment", URL: url, Err: err}
	}
	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		c.logger.Debug().Str("attachment", attachmentID).Msg("Attachment has no content")
		return []byte{}, nil
	default:
		return nil, &RemoteError{Op: "read attachment", URL: url, StatusCode: status}
	}
}

// CreateAttachment uploads a new attachment to the wiki page.
func (c *Client) CreateAttachment(ctx context.Context, name string, content []byte) error {
	url := c.baseURL + "/rest/attachment"

	meta := map[string]string{
		"parent": "/wikipage/" + c.wikiID,
		"name":   name,
	}
	return c.uploadAttachment(ctx, "create attachment", http.MethodPost, url, meta, name, content)
}

// ReplaceAttachment replaces the full content of an existing attachment.
func (c *Client) ReplaceAttachment(ctx context.Context, attachmentID, name string, content []byte) error {
	url := c.baseURL + "/rest/attachment"

	meta := map[string]string{
		"uri": "/attachment/" + attachmentID,
	}
	return c.uploadAttachment(ctx, "replace attachment", http.MethodPut, url, meta, name, content)
}

func (c *Client) uploadAttachment(ctx context.Context, op, method, url string, meta map[string]string, name string, content []byte) error {
	body, contentType, err := buildAttachmentBody(meta, name, content)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}

	status, err := c.send(ctx, method, url, contentType, body)
	if err != nil {
		return &RemoteError{Op: op, URL: url, Err: err}
	}
	if status != http.StatusOK {
		return &RemoteError{Op: op, URL: url, StatusCode: status}
	}

	c.logger.Debug().
		Str("name", name).
		Int("bytes", len(content)).
		Msg("Attachment uploaded")
	return nil
}

// buildAttachmentBody encodes the multipart form expected by the attachment
// endpoint: a JSON "body" part followed by one file part named after the
// attachment.
func buildAttachmentBody(meta map[string]string, name string, content []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="body"`)
	header.Set("Content-Type", "application/json; charset=UTF-8")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(metaJSON); err != nil {
		return nil, "", err
	}

	filePart, err := w.CreateFormFile(name, name)
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write(content); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
