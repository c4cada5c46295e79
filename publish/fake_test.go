package publish

import (
	"context"
	"errors"
	"strconv"

	"github.com/perfgo/trendwiki/codebeamer"
	"github.com/perfgo/trendwiki/model"
)

var errRemote = &codebeamer.RemoteError{Op: "test", URL: "http://cb.example.com", StatusCode: 500}

// fakeRemote is an in-memory wiki page with attachments that records every
// call made against it.
type fakeRemote struct {
	markup      string
	attachments []codebeamer.Attachment
	contents    map[string][]byte
	users       map[string]string
	repos       map[string]string

	calls []string

	readErr    error
	listErr    error
	contentErr error
	createErr  error
	replaceErr error
	writeErr   error
	userErr    error
}

func newFakeRemote(markup string) *fakeRemote {
	return &fakeRemote{
		markup:   markup,
		contents: map[string][]byte{},
		users:    map[string]string{},
		repos:    map[string]string{},
	}
}

func (f *fakeRemote) called(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeRemote) ReadDocument(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "ReadDocument")
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.markup, nil
}

func (f *fakeRemote) WriteDocument(ctx context.Context, markup string) error {
	f.calls = append(f.calls, "WriteDocument")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.markup = markup
	return nil
}

func (f *fakeRemote) ListAttachments(ctx context.Context) ([]codebeamer.Attachment, error) {
	f.calls = append(f.calls, "ListAttachments")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]codebeamer.Attachment(nil), f.attachments...), nil
}

func (f *fakeRemote) ReadAttachmentContent(ctx context.Context, attachmentID string) ([]byte, error) {
	f.calls = append(f.calls, "ReadAttachmentContent")
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	return f.contents[attachmentID], nil
}

func (f *fakeRemote) CreateAttachment(ctx context.Context, name string, content []byte) error {
	f.calls = append(f.calls, "CreateAttachment")
	if f.createErr != nil {
		return f.createErr
	}
	id := strconv.Itoa(100 + len(f.attachments))
	f.attachments = append(f.attachments, codebeamer.Attachment{ID: id, Name: name})
	f.contents[id] = append([]byte(nil), content...)
	return nil
}

func (f *fakeRemote) ReplaceAttachment(ctx context.Context, attachmentID, name string, content []byte) error {
	f.calls = append(f.calls, "ReplaceAttachment")
	if f.replaceErr != nil {
		return f.replaceErr
	}
	for _, a := range f.attachments {
		if a.ID == attachmentID {
			f.contents[attachmentID] = append([]byte(nil), content...)
			return nil
		}
	}
	return errors.New("unknown attachment " + attachmentID)
}

func (f *fakeRemote) LookupUserID(ctx context.Context, displayName string) (string, bool, error) {
	f.calls = append(f.calls, "LookupUserID")
	if f.userErr != nil {
		return "", false, f.userErr
	}
	id, ok := f.users[displayName]
	return id, ok, nil
}

func (f *fakeRemote) LookupRepository(ctx context.Context, kind model.RepositoryKind, remote string) string {
	f.calls = append(f.calls, "LookupRepository")
	if link, ok := f.repos[remote]; ok {
		return link
	}
	return codebeamer.NotManaged
}

// content returns the stored content of the attachment called name.
func (f *fakeRemote) content(name string) (string, bool) {
	for _, a := range f.attachments {
		if a.Name == name {
			return string(f.contents[a.ID]), true
		}
	}
	return "", false
}
