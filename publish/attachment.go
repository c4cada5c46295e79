package publish

// attachment.go keeps the CSV history attachment of the wiki page in sync:
// the first run creates it, later runs prepend their row and replace it.

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/perfgo/trendwiki/codebeamer"
)

// AttachmentStore is the part of the remote client the reconciler drives.
type AttachmentStore interface {
	ListAttachments(ctx context.Context) ([]codebeamer.Attachment, error)
	ReadAttachmentContent(ctx context.Context, attachmentID string) ([]byte, error)
	CreateAttachment(ctx context.Context, name string, content []byte) error
	ReplaceAttachment(ctx context.Context, attachmentID, name string, content []byte) error
}

// Action tells what Reconcile did to the remote attachment.
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionReplaced
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionReplaced:
		return "replaced"
	default:
		return "none"
	}
}

// Reconciler creates or updates a named attachment.
type Reconciler struct {
	logger zerolog.Logger
	store  AttachmentStore
}

// NewReconciler returns a reconciler working on store.
func NewReconciler(logger zerolog.Logger, store AttachmentStore) *Reconciler {
	return &Reconciler{logger: logger, store: store}
}

// Find returns the attachment called name, matched exactly, or nil.
func (r *Reconciler) Find(ctx context.Context, name string) (*codebeamer.Attachment, error) {
	attachments, err := r.store.ListAttachments(ctx)
	if err != nil {
		return nil, err
	}

	for i := range attachments {
		if attachments[i].Name == name {
			return &attachments[i], nil
		}
	}
	return nil, nil
}

// Reconcile stores row as the newest line of the attachment called name.
// Existing content is kept after row.
func (r *Reconciler) Reconcile(ctx context.Context, name string, row []byte) (Action, error) {
	existing, err := r.Find(ctx, name)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to look up attachment %s: %w", name, err)
	}

	if existing == nil {
		r.logger.Debug().Str("name", name).Msg("Creating attachment")
		if err := r.store.CreateAttachment(ctx, name, row); err != nil {
			return ActionNone, fmt.Errorf("failed to create attachment %s: %w", name, err)
		}
		return ActionCreated, nil
	}

	previous, err := r.store.ReadAttachmentContent(ctx, existing.ID)
	if err != nil {
		return ActionNone, fmt.Errorf("failed to read attachment %s: %w", name, err)
	}

	content := make([]byte, 0, len(row)+len(previous))
	content = append(content, row...)
	content = append(content, previous...)

	r.logger.Debug().
		Str("name", name).
		Str("id", existing.ID).
		Int("previous_bytes", len(previous)).
		Msg("Replacing attachment")
	if err := r.store.ReplaceAttachment(ctx, existing.ID, name, content); err != nil {
		return ActionNone, fmt.Errorf("failed to replace attachment %s: %w", name, err)
	}
	return ActionReplaced, nil
}
