package trend

// merge.go contains the history merge engine which inserts a rendered build
// entry into the report block of a wiki document and drops entries beyond
// the retention window.

import (
	"errors"
	"strings"
)

const (
	// BlockClose ends the opening token of the report block. New entries are
	// inserted directly after its first occurrence.
	BlockClose = "}]"
	// EntryMarker starts every entry of the report block.
	EntryMarker = "//DO NOT MODIFY"
	// DefaultKeep is the retention window used when none is configured.
	DefaultKeep = 50
)

// ErrBlockMissing is returned when no report block can be located for
// insertion. Writing the document in that state would corrupt it.
var ErrBlockMissing = errors.New("report block closing marker not found")

// boundaries holds the positions of the markers of a document, computed in
// one pass.
type boundaries struct {
	// offset of the first BlockClose, -1 when absent
	blockClose int
	// offsets of every EntryMarker that opens an entry, in document order
	entries []int
}

// scan indexes markup. A marker opens an entry only at the start of a line
// or directly after the block opening token; the same text inside an entry
// (a commit subject, a test name) is content.
func scan(markup string) boundaries {
	b := boundaries{blockClose: strings.Index(markup, BlockClose)}

	for offset := 0; offset < len(markup); {
		i := strings.Index(markup[offset:], EntryMarker)
		if i == -1 {
			break
		}
		at := offset + i
		if opensEntry(markup, at) {
			b.entries = append(b.entries, at)
		}
		offset = at + len(EntryMarker)
	}

	return b
}

func opensEntry(markup string, at int) bool {
	return at == 0 ||
		markup[at-1] == '\n' ||
		strings.HasSuffix(markup[:at], BlockClose)
}

// hasBlock reports whether a report block closing marker exists.
func (b boundaries) hasBlock() bool {
	return b.blockClose != -1
}

// cut returns the offset at which the document has to be cut to keep fewer
// than keep entries, or -1 when no truncation is needed.
func (b boundaries) cut(keep int) int {
	if keep <= 0 || len(b.entries) < keep {
		return -1
	}
	return b.entries[keep-1]
}

// EffectiveKeep resolves an optional retention setting. nil selects
// DefaultKeep; values <= 0 mean unlimited.
func EffectiveKeep(keep *int) int {
	if keep == nil {
		return DefaultKeep
	}
	return *keep
}

// CountEntries returns the number of entries in markup.
func CountEntries(markup string) int {
	return len(scan(markup).entries)
}

// EnsureBlock prepends the default block of the family if markup has no
// report block.
func EnsureBlock(markup string, family Family) string {
	if scan(markup).hasBlock() {
		return markup
	}
	return family.DefaultBlock() + markup
}

// Truncate drops everything from the keep-th entry marker onwards, leaving
// room for exactly one new entry. keep <= 0 disables truncation.
func Truncate(markup string, keep int) string {
	if cut := scan(markup).cut(keep); cut != -1 {
		return markup[:cut]
	}
	return markup
}

// Insert places entry directly after the first closing marker, so entries
// stay ordered newest first.
func Insert(markup, entry string) (string, error) {
	b := scan(markup)
	if !b.hasBlock() {
		return "", ErrBlockMissing
	}

	at := b.blockClose + len(BlockClose)

	var sb strings.Builder
	sb.Grow(len(markup) + len(entry))
	sb.WriteString(markup[:at])
	sb.WriteString(entry)
	sb.WriteString(markup[at:])
	return sb.String(), nil
}

// Merge returns current with entry inserted as the newest entry of the
// report block and at most keep entries in total. A document without a
// report block gets the default block of family first.
func Merge(current, entry string, keep int, family Family) (string, error) {
	markup := EnsureBlock(current, family)

	b := scan(markup)
	if cut := b.cut(keep); cut != -1 {
		markup = markup[:cut]
		// entries written before the block can take the block with them
		if cut <= b.blockClose {
			markup = family.DefaultBlock() + markup
		}
	}

	return Insert(markup, entry)
}
