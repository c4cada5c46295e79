package model

// ScmSummary is the source control information of a build after user and
// repository names have been resolved against the remote store.
type ScmSummary struct {
	Changes      []ResolvedChange
	Repositories []ResolvedRepository
}

// ResolvedChange is a changeset whose author was looked up remotely.
type ResolvedChange struct {
	Changeset
	// Remote user identifier of the author, empty when unknown
	AuthorID string
}

// ResolvedRepository pairs a remote with its link in the remote store, or
// a sentinel text when the repository is not managed there.
type ResolvedRepository struct {
	Repository
	Link string
}
