package port

import "context"

// StoredFile describes an accepted attachment: the stable retrieval URL the
// workflow persists against an item, and the storage-relative file name.
type StoredFile struct {
	URL      string
	FileName string
}

// AttachmentStore accepts a binary attachment and returns a stable retrieval
// URL. Implementations enforce size and content-type limits before accepting
// anything; the workflow never holds file bytes beyond the upload call.
type AttachmentStore interface {
	Store(ctx context.Context, ownerID, fileName, contentType string, content []byte) (*StoredFile, error)
}
