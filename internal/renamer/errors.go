package renamer

import "errors"

var (
	ErrFailedToLoadMetadata    = errors.New("failed to load attachment metadata")
	ErrFailedToSaveMetadata    = errors.New("failed to save attachment metadata")
	ErrFailedToListAttachments = errors.New("failed to list attachments")

	// A name whose stem cleans down to nothing would rename the file onto its directory.
	ErrEmptyFilename = errors.New("clean filename is empty")
)
