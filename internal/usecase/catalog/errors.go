package catalog

const (
	fetchFailedMessage  = "Failed to fetch files. Make sure the backend API is running."
	deleteFailedMessage = "Failed to delete file"
	batchFailedMessage  = "Failed to delete files"

	confirmDeleteOne   = "Are you sure you want to delete this file?"
	confirmDeleteBatch = "Are you sure you want to delete %d file(s)?"
)
