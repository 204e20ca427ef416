package upload

const (
	singleSuccessMessage = "File uploaded successfully!"
	singleFailedMessage  = "Upload failed. Make sure the backend API is running"
	batchSuccessMessage  = "Successfully uploaded %d file(s)!"
	batchFailedMessage   = "Uploaded %d of %d file(s): %d succeeded, %d failed"
)
