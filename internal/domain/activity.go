package domain

import "time"

type ActivityKind string

const (
	ActivityUploaded      ActivityKind = "uploaded"
	ActivityBatchUploaded ActivityKind = "batch_uploaded"
	ActivityDeleted       ActivityKind = "deleted"
	ActivityBatchDeleted  ActivityKind = "batch_deleted"
	ActivityTransformed   ActivityKind = "transformed"
	ActivityDownloaded    ActivityKind = "downloaded"
)

const DefaultActivityTopic = "file-activity"

// ActivityEvent describes one finished catalog action.
type ActivityEvent struct {
	ID        string       `json:"id"`
	Kind      ActivityKind `json:"kind"`
	FileID    string       `json:"file_id,omitempty"`
	Filename  string       `json:"filename,omitempty"`
	Operation Operation    `json:"operation,omitempty"`
	Count     int          `json:"count,omitempty"`
	OK        bool         `json:"ok"`
	Message   string       `json:"message,omitempty"`
	At        time.Time    `json:"at"`
}

// Blob is a binary response body.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}
