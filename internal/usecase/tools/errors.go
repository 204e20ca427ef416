package tools

import (
	"errors"

	"filedeck/internal/domain"
)

var ErrSinkFailed = errors.New("failed to save result")

var failureMessages = map[domain.Operation]string{
	domain.OpConvert:     "Conversion failed",
	domain.OpCompress:    "Compression failed",
	domain.OpResize:      "Resize failed",
	domain.OpCrop:        "Crop failed",
	domain.OpExtractText: "Text extraction failed",
}

const downloadFailedMessage = "Download failed"

func failureMessage(op domain.Operation) string {
	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return "Operation failed"
}
