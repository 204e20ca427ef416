package domain

import (
	"fmt"
	"strings"
)

type Operation string

const (
	OpConvert     Operation = "convert"
	OpCompress    Operation = "compress"
	OpResize      Operation = "resize"
	OpCrop        Operation = "crop"
	OpExtractText Operation = "extract-text"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpConvert, OpCompress, OpResize, OpCrop, OpExtractText:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// ImageOnly reports whether the operation needs an image/* source.
func (o Operation) ImageOnly() bool {
	switch o {
	case OpConvert, OpCompress, OpResize, OpCrop:
		return true
	default:
		return false
	}
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatWebP ImageFormat = "webp"
)

const (
	DefaultQuality = 80
	FitInside      = "inside"
)

// ConversionRequest is the body of POST /api/files/{id}/convert.
type ConversionRequest struct {
	Format  ImageFormat `json:"format" validate:"required,oneof=jpeg png webp"`
	Width   *int        `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height  *int        `json:"height,omitempty" validate:"omitempty,gt=0"`
	Quality *int        `json:"quality,omitempty" validate:"omitempty,min=1,max=100"`
}

type CompressRequest struct {
	Quality int `json:"quality" validate:"min=1,max=100"`
}

type ResizeRequest struct {
	Width  *int   `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height *int   `json:"height,omitempty" validate:"omitempty,gt=0"`
	Fit    string `json:"fit" validate:"required"`
}

type CropRequest struct {
	X      int `json:"x" validate:"gte=0"`
	Y      int `json:"y" validate:"gte=0"`
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// ResultFilename derives the saved name for a transform of original.
func ResultFilename(op Operation, original string, format ImageFormat) string {
	switch op {
	case OpConvert:
		base, _, _ := strings.Cut(original, ".")
		return base + "." + string(format)
	case OpCompress:
		return "compressed_" + original
	case OpResize:
		return "resized_" + original
	case OpCrop:
		return "cropped_" + original
	default:
		return original
	}
}

// IntPtr is a helper for optional request fields.
func IntPtr(v int) *int {
	return &v
}
