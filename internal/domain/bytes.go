package domain

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n in binary units rounded to two decimals:
// 0 -> "0 Bytes", 1024 -> "1 KB", 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	unit := 0
	scale := int64(1)
	for unit < len(sizeUnits)-1 && n >= scale*1024 {
		scale *= 1024
		unit++
	}

	value := math.Round(float64(n)/float64(scale)*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[unit]
}
