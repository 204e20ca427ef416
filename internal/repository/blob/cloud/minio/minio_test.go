package minio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, time.March, 5, 10, 0, 0, 42, time.UTC)

	assert.Equal(t, "2024/03/05/1709632800000000042-cat.png", objectKey(at, "cat.png"))
	assert.Equal(t, "2024/03/05/1709632800000000042-cat.png", objectKey(at, "../dir/cat.png"))
	assert.Equal(t, "2024/03/05/1709632800000000042-download", objectKey(at, ""))
}
