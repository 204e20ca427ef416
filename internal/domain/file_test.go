package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{`123`, 123},
		{`"123"`, 123},
		{`12.9`, 12},
		{`"45.7"`, 45},
		{`null`, 0},
		{`""`, 0},
		{`" 7 "`, 7},
	}

	for _, tt := range tests {
		var n FlexInt
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &n), tt.raw)
		assert.Equal(t, tt.want, n.Int64(), tt.raw)
	}

	var n FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func TestMetadataAcceptsObjectOrEncodedString(t *testing.T) {
	var fromObject, fromString FileRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","metadata":{"width":640,"format":"png"}}`), &fromObject))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b","metadata":"{\"width\":640,\"format\":\"png\"}"}`), &fromString))

	assert.Equal(t, fromObject.Metadata.Fields(), fromString.Metadata.Fields())
	assert.Equal(t, "png", fromString.Metadata.Fields()["format"])
}

func TestMetadataEmptyForms(t *testing.T) {
	for _, raw := range []string{`{"id":"a"}`, `{"id":"a","metadata":null}`, `{"id":"a","metadata":""}`} {
		var r FileRecord
		require.NoError(t, json.Unmarshal([]byte(raw), &r), raw)
		assert.True(t, r.Metadata.Empty(), raw)
		assert.Nil(t, r.Metadata.Fields(), raw)
	}

}

func TestMetadataKeepsUndecodableString(t *testing.T) {
	var r FileRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","metadata":"not json"}`), &r))

	assert.False(t, r.Metadata.Empty())
	assert.Nil(t, r.Metadata.Fields())
	assert.JSONEq(t, `"not json"`, string(r.Metadata))

	out, err := json.Marshal(r.Metadata)
	require.NoError(t, err)
	assert.Equal(t, `"not json"`, string(out))
}

func TestFileRecordDecode(t *testing.T) {
	raw := `{
		"id": "f1",
		"original_filename": "photo.png",
		"mime_type": "image/png",
		"size": "2097152",
		"created_at": "2024-05-01T10:00:00Z"
	}`

	var r FileRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, "f1", r.ID)
	assert.Equal(t, int64(2<<20), r.Size.Int64())
	assert.True(t, r.IsImage())
	assert.False(t, r.IsPDF())
	assert.Equal(t, 2024, r.CreatedAt.Year())
}
