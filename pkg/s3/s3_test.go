package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL_RoundTrip(t *testing.T) {
	endpoint, err := url.Parse("https://images.example.com")
	require.NoError(t, err)

	u := ObjectURL(endpoint, "cases", "case-1/property/photo.jpg")
	assert.Equal(t, "https://images.example.com/cases/case-1/property/photo.jpg", u)

	name, err := ObjectNameFromURL(u, "cases")
	require.NoError(t, err)
	assert.Equal(t, "case-1/property/photo.jpg", name)
}

func TestObjectNameFromURL_WrongBucket(t *testing.T) {
	_, err := ObjectNameFromURL("https://images.example.com/other/photo.jpg", "cases")
	assert.Error(t, err)

	_, err = ObjectNameFromURL("https://images.example.com/cases/", "cases")
	assert.Error(t, err)
}

func TestObjectStorage_NotConnected(t *testing.T) {
	o := NewObjectStorage("cases", "")

	_, err := o.UploadImage(context.Background(), "a.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.EqualError(t, err, "object storage is not connected")

	err = o.DeleteImage(context.Background(), "https://images.example.com/cases/a.jpg")
	assert.EqualError(t, err, "object storage is not connected")
}
