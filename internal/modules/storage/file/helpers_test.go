package file

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFileName(t *testing.T) {
	name := buildFileName("holiday photo.JPG")
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.Len(t, name, 18+len(".jpg"))

	assert.True(t, strings.HasSuffix(buildFileName("noext"), ".dat"))
	assert.NotEqual(t, buildFileName("a.png"), buildFileName("a.png"))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "photo.png", safeName("photo.png"))
	assert.Equal(t, "photo.png", safeName("/etc/photo.png"))
	assert.Equal(t, "", safeName("ph oto.png"))
	assert.Equal(t, "", safeName(""))
	assert.Equal(t, "", safeName("../.."))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", detectContentType("x.bin", nil, "image/png"))
	assert.Equal(t, "application/octet-stream", detectContentType("", nil, ""))
	assert.Contains(t, detectContentType("x.json", nil, ""), "application/json")
}
