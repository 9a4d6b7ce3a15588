package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", DetectContentType("script.py"))
	assert.Equal(t, "text/plain; charset=utf-8", DetectContentType("NOTES.MD"))
	assert.Equal(t, "image/png", DetectContentType("a.png"))
	assert.Equal(t, "application/octet-stream", DetectContentType("blob"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "*****", MaskSecret("abc"))
	assert.Equal(t, "ghp_*****", MaskSecret("ghp_0123456789"))
}
