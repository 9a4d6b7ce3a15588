package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces", "My cool movie.mov", "My_cool_movie.mov"},
		{"traversal", "../../../etc/passwd", "etc_passwd"},
		{"windows-traversal", "..\\..\\boot.ini", "boot.ini"},
		{"unicode", "i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"accents", "résumé.doc", "resume.doc"},
		{"hidden", ".metadata.json", "metadata.json"},
		{"only-dots", "..", ""},
		{"shell", "a;rm -rf $HOME.sh", "arm_-rf_HOME.sh"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, SecureFilename(c.input))
		})
	}
}

func TestCleanName(t *testing.T) {
	name, err := CleanName("hello world.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello_world.txt", name)

	_, err = CleanName("../..")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestExtensionAndStem(t *testing.T) {
	assert.Equal(t, "gz", Extension("archive.tar.gz"))
	assert.Equal(t, "png", Extension("IMAGE.PNG"))
	assert.Equal(t, "", Extension("Makefile"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "Makefile", Stem("Makefile"))
}
