package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bkt/images/a/b.png", PublicURL("bkt", "images/a/b.png"))
	assert.Equal(t, "https://storage.googleapis.com/bkt/images/my%20cv.png", PublicURL("bkt", "images/my cv.png"))
}
