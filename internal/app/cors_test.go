package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"memloc.app", "*.memloc.app", "localhost:*"}

	allowed := []string{
		"https://memloc.app",
		"https://MEMLOC.APP",
		"https://www.memloc.app",
		"http://localhost:5173",
		"localhost:3000",
	}
	for _, o := range allowed {
		assert.True(t, originAllowed(patterns, o), o)
	}

	denied := []string{
		"https://evil.example",
		"https://memloc.app.evil.example",
		"https://notmemloc.app",
		"",
	}
	for _, o := range denied {
		assert.False(t, originAllowed(patterns, o), o)
	}

	assert.True(t, originAllowed([]string{"*"}, "https://anything.example"))
}
