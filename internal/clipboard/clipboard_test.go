package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_FallbackRoundTripWhenSystemClipboardUnavailable(t *testing.T) {
	// CI/headless environments have no system clipboard utility, so
	// atotto/clipboard.WriteAll/ReadAll will error here; Copy must still
	// succeed and Paste must return what was copied via the fallback.
	b := &Buffer{}
	assert.NoError(t, b.Copy("hello"))
	text, err := b.Paste()
	assert.NoError(t, err)
	assert.Equal(t, "hello", text)
}
