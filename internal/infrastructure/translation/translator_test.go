package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateKnownLabel(t *testing.T) {
	t.Parallel()

	tr := New("id")
	localized, err := tr.Translate("cat")
	require.NoError(t, err)
	assert.Equal(t, "kucing", localized)
}

func TestTranslateUnknownLabelPassesThrough(t *testing.T) {
	t.Parallel()

	tr := New("id")
	localized, err := tr.Translate("submarine periscope")
	require.NoError(t, err)
	assert.Equal(t, "submarine periscope", localized)
}

func TestTranslateUnsupportedLanguagePassesThrough(t *testing.T) {
	t.Parallel()

	tr := New("en")
	localized, err := tr.Translate("cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", localized)
}
