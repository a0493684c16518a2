package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareQuerySplitsOnWhitespaceAndHyphens(t *testing.T) {
	got := PrepareQuery("file-mutation handling")
	assert.Equal(t, `"file" "mutation" "handling"`, got)
}

func TestPrepareQueryPassesThroughFTSOperators(t *testing.T) {
	assert.Equal(t, "heading:foo", PrepareQuery("heading:foo"))
	assert.Equal(t, "foo AND bar", PrepareQuery("foo AND bar"))
	assert.Equal(t, `"exact phrase"`, PrepareQuery(`"exact phrase"`))
}

func TestFallbackQueryQuotesWholeString(t *testing.T) {
	assert.Equal(t, `"a weird : query"`, FallbackQuery("a weird : query"))
}
