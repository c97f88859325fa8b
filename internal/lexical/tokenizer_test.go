package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCamelCase_HandlesAcronymsAndMixedCase(t *testing.T) {
	assert.Equal(t, []string{"get", "User", "By", "Id"}, splitCamelCase("getUserById"))
	assert.Equal(t, []string{"HTTP", "Handler"}, splitCamelCase("HTTPHandler"))
	assert.Equal(t, []string{"parse", "HTTP", "Request"}, splitCamelCase("parseHTTPRequest"))
}

func TestTokenizeCode_SplitsSnakeAndCamelAndDropsShortTokens(t *testing.T) {
	tokens := tokenizeCode("func fetchUserData(a int) {}")
	assert.Contains(t, tokens, "fetch")
	assert.Contains(t, tokens, "user")
	assert.Contains(t, tokens, "data")
	assert.NotContains(t, tokens, "a") // single-char tokens are dropped
}

func TestFilterStopWords_RemovesConfiguredWords(t *testing.T) {
	stop := buildStopWordSet([]string{"func", "return"})
	got := filterStopWords([]string{"func", "hello", "return", "world"}, stop)
	assert.Equal(t, []string{"hello", "world"}, got)
}
