package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatcliffObershelp_IdenticalStrings(t *testing.T) {
	assert.Equal(t, 1.0, RatcliffObershelp("identical", "identical"))
}

func TestRatcliffObershelp_EmptyStrings(t *testing.T) {
	assert.Equal(t, 1.0, RatcliffObershelp("", ""))
	assert.Equal(t, 0.0, RatcliffObershelp("x", ""))
}

// S3's two messages, directly: "SyntaxError: invalid syntax" should score
// high enough against a message that contains it as a substring.
func TestRatcliffObershelp_SimilarMessagesScoreAboveThreshold(t *testing.T) {
	a := "SyntaxError: invalid syntax"
	b := "SyntaxError: invalid syntax at line 10"

	got := RatcliffObershelp(a, b)
	assert.Greater(t, got, 0.70)
}

func TestRatcliffObershelp_IsSymmetric(t *testing.T) {
	a := "connection refused by remote host"
	b := "connection reset while talking to host"
	assert.InDelta(t, RatcliffObershelp(a, b), RatcliffObershelp(b, a), 1e-9)
}
