package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommentText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCommentText(strings.Repeat("a", 300)))
	assert.Error(t, ValidateCommentText(strings.Repeat("a", 301)))
	assert.Error(t, ValidateCommentText(""))
	assert.Error(t, ValidateCommentText(" \t\n"))
	assert.NoError(t, ValidateCommentText(strings.Repeat("a", 300)+"\n"))
	assert.Error(t, ValidateCommentText("  "+strings.Repeat("a", 301)))
	// runes, not bytes
	assert.NoError(t, ValidateCommentText(strings.Repeat("é", 300)))
}

func TestValidatePostInput(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostInput("Hello", "World"))
	assert.Error(t, ValidatePostInput("", "World"))
	assert.Error(t, ValidatePostInput("Hello", "   "))
	assert.Error(t, ValidatePostInput(strings.Repeat("t", MaxTitleLength+1), "body"))
}
