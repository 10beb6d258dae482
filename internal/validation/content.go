package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"miniblog/internal/models"
)

const (
	MaxTitleLength   = 200
	MaxCommentLength = models.MaxCommentLength
)

// ValidatePostInput checks a post title and body.
func ValidatePostInput(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// ValidateCommentText rejects blank text and anything over MaxCommentLength runes.
// The bound applies to the trimmed text, which is what gets stored.
func ValidateCommentText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return fmt.Errorf("comment text must be at most %d characters", MaxCommentLength)
	}
	return nil
}
