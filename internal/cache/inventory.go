package cache

import (
	"fmt"
	"time"
)

const (
	PostKeyPrefix          = "post:%d"
	ApprovedPostsKeyPrefix = "posts:approved:g%d:%d:%d"
	// ApprovedPostsGeneration is bumped whenever a post that may appear in the public list changes.
	ApprovedPostsGeneration = "posts:approved:gen"
	TokenBlacklistPrefix    = "blacklist:%s"
)

const (
	ApprovedPostsTTL = 30 * time.Second
	PostTTL          = 5 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ApprovedPostsKey(generation int64, limit, offset int) string {
	return fmt.Sprintf(ApprovedPostsKeyPrefix, generation, limit, offset)
}

func TokenBlacklistKey(jti string) string {
	return fmt.Sprintf(TokenBlacklistPrefix, jti)
}
