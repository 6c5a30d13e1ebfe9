package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "castaway.response_meta"

// Envelope meta keys set by the middleware and the leaderboard handlers.
const (
	MetaProcessingTime  = "processing_time_ms"
	MetaCacheHit        = "cache_hit"
	MetaGeneratedAt     = "generated_at"
	MetaBoardAgeSeconds = "board_age_seconds"
)

// ResponseMeta opens the envelope meta map for the request and stamps the
// handler time once the chain returns.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta[MetaProcessingTime]; !exists {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetBoardFreshness tells clients whether a standings board came from the
// cache and how long ago it was computed. A zero generatedAt only records the
// cache outcome.
func SetBoardFreshness(c *gin.Context, hit bool, generatedAt time.Time) {
	meta := ensureMeta(c)
	meta[MetaCacheHit] = hit
	if generatedAt.IsZero() {
		return
	}
	meta[MetaGeneratedAt] = generatedAt.UTC().Format(time.RFC3339)
	age := int64(time.Since(generatedAt) / time.Second)
	if age < 0 {
		age = 0
	}
	meta[MetaBoardAgeSeconds] = age
}

// Meta returns the envelope meta stored on the context, or nil.
func Meta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := Meta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
