package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/redis/go-redis/v9"
)

const explanationPrefix = "explanation:v1:"

// ExplanationCache stores generated explanations keyed by question text.
type ExplanationCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewExplanationCache(client redis.Cmdable, ttl time.Duration) *ExplanationCache {
	return &ExplanationCache{client: client, ttl: ttl}
}

// explanationKey hashes the question after folding case and whitespace so
// trivially different phrasings share an entry.
func explanationKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return explanationPrefix + hex.EncodeToString(sum[:])
}

func (c *ExplanationCache) GetExplanation(ctx context.Context, question string) (*model.Explanation, bool, error) {
	raw, err := c.client.Get(ctx, explanationKey(question)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get explanation: %w", err)
	}

	var exp model.Explanation
	if err := json.Unmarshal(raw, &exp); err != nil {
		return nil, false, fmt.Errorf("decode explanation: %w", err)
	}
	return &exp, true, nil
}

func (c *ExplanationCache) SetExplanation(ctx context.Context, question string, exp *model.Explanation) error {
	raw, err := json.Marshal(exp)
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	if err := c.client.Set(ctx, explanationKey(question), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set explanation: %w", err)
	}
	return nil
}
