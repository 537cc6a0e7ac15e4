package completion

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyKey(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{
			name:     "ascii data url",
			identity: Identity{ToolID: "bin-hex-dec-reken", Version: "v1", DataURL: "https://example.org/data.json"},
			want:     "learning-tools:completion:v1:bin-hex-dec-reken:v1:10b08d26",
		},
		{
			name:     "empty data url",
			identity: Identity{ToolID: "a", Version: "b"},
			want:     "learning-tools:completion:v1:a:b:334da822",
		},
		{
			name:     "hashes utf-16 code units including surrogate pairs",
			identity: Identity{ToolID: "quiz", Version: "v1", DataURL: "https://x.test/é😀.json"},
			want:     "learning-tools:completion:v1:quiz:v1:f6508dd7",
		},
		{
			name:     "unique id does not change the legacy key",
			identity: Identity{ToolID: "a", Version: "b", UniqueID: "ignored"},
			want:     "learning-tools:completion:v1:a:b:334da822",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LegacyKey(tt.identity))
		})
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{
			name:     "unique id",
			identity: Identity{ToolID: "timeline", Version: "v1", UniqueID: "test1"},
			want:     "learning-tools:completion:v2:timeline:v1:test1",
		},
		{
			name:     "separators inside components are escaped",
			identity: Identity{ToolID: "a:b", Version: "v1", UniqueID: "c d"},
			want:     "learning-tools:completion:v2:a%3Ab:v1:c+d",
		},
		{
			name:     "falls back to the legacy key without a unique id",
			identity: Identity{ToolID: "a", Version: "b"},
			want:     "learning-tools:completion:v1:a:b:334da822",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StorageKey(tt.identity))
		})
	}
}

func randomComponent(r *rand.Rand) string {
	const alphabet = "ab:c-_ %é/"
	runes := []rune(alphabet)
	n := r.IntN(4)
	out := make([]rune, n)
	for i := range out {
		out[i] = runes[r.IntN(len(runes))]
	}
	return string(out)
}

func TestStorageKey_StableAndDistinct(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	seen := make(map[string]Identity)
	for i := 0; i < 5000; i++ {
		id := Identity{
			ToolID:   randomComponent(r),
			Version:  randomComponent(r),
			UniqueID: "u" + randomComponent(r),
		}
		key := StorageKey(id)
		assert.Equal(t, key, StorageKey(id), "key must be stable")

		if prev, ok := seen[key]; ok {
			assert.Equal(t, prev, id, fmt.Sprintf("identities collide on %q", key))
			continue
		}
		seen[key] = id
	}
}
