package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinShards(t *testing.T) {
	shardOne := []byte(`{"responses":[{"fullTextAnnotation":{"text":"Page one text"}}]}`)
	shardTwo := []byte(`{"responses":[{"fullTextAnnotation":{"text":"Page two text"}}]}`)
	emptyShard := []byte(``)
	noTextShard := []byte(`{"responses":[{}]}`)

	t.Run("Should join page texts in shard order", func(t *testing.T) {
		text, err := joinShards([][]byte{shardOne, shardTwo})
		assert.NoError(t, err)
		assert.Equal(t, "Page one text\nPage two text", text)
	})

	t.Run("Should skip empty shards and pages without text", func(t *testing.T) {
		text, err := joinShards([][]byte{emptyShard, shardOne, noTextShard, shardTwo})
		assert.NoError(t, err)
		assert.Equal(t, "Page one text\nPage two text", text)
	})

	t.Run("Should tolerate unknown response fields", func(t *testing.T) {
		shard := []byte(`{"responses":[{"fullTextAnnotation":{"text":"Resume","pages":[]},"context":{"pageNumber":1}}],"extra":"ignored"}`)
		text, err := joinShards([][]byte{shard})
		assert.NoError(t, err)
		assert.Equal(t, "Resume", text)
	})

	t.Run("Should fail on malformed shard JSON", func(t *testing.T) {
		_, err := joinShards([][]byte{[]byte(`{not json`)})
		assert.Error(t, err)
	})

	t.Run("Should return empty text when no shards were written", func(t *testing.T) {
		text, err := joinShards(nil)
		assert.NoError(t, err)
		assert.Equal(t, "", text)
	})
}
