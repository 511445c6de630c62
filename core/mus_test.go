package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUSRoundTrip(t *testing.T) {
	chunk := Chunk{
		Id:         IDFromContent("chunk"),
		ParentId:   IDFromContent("parent"),
		Collection: "handbook",
		Document:   "handbook.pdf",
		Page:       12,
		Text:       "Error 504: Gateway Timeout occurs when the upstream is slow.",
		Vector:     []float32{0.25, -0.5, 0.125},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	assert.Equal(t, len(buf), n)

	decoded, n, err := ChunkMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, chunk, decoded)
}

func TestMessageMUSRoundTrip(t *testing.T) {
	msg := Message{
		Role:      RoleAssistant,
		Text:      "The gateway timeout fires after 30 seconds.",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Citations: []Citation{
			{Document: "handbook.pdf", Page: 12, Score: 0.93, Preview: "Error 504: Gateway Timeout"},
		},
		Grounded: GroundingSupported,
		Elapsed:  1420 * time.Millisecond,
	}

	buf := make([]byte, MessageMUS.Size(msg))
	MessageMUS.Marshal(msg, buf)

	decoded, _, err := MessageMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestMessageMUSNoCitations(t *testing.T) {
	msg := Message{
		Role:      RoleUser,
		Text:      "hello",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, MessageMUS.Size(msg))
	MessageMUS.Marshal(msg, buf)

	decoded, _, err := MessageMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
	assert.Nil(t, decoded.Citations)
}

func TestUnmarshalTruncatedBuffer(t *testing.T) {
	chunk := Chunk{
		Id:         1,
		ParentId:   2,
		Collection: "c",
		Document:   "d",
		Text:       "some text",
	}
	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	_, _, err := ChunkMUS.Unmarshal(buf[:3])
	assert.Error(t, err)
}
