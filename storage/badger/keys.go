package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/evidentia/ragline/core"
)

// Key prefixes for different data types
const (
	chunkPrefix        = "chkrec"
	parentPrefix       = "parrec"
	chunkColPrefix     = "chkcol"
	conversationPrefix = "convrec"
	messageIDSeq       = "convrecseq"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeParentKey generates a key for a parent context by ID.
func makeParentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", parentPrefix, id))
}

// appendLenPrefixed writes a caller-supplied string as a BigEndian length
// followed by its bytes. Raw string segments would make one name's scan
// prefix a byte-prefix of another's (session "a" vs "a:b"); the length
// field keys each name to its own disjoint range.
func appendLenPrefixed(buf []byte, s string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	buf = append(buf, n[:]...)
	return append(buf, s...)
}

// makeChunkCollectionKey generates a composite key for the collection index.
// Format: prefix ":" len(collection) collection chunkID
func makeChunkCollectionKey(collection string, id core.ID) []byte {
	buf := makePartialChunkCollectionKey(collection)
	// Write in BigEndian order so lexicographic sort works correctly
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], uint64(id))
	return append(buf, idBytes[:]...)
}

// makePartialChunkCollectionKey generates a prefix for collection scans.
func makePartialChunkCollectionKey(collection string) []byte {
	buf := make([]byte, 0, len(chunkColPrefix)+1+4+len(collection))
	buf = append(buf, chunkColPrefix...)
	buf = append(buf, ':')
	return appendLenPrefixed(buf, collection)
}

// makeMessageKey generates a composite key for a conversation message.
// Format: prefix ":" len(session) session seq
// The BigEndian sequence keeps messages of a session in append order under
// lexicographic iteration.
func makeMessageKey(session string, seq uint64) []byte {
	buf := makePartialMessageKey(session)
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	return append(buf, seqBytes[:]...)
}

// makePartialMessageKey generates a prefix for session conversation scans.
func makePartialMessageKey(session string) []byte {
	buf := make([]byte, 0, len(conversationPrefix)+1+4+len(session)+8)
	buf = append(buf, conversationPrefix...)
	buf = append(buf, ':')
	return appendLenPrefixed(buf, session)
}
