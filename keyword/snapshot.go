// Copyright 2025 Evidentia Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package keyword

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/evidentia/ragline/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Snapshot file layout, MUS-encoded after a fixed 4-byte magic:
//
//	magic "RLKX" | version | collection | doc list | term list
//
// Documents are stored in insertion order so tie-break ordinals survive the
// round trip. Terms are stored sorted so identical indexes produce
// byte-identical snapshots.
const (
	snapshotMagic   = "RLKX"
	snapshotVersion = 1
)

// SnapshotName returns the snapshot file name for a collection.
func SnapshotName(collection string) string {
	return collection + ".rlkx"
}

// MarshalSnapshot serializes an index into its snapshot form.
func MarshalSnapshot(idx *Index) []byte {
	size := len(snapshotMagic) + varint.Int.Size(snapshotVersion) +
		ord.String.Size(idx.collection) + varint.Int.Size(idx.docCount)

	docs := docsInOrder(idx)
	for _, id := range docs {
		size += core.IDMUS.Size(id) + varint.Int.Size(idx.docLens[id])
	}

	terms := make([]string, 0, len(idx.terms))
	for t := range idx.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	size += varint.Int.Size(len(terms))
	for _, t := range terms {
		size += ord.String.Size(t) + varint.Int.Size(len(idx.terms[t]))
		for _, p := range idx.terms[t] {
			size += core.IDMUS.Size(p.ChunkId) + varint.Int.Size(p.Count)
		}
	}

	bs := make([]byte, size)
	n := copy(bs, snapshotMagic)
	n += varint.Int.Marshal(snapshotVersion, bs[n:])
	n += ord.String.Marshal(idx.collection, bs[n:])
	n += varint.Int.Marshal(idx.docCount, bs[n:])
	for _, id := range docs {
		n += core.IDMUS.Marshal(id, bs[n:])
		n += varint.Int.Marshal(idx.docLens[id], bs[n:])
	}
	n += varint.Int.Marshal(len(terms), bs[n:])
	for _, t := range terms {
		n += ord.String.Marshal(t, bs[n:])
		n += varint.Int.Marshal(len(idx.terms[t]), bs[n:])
		for _, p := range idx.terms[t] {
			n += core.IDMUS.Marshal(p.ChunkId, bs[n:])
			n += varint.Int.Marshal(p.Count, bs[n:])
		}
	}

	return bs
}

// UnmarshalSnapshot deserializes a snapshot buffer back into an index.
// Any structural problem yields ErrSnapshotCorrupt.
func UnmarshalSnapshot(bs []byte) (*Index, error) {
	if len(bs) < len(snapshotMagic) || string(bs[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrSnapshotCorrupt)
	}
	n := len(snapshotMagic)

	version, cnt, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	n += cnt
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, version)
	}

	collection, cnt, err := ord.String.Unmarshal(bs[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	n += cnt

	idx := NewIndex(collection)

	docCount, cnt, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	n += cnt
	if docCount < 0 {
		return nil, fmt.Errorf("%w: negative document count", ErrSnapshotCorrupt)
	}

	for i := 0; i < docCount; i++ {
		id, cnt, err := core.IDMUS.Unmarshal(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
		}
		n += cnt
		docLen, cnt, err := varint.Int.Unmarshal(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
		}
		n += cnt
		if docLen < 0 {
			return nil, fmt.Errorf("%w: negative document length", ErrSnapshotCorrupt)
		}
		idx.docOrder[id] = i
		idx.docLens[id] = docLen
	}
	idx.docCount = docCount

	termCount, cnt, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	n += cnt
	if termCount < 0 {
		return nil, fmt.Errorf("%w: negative term count", ErrSnapshotCorrupt)
	}

	for i := 0; i < termCount; i++ {
		term, cnt, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
		}
		n += cnt
		postingCount, cnt, err := varint.Int.Unmarshal(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
		}
		n += cnt
		if postingCount < 0 {
			return nil, fmt.Errorf("%w: negative posting count", ErrSnapshotCorrupt)
		}

		postings := make([]posting, postingCount)
		for j := 0; j < postingCount; j++ {
			id, cnt, err := core.IDMUS.Unmarshal(bs[n:])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
			}
			n += cnt
			count, cnt, err := varint.Int.Unmarshal(bs[n:])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
			}
			n += cnt
			if _, known := idx.docLens[id]; !known {
				return nil, fmt.Errorf("%w: posting for unknown document", ErrSnapshotCorrupt)
			}
			postings[j] = posting{ChunkId: id, Count: count}
		}
		idx.terms[term] = postings
	}

	return idx, nil
}

// SaveSnapshot writes an index snapshot to dir atomically (temp file +
// rename), so a crashed save can never leave a truncated snapshot behind.
func SaveSnapshot(dir string, idx *Index) error {
	if err := validateCollection(idx.collection); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, SnapshotName(idx.collection))
	tmp, err := os.CreateTemp(dir, SnapshotName(idx.collection)+".tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(MarshalSnapshot(idx)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// LoadSnapshot reads a collection snapshot from dir.
// A missing file returns (nil, nil): the caller decides between an empty
// index and a rebuild. A corrupt file returns ErrSnapshotCorrupt.
func LoadSnapshot(dir, collection string) (*Index, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	bs, err := os.ReadFile(filepath.Join(dir, SnapshotName(collection)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return UnmarshalSnapshot(bs)
}

// docsInOrder returns document IDs sorted by insertion ordinal.
func docsInOrder(idx *Index) []core.ID {
	docs := make([]core.ID, idx.docCount)
	for id, ord := range idx.docOrder {
		docs[ord] = id
	}
	return docs
}

// validateCollection rejects collection names that cannot name a snapshot file.
func validateCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCollection)
	}
	if filepath.Base(collection) != collection {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}
