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


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types that cross a disk
// boundary. Timestamps are stored as Unix microseconds, durations as
// nanoseconds. Vector values use varint float encoding.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// vectorMUS serializes embedding vectors as a length-prefixed float32 run.
var vectorMUS = vecMUS{}

type vecMUS struct{}

func (vecMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vecMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("%w: negative vector length %d", ErrMalformedBuffer, length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var c int
		v[i], c, err = varint.Float32.Unmarshal(bs[n:])
		n += c
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vecMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

// ChunkMUS serializes Chunks.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.ParentId, bs[n:])
	n += ord.String.Marshal(c.Collection, bs[n:])
	n += ord.String.Marshal(c.Document, bs[n:])
	n += varint.Int.Marshal(c.Page, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var cnt int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return c, n, err
	}
	if c.ParentId, cnt, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Collection, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Document, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Page, cnt, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Text, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Vector, cnt, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.ParentId) +
		ord.String.Size(c.Collection) +
		ord.String.Size(c.Document) +
		varint.Int.Size(c.Page) +
		ord.String.Size(c.Text) +
		vectorMUS.Size(c.Vector)
}

// ParentContextMUS serializes ParentContexts.
var ParentContextMUS = parentMUS{}

type parentMUS struct{}

func (parentMUS) Marshal(p ParentContext, bs []byte) (n int) {
	n = IDMUS.Marshal(p.Id, bs)
	n += ord.String.Marshal(p.Collection, bs[n:])
	n += ord.String.Marshal(p.Document, bs[n:])
	n += varint.Int.Marshal(p.Page, bs[n:])
	n += ord.String.Marshal(p.Text, bs[n:])
	return n
}

func (parentMUS) Unmarshal(bs []byte) (p ParentContext, n int, err error) {
	var cnt int
	if p.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return p, n, err
	}
	if p.Collection, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + cnt, err
	}
	n += cnt
	if p.Document, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + cnt, err
	}
	n += cnt
	if p.Page, cnt, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return p, n + cnt, err
	}
	n += cnt
	if p.Text, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + cnt, err
	}
	n += cnt
	return p, n, nil
}

func (parentMUS) Size(p ParentContext) int {
	return IDMUS.Size(p.Id) +
		ord.String.Size(p.Collection) +
		ord.String.Size(p.Document) +
		varint.Int.Size(p.Page) +
		ord.String.Size(p.Text)
}

// citationMUS serializes Citations.
var citationMUS = citMUS{}

type citMUS struct{}

func (citMUS) Marshal(c Citation, bs []byte) (n int) {
	n = ord.String.Marshal(c.Document, bs)
	n += varint.Int.Marshal(c.Page, bs[n:])
	n += varint.Float64.Marshal(c.Score, bs[n:])
	n += ord.String.Marshal(c.Preview, bs[n:])
	return n
}

func (citMUS) Unmarshal(bs []byte) (c Citation, n int, err error) {
	var cnt int
	if c.Document, n, err = ord.String.Unmarshal(bs); err != nil {
		return c, n, err
	}
	if c.Page, cnt, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Score, cnt, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	if c.Preview, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + cnt, err
	}
	n += cnt
	return c, n, nil
}

func (citMUS) Size(c Citation) int {
	return ord.String.Size(c.Document) +
		varint.Int.Size(c.Page) +
		varint.Float64.Size(c.Score) +
		ord.String.Size(c.Preview)
}

// MessageMUS serializes Messages.
var MessageMUS = messageMUS{}

type messageMUS struct{}

func (messageMUS) Marshal(m Message, bs []byte) (n int) {
	n = varint.Int.Marshal(int(m.Role), bs)
	n += ord.String.Marshal(m.Text, bs[n:])
	n += varint.Int64.Marshal(m.Timestamp.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(len(m.Citations), bs[n:])
	for _, c := range m.Citations {
		n += citationMUS.Marshal(c, bs[n:])
	}
	n += varint.Int.Marshal(int(m.Grounded), bs[n:])
	n += varint.Int64.Marshal(int64(m.Elapsed), bs[n:])
	return n
}

func (messageMUS) Unmarshal(bs []byte) (m Message, n int, err error) {
	var cnt int
	var role int
	if role, n, err = varint.Int.Unmarshal(bs); err != nil {
		return m, n, err
	}
	m.Role = Role(role)
	if m.Text, cnt, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + cnt, err
	}
	n += cnt
	var micros int64
	if micros, cnt, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + cnt, err
	}
	n += cnt
	m.Timestamp = time.UnixMicro(micros).UTC()
	var citations int
	if citations, cnt, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + cnt, err
	}
	n += cnt
	if citations < 0 {
		return m, n, fmt.Errorf("%w: negative citation count %d", ErrMalformedBuffer, citations)
	}
	if citations > 0 {
		m.Citations = make([]Citation, citations)
		for i := 0; i < citations; i++ {
			if m.Citations[i], cnt, err = citationMUS.Unmarshal(bs[n:]); err != nil {
				return m, n + cnt, err
			}
			n += cnt
		}
	}
	var grounded int
	if grounded, cnt, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + cnt, err
	}
	n += cnt
	m.Grounded = Grounding(grounded)
	var elapsed int64
	if elapsed, cnt, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + cnt, err
	}
	n += cnt
	m.Elapsed = time.Duration(elapsed)
	return m, n, nil
}

func (messageMUS) Size(m Message) (size int) {
	size = varint.Int.Size(int(m.Role)) +
		ord.String.Size(m.Text) +
		varint.Int64.Size(m.Timestamp.UnixMicro()) +
		varint.Int.Size(len(m.Citations))
	for _, c := range m.Citations {
		size += citationMUS.Size(c)
	}
	size += varint.Int.Size(int(m.Grounded))
	size += varint.Int64.Size(int64(m.Elapsed))
	return size
}
