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


package ingest

import (
	"strings"

	"github.com/evidentia/ragline/core"
)

const (
	// parentTokenBudget targets the size of a parent span: large enough to
	// hand generation coherent context.
	parentTokenBudget = 1200

	// childTokenBudget targets the size of an indexed child chunk: small
	// enough that embeddings stay precise.
	childTokenBudget = 200
)

// Page is one page of an input document.
type Page struct {
	Number int
	Text   string
}

// Split cuts a document into parent spans and their child chunks.
// Parents never cross page boundaries, so citations can always name a page.
// IDs are content-addressed: re-ingesting the same document yields the same
// IDs and overwrites in place instead of duplicating.
func Split(collection, document string, pages []Page) ([]*core.ParentContext, []*core.Chunk) {
	var parents []*core.ParentContext
	var chunks []*core.Chunk

	for _, page := range pages {
		for _, parentText := range packSegments(segments(page.Text), parentTokenBudget) {
			parent := &core.ParentContext{
				Id:         core.IDFromContent(collection + "\x00" + document + "\x00" + parentText),
				Collection: collection,
				Document:   document,
				Page:       page.Number,
				Text:       parentText,
			}
			parents = append(parents, parent)

			for _, childText := range packSegments(segments(parentText), childTokenBudget) {
				chunks = append(chunks, &core.Chunk{
					Id:         core.IDFromContent(collection + "\x00" + childText),
					ParentId:   parent.Id,
					Collection: collection,
					Document:   document,
					Page:       page.Number,
					Text:       childText,
				})
			}
		}
	}
	return parents, chunks
}

// segments splits text into paragraph, then sentence, units. These are the
// smallest pieces the packer will combine; a single oversized sentence
// still becomes its own segment rather than being cut mid-word.
func segments(text string) []string {
	var segs []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		segs = append(segs, splitSentences(para)...)
	}
	return segs
}

// packSegments greedily combines segments into spans near the token budget.
func packSegments(segs []string, budget int) []string {
	var spans []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			spans = append(spans, strings.Join(current, " "))
			current = nil
			currentTokens = 0
		}
	}

	for _, seg := range segs {
		segTokens := countTokens(seg)
		if currentTokens > 0 && currentTokens+segTokens > budget {
			flush()
		}
		current = append(current, seg)
		currentTokens += segTokens
	}
	flush()
	return spans
}

// splitSentences splits on sentence-final punctuation followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && text[i+1] == ' ' {
			sentence := strings.TrimSpace(text[start : i+1])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
