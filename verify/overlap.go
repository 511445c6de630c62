package verify

import "github.com/evidentia/ragline/keyword"

// lexicalOverlap measures how much of the answer's language is present in
// the cited contexts, as the fraction of answer terms (unigrams and
// bigrams) found in any context. Bigram matches weigh double: reproducing
// phrasing is stronger evidence of grounding than sharing vocabulary.
// Returns a value in [0,1]; an answer with no usable terms scores 0.
func lexicalOverlap(answer string, contexts []string) float64 {
	answerUni := keyword.Tokenize(answer)
	if len(answerUni) == 0 {
		return 0
	}
	answerBi := bigrams(answerUni)

	contextUni := make(map[string]bool)
	contextBi := make(map[string]bool)
	for _, c := range contexts {
		terms := keyword.Tokenize(c)
		for _, t := range terms {
			contextUni[t] = true
		}
		for _, b := range bigrams(terms) {
			contextBi[b] = true
		}
	}

	var matched, total float64
	for _, t := range answerUni {
		total++
		if contextUni[t] {
			matched++
		}
	}
	for _, b := range answerBi {
		total += 2
		if contextBi[b] {
			matched += 2
		}
	}

	if total == 0 {
		return 0
	}
	return matched / total
}

// bigrams returns adjacent term pairs joined by a space.
func bigrams(terms []string) []string {
	if len(terms) < 2 {
		return nil
	}
	pairs := make([]string, len(terms)-1)
	for i := 0; i+1 < len(terms); i++ {
		pairs[i] = terms[i] + " " + terms[i+1]
	}
	return pairs
}
