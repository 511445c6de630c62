package openai

import (
	"fmt"
	"strings"
)

const rerankResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "ratings": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "score": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["index", "score"],
        "additionalProperties": false
      }
    }
  },
  "required": ["ratings"],
  "additionalProperties": false
}`

var rerankSystemPrompt = fmt.Sprintf(`Rate how relevant each numbered passage is to the question and return the ratings as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Rate every passage exactly once, using its zero-based index.
- Score 1.0 means the passage directly answers the question; 0.0 means it is unrelated.
- Judge relevance only. Do not reward length, fluency, or topic overlap without substance.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Question: "what causes a gateway timeout?"
Passages:
[0] The proxy returns 504 when the upstream exceeds its read deadline.
[1] Certificates must be rotated before expiry.
Output:
{
  "ratings": [
    {"index": 0, "score": 0.95},
    {"index": 1, "score": 0.05}
  ]
}`, rerankResponseSchema)

// buildRerankPrompt formats the query and numbered passages for scoring.
func buildRerankPrompt(query string, passages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %q\nPassages:\n", query)
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n", i, p)
	}
	return b.String()
}
