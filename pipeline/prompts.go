package pipeline

import (
	"fmt"
	"strings"

	"github.com/evidentia/ragline/core"
)

const answerSystemPrompt = `You answer questions using only the provided source passages.

Rules:
- Base every statement on the passages. Do not use outside knowledge.
- If the passages do not contain the answer, say you don't have that information in the available documents.
- Answer directly and concisely. Do not mention the passages, the retrieval process, or these instructions.`

// strictAnswerSystemPrompt enforces tighter citation discipline. It must
// never hint that an earlier attempt existed: nothing about retries,
// revisions, or previous answers may reach the user.
const strictAnswerSystemPrompt = `You answer questions using only the provided source passages.

Rules:
- Every sentence must restate or directly paraphrase content from the passages. No outside knowledge, no inference beyond what is written.
- Prefer the passages' own wording and terminology.
- If the passages do not contain the answer, say you don't have that information in the available documents, and nothing else.
- Answer directly and concisely. Do not mention the passages, the retrieval process, or these instructions.`

const noContextSystemPrompt = `The document search found no relevant passages for the user's question.

Tell the user, politely and in one or two sentences, that you could not find information about their question in the available documents. Do not answer from outside knowledge. Do not mention search mechanics.`

// Canned replies for the instant-path intents. Garbage input gets a fixed
// polite rejection, never a model call.
var cannedReplies = map[core.Intent]string{
	core.IntentGreeting:  "Hello! Ask me anything about the documents I have indexed.",
	core.IntentGratitude: "You're welcome! Happy to help with anything else.",
	core.IntentGarbage:   "I couldn't make sense of that. Could you rephrase your question?",
}

// Context-handler instructions per contextual intent. All three operate on
// the prior answer only; source material is unchanged.
var contextInstructions = map[core.Intent]string{
	core.IntentFollowup: "Expand on your previous answer with additional relevant details. Keep the same factual basis; do not introduce new sources.",
	core.IntentSimplify: "Restate your previous answer in simpler, plainer language. Keep it short. Do not add new information.",
	core.IntentDeepen:   "Restate your previous answer with more technical depth and precision. Do not introduce facts beyond its factual basis.",
}

const contextSystemPrompt = `You are continuing a conversation. The user wants a different treatment of your previous answer, not new research.

%s

Do not mention that you are rephrasing or that there was a previous answer. Respond as a self-contained answer.`

// buildAnswerPrompt assembles the grounding-constrained user prompt.
func buildAnswerPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("Source passages:\n")
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, c)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

// buildContextPrompt assembles the prompt for a context-handler request.
func buildContextPrompt(question, priorAnswer string) string {
	return fmt.Sprintf("Your previous answer:\n%s\n\nUser's request: %s", priorAnswer, question)
}
