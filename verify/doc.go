// Package verify implements the grounding check on generated answers.
//
// Verification is two-staged, cheapest first: a deterministic lexical
// overlap measure between the answer and its cited contexts resolves clear
// cases immediately, and only the ambiguous band in between is escalated to
// a constrained yes/no model judgment. Judge failures are inconclusive and
// count as not grounded; the pipeline's bounded retry handles the rest.
package verify
