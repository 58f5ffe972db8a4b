// Package interpretation defines the boundary between the reading services and
// the external AI text collaborator. It builds the structured request for a
// spread (topic, positioned cards with names and keywords, the question and a
// locale) and defines the Interpreter port that adapters such as
// platform/gemini implement. Callers record a failure on the spread instead of
// retrying.
package interpretation
