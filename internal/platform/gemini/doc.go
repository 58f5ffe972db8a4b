// Package gemini implements interpretation.Interpreter with Google's Gemini
// API through the google.golang.org/genai client.
//
// The adapter renders a prompt from a text template (embedded by default,
// replaceable through configuration), sends a single GenerateContent request
// bounded by the configured timeout, and translates empty, blocked and failed
// responses into the interpretation package's errors. It does not retry.
package gemini
