// Package llm provides the language model capability used for receipt
// extraction, dietary insights and coaching answers. It supports Gemini,
// OpenAI and Anthropic, with optional rate limiting and circuit breaking
// layered on top of any provider.
package llm
