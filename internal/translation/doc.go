// Package translation translates text between languages using external
// machine translation services.
//
// Three providers are supported: the free Google Translate web endpoint,
// OpenRouter's OpenAI-compatible chat API and the Google Gemini API. A
// provider that fails is backed up by a fallback provider, and chunks that
// still cannot be translated keep their original text so no content is
// ever lost.
package translation
