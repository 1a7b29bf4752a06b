package testutil

import (
	"context"
	"fmt"
	"image"
)

// MockProvider mocks a translation provider
type MockProvider struct {
	ProviderName string
	Translations map[string]string
	Errors       map[string]error
	AvailableErr error
	Calls        []string
}

// Translate mocks translating text
func (m *MockProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	call := fmt.Sprintf("Translate: %s (%s->%s)", text, sourceLang, targetLang)
	m.Calls = append(m.Calls, call)

	if err, ok := m.Errors[text]; ok {
		return "", err
	}

	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	// Default mock translation
	return fmt.Sprintf("mock translation of %s", text), nil
}

// Name returns the mock provider name
func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

// IsAvailable mocks the availability check
func (m *MockProvider) IsAvailable() error {
	return m.AvailableErr
}

// MockRecognizer mocks an OCR engine
type MockRecognizer struct {
	Texts []string
	Err   error
	Calls int
}

// Recognize returns the next queued text
func (m *MockRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Texts) == 0 {
		return "mock ocr text", nil
	}
	text := m.Texts[0]
	if len(m.Texts) > 1 {
		m.Texts = m.Texts[1:]
	}
	return text, nil
}

// Available mocks the engine availability check
func (m *MockRecognizer) Available() error {
	return nil
}
