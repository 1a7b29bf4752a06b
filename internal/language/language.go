// Package language maps translation language codes to display names and
// Tesseract traineddata names.
package language

import (
	"sort"
	"strings"
)

// Auto is the pseudo source language for provider-side detection.
const Auto = "auto"

type Language struct {
	// Code is the canonical translation code (Google Translate style).
	Code string
	// Name is the English display name.
	Name string
	// TesseractLang is the traineddata name used for OCR.
	TesseractLang string
	// CJK marks scripts that need a wide font for PDF output.
	CJK bool
}

// Keyed by lower-cased code. Codes keep Google Translate spelling.
var registry = map[string]Language{
	"en":    {Code: "en", Name: "English", TesseractLang: "eng"},
	"zh-cn": {Code: "zh-CN", Name: "Chinese (Simplified)", TesseractLang: "chi_sim", CJK: true},
	"zh-tw": {Code: "zh-TW", Name: "Chinese (Traditional)", TesseractLang: "chi_tra", CJK: true},
	"ja":    {Code: "ja", Name: "Japanese", TesseractLang: "jpn", CJK: true},
	"ko":    {Code: "ko", Name: "Korean", TesseractLang: "kor", CJK: true},
	"fr":    {Code: "fr", Name: "French", TesseractLang: "fra"},
	"de":    {Code: "de", Name: "German", TesseractLang: "deu"},
	"es":    {Code: "es", Name: "Spanish", TesseractLang: "spa"},
	"it":    {Code: "it", Name: "Italian", TesseractLang: "ita"},
	"pt":    {Code: "pt", Name: "Portuguese", TesseractLang: "por"},
	"ru":    {Code: "ru", Name: "Russian", TesseractLang: "rus"},
	"uk":    {Code: "uk", Name: "Ukrainian", TesseractLang: "ukr"},
	"bg":    {Code: "bg", Name: "Bulgarian", TesseractLang: "bul"},
	"pl":    {Code: "pl", Name: "Polish", TesseractLang: "pol"},
	"nl":    {Code: "nl", Name: "Dutch", TesseractLang: "nld"},
	"sv":    {Code: "sv", Name: "Swedish", TesseractLang: "swe"},
	"el":    {Code: "el", Name: "Greek", TesseractLang: "ell"},
	"tr":    {Code: "tr", Name: "Turkish", TesseractLang: "tur"},
	"ar":    {Code: "ar", Name: "Arabic", TesseractLang: "ara"},
	"he":    {Code: "he", Name: "Hebrew", TesseractLang: "heb"},
	"hi":    {Code: "hi", Name: "Hindi", TesseractLang: "hin"},
	"th":    {Code: "th", Name: "Thai", TesseractLang: "tha"},
	"vi":    {Code: "vi", Name: "Vietnamese", TesseractLang: "vie"},
	"id":    {Code: "id", Name: "Indonesian", TesseractLang: "ind"},
}

// Get looks up a language by code, case-insensitively.
func Get(code string) (Language, bool) {
	lang, ok := registry[strings.ToLower(strings.TrimSpace(code))]
	return lang, ok
}

// IsAuto reports whether code requests source-language detection.
func IsAuto(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == "" || code == Auto
}

// IsValidTarget reports whether code names a known target language.
// Auto is not a valid target.
func IsValidTarget(code string) bool {
	_, ok := Get(code)
	return ok
}

// IsValidSource reports whether code is auto or a known language.
func IsValidSource(code string) bool {
	return IsAuto(code) || IsValidTarget(code)
}

// TesseractFor returns the traineddata name for a code, falling back to
// eng for unknown codes.
func TesseractFor(code string) string {
	if lang, ok := Get(code); ok {
		return lang.TesseractLang
	}
	return "eng" // fallback
}

// NeedsCJKFont reports whether rendering text in this language requires a
// user-supplied wide font.
func NeedsCJKFont(code string) bool {
	lang, ok := Get(code)
	return ok && lang.CJK
}

// Supported returns all registered languages sorted by display name.
func Supported() []Language {
	langs := make([]Language, 0, len(registry))
	for _, lang := range registry {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Name != langs[j].Name {
			return langs[i].Name < langs[j].Name
		}
		return langs[i].Code < langs[j].Code
	})
	return langs
}
