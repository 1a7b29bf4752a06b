// Package config loads layered settings: defaults, then an optional JSON
// config file, then environment variables. Environment always wins.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"codeberg.org/snonux/pdfbabel/internal/logger"
)

const keyringService = "pdfbabel"

// Environment variable name -> viper key. The names match what the tool
// documents, unprefixed.
var envBindings = map[string]string{
	"OPENROUTER_API_KEY":  "openrouter.api_key",
	"OPENROUTER_MODEL":    "openrouter.model",
	"GEMINI_API_KEY":      "gemini.api_key",
	"GEMINI_MODEL":        "gemini.model",
	"PDF_DPI":             "pdf.dpi",
	"PDF_MAX_PAGES":       "pdf.max_pages",
	"PDF_FONT_FILE":       "pdf.font_file",
	"OUTPUT_DIR":          "output.directory",
	"DEFAULT_SOURCE_LANG": "translate.source",
	"DEFAULT_TARGET_LANG": "translate.target",
	"OCR_LANGUAGES":       "ocr.languages",
	"OCR_PSM":             "ocr.psm",
	"TESSDATA_PREFIX":     "ocr.tessdata",
	"WEB_HOST":            "web.host",
	"WEB_PORT":            "web.port",
	"WEB_DEBUG":           "web.debug",
	"TRANSLATION_CACHE":   "cache.path",
}

// Init initializes viper configuration
func Init(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory and cwd with name ".pdfbabel.json"
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(".pdfbabel")
	}

	setDefaults()

	for env, key := range envBindings {
		viper.BindEnv(key, env)
	}

	if err := viper.ReadInConfig(); err == nil {
		logger.Info("using config file", "path", viper.ConfigFileUsed())
	}

	acceptFlatKeys()
}

func setDefaults() {
	viper.SetDefault("pdf.dpi", 300)
	viper.SetDefault("pdf.max_pages", 0)
	viper.SetDefault("pdf.font_file", "")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("translate.source", "auto")
	viper.SetDefault("translate.target", "zh-CN")
	viper.SetDefault("translate.provider", "google")
	viper.SetDefault("openrouter.model", "google/gemini-2.0-flash-001")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ocr.languages", "eng+chi_sim+chi_tra+jpn+kor")
	viper.SetDefault("ocr.psm", 0)
	viper.SetDefault("web.host", "127.0.0.1")
	viper.SetDefault("web.port", 5000)
	viper.SetDefault("web.debug", false)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.path", "")
}

// acceptFlatKeys lets the config file use the documented environment names
// as flat top-level keys, e.g. {"OPENROUTER_API_KEY": "..."}. The values
// are merged at config-file precedence, so environment variables still win.
func acceptFlatKeys() {
	for env, key := range envBindings {
		flat := strings.ToLower(env)
		if !viper.InConfig(flat) {
			continue
		}
		viper.MergeConfigMap(nestedMap(key, viper.Get(flat)))
	}
}

func nestedMap(dottedKey string, value any) map[string]any {
	parts := strings.Split(dottedKey, ".")
	m := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		m = map[string]any{parts[i]: m}
	}
	return m
}

func DPI() int { return viper.GetInt("pdf.dpi") }

func MaxPages() int { return viper.GetInt("pdf.max_pages") }

func FontFile() string { return viper.GetString("pdf.font_file") }

func OutputDir() string { return viper.GetString("output.directory") }

func SourceLang() string { return viper.GetString("translate.source") }

func TargetLang() string { return viper.GetString("translate.target") }

func Provider() string { return viper.GetString("translate.provider") }

func OpenRouterModel() string { return viper.GetString("openrouter.model") }

func GeminiModel() string { return viper.GetString("gemini.model") }

func OCRLanguages() string { return viper.GetString("ocr.languages") }

// PageSegMode returns the Tesseract page segmentation mode, 0 for the
// engine default.
func PageSegMode() int { return viper.GetInt("ocr.psm") }

func TessdataPrefix() string { return viper.GetString("ocr.tessdata") }

func WebHost() string { return viper.GetString("web.host") }

func WebPort() int { return viper.GetInt("web.port") }

func WebDebug() bool { return viper.GetBool("web.debug") }

func CacheEnabled() bool { return viper.GetBool("cache.enabled") }

// CachePath returns the translation cache location, defaulting to the user
// cache directory.
func CachePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		return p
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".pdfbabel-cache.db")
	}
	return filepath.Join(dir, "pdfbabel", "translations.db")
}

// OpenRouterKey retrieves the OpenRouter API key from environment, config
// or the OS keyring.
func OpenRouterKey() string {
	// First check environment variable
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return key
	}
	if key := viper.GetString("openrouter.api_key"); key != "" {
		return key
	}
	if key, err := keyring.Get(keyringService, "openrouter_api_key"); err == nil {
		return key
	}
	return ""
}

// GeminiKey retrieves the Gemini API key from environment, config or the
// OS keyring.
func GeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	if key := viper.GetString("gemini.api_key"); key != "" {
		return key
	}
	if key, err := keyring.Get(keyringService, "gemini_api_key"); err == nil {
		return key
	}
	return ""
}

// StoreKey saves an API key in the OS keyring.
func StoreKey(provider, key string) error {
	return keyring.Set(keyringService, provider+"_api_key", key)
}
