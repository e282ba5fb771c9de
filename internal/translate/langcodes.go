package translate

// Supported target locale codes at the request boundary.
var TargetLanguages = []string{
	"zh-CN", "zh-TW", "en-US", "en-GB", "ja-JP", "ko-KR",
	"fr-FR", "de-DE", "es-ES", "ru-RU", "it-IT", "pt-PT",
}

// languageNames is used in LLM prompts.
var languageNames = map[string]string{
	"zh-CN": "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
	"en-US": "American English",
	"en-GB": "British English",
	"ja-JP": "Japanese",
	"ko-KR": "Korean",
	"fr-FR": "French",
	"de-DE": "German",
	"es-ES": "Spanish",
	"ru-RU": "Russian",
	"it-IT": "Italian",
	"pt-PT": "Portuguese",
}

var baiduCodes = map[string]string{
	"zh-CN": "zh",
	"zh-TW": "cht",
	"en-US": "en",
	"en-GB": "en",
	"ja-JP": "jp",
	"ko-KR": "kor",
	"fr-FR": "fra",
	"de-DE": "de",
	"es-ES": "spa",
	"ru-RU": "ru",
	"it-IT": "it",
	"pt-PT": "pt",
}

var googleCodes = map[string]string{
	"zh-CN": "zh-CN",
	"zh-TW": "zh-TW",
	"en-US": "en",
	"en-GB": "en-GB",
	"ja-JP": "ja",
	"ko-KR": "ko",
	"fr-FR": "fr",
	"de-DE": "de",
	"es-ES": "es",
	"ru-RU": "ru",
	"it-IT": "it",
	"pt-PT": "pt",
}

var azureCodes = map[string]string{
	"zh-CN": "zh-Hans",
	"zh-TW": "zh-Hant",
	"en-US": "en",
	"en-GB": "en",
	"ja-JP": "ja",
	"ko-KR": "ko",
	"fr-FR": "fr",
	"de-DE": "de",
	"es-ES": "es",
	"ru-RU": "ru",
	"it-IT": "it",
	"pt-PT": "pt",
}

var deeplCodes = map[string]string{
	"zh-CN": "ZH",
	"zh-TW": "ZH",
	"en-US": "EN-US",
	"en-GB": "EN-GB",
	"ja-JP": "JA",
	"ko-KR": "KO",
	"fr-FR": "FR",
	"de-DE": "DE",
	"es-ES": "ES",
	"ru-RU": "RU",
	"it-IT": "IT",
	"pt-PT": "PT-PT",
}

// IsSupportedLanguage reports whether code is a known target locale.
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

func languageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}

// codeFor maps a target locale into a provider's code space; unknown codes
// fall back to the provider's default (English).
func codeFor(table map[string]string, code, def string) string {
	if c, ok := table[code]; ok {
		return c
	}
	return def
}
