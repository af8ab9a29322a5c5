package otshape

import (
	"slices"
	"strings"

	"github.com/npillmayer/fontshape/ot"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// see https://unicode.org/iso15924/iso15924-codes.html
// Scripts not listed map to their lower-case ISO 15924 code.
var script2opentype = map[string]string{
	"Zzzz": "DFLT", // unknown
	"Zyyy": "DFLT", // common
	"Zinh": "DFLT", // inherited
	//
	"Beng": "bng2", // Bengali
	"Deva": "dev2", // Devangari
	"Gujr": "gjr2", // Not gujr
	"Guru": "gur2", // Not guru
	"Hans": "hani", // Han (simplified)
	"Hant": "hani", // Han (traditional)
	"Hira": "kana", // Hiragana shares the Katakana tag
	"Knda": "knd2", // Kannada
	"Mlym": "mlm2", // Malayalam
	"Mymr": "mym2", // Not mymr
	"Orya": "ory2", // Oriya
	"Taml": "tml2", // Tamil
	"Telu": "tel2", // Telugu
	"Laoo": "lao ", // Lao
	"Nkoo": "nko ", // N'Ko
	"Vaii": "vai ", // Vai
	"Yiii": "yi  ", // Yi
}

// We do support this list of languages.
var supportedLanguages = map[language.Tag]string{
	language.Arabic:     "ARA",
	language.Chinese:    "ZHS",
	language.English:    "ENG",
	language.French:     "FRA",
	language.Greek:      "ELL",
	language.German:     "DEU",
	language.Hebrew:     "IWR",
	language.Japanese:   "JAN",
	language.Persian:    "FAR",
	language.Portuguese: "PTG",
	language.Romanian:   "ROM",
	language.Russian:    "RUS",
	language.Turkish:    "TRK",
	language.Urdu:       "URD",
}

// We will try to match user-preferred language against supported languages.
var supportedLanguagesMatcher language.Matcher

// supportedLanguageTags lists the supported languages in matcher order.
var supportedLanguageTags []language.Tag

func init() {
	// prepare the language matcher with our list of supported languages
	supportedLanguageTags = make([]language.Tag, 0, len(supportedLanguages))
	for l := range supportedLanguages {
		supportedLanguageTags = append(supportedLanguageTags, l)
	}
	slices.SortFunc(supportedLanguageTags, func(a, b language.Tag) int {
		return strings.Compare(a.String(), b.String())
	})
	supportedLanguagesMatcher = language.NewMatcher(supportedLanguageTags)
}

// ScriptTagForScript returns the appropriate OpenType script tag for a given ISO 15924
// script code. It will return the DFLT-tag for unknown or unsupported scripts.
func ScriptTagForScript(script language.Script) ot.Tag {
	s := script.String()
	if otScr, ok := script2opentype[s]; ok {
		return ot.T(otScr)
	}
	if len(s) != 4 {
		return ot.DFLT
	}
	return ot.T(strings.ToLower(s))
}

// LanguageTagForLanguage returns the appropriate OpenType language tag for a given
// BCP 47 language tag.
// If there is no supported language with the same base language, that can be matched
// with confidence of at least `conf`, the DFLT-tag will be returned.
func LanguageTagForLanguage(lang language.Tag, conf language.Confidence) ot.Tag {
	_, i, c := supportedLanguagesMatcher.Match(lang)
	if i < 0 || i >= len(supportedLanguageTags) {
		return ot.DFLT
	}
	l := supportedLanguageTags[i]
	tracer().Debugf("OpenType language matched %s (%s) : %s", display.English.Tags().Name(l),
		display.Self.Name(l), c)
	if c < conf { // if matcher's confidence level is not high enough
		return ot.DFLT
	}
	// the matcher falls back to its first language for unrelated requests
	want, _ := lang.Base()
	have, _ := l.Base()
	if want != have {
		return ot.DFLT
	}
	return ot.T(supportedLanguages[l])
}
