package language

import "strings"

type entry struct {
	code    string   // ISO 639-1
	aliases []string // ISO 639-2 codes and lowercase names
	display string
}

// Languages whisper handles well enough for meeting audio.
var languages = []entry{
	{"en", []string{"eng", "english"}, "English"},
	{"es", []string{"spa", "spanish", "español"}, "Spanish"},
	{"fr", []string{"fra", "fre", "french", "français"}, "French"},
	{"de", []string{"deu", "ger", "german", "deutsch"}, "German"},
	{"it", []string{"ita", "italian"}, "Italian"},
	{"pt", []string{"por", "portuguese"}, "Portuguese"},
	{"nl", []string{"nld", "dut", "dutch"}, "Dutch"},
	{"pl", []string{"pol", "polish"}, "Polish"},
	{"sv", []string{"swe", "swedish"}, "Swedish"},
	{"da", []string{"dan", "danish"}, "Danish"},
	{"no", []string{"nor", "nob", "norwegian"}, "Norwegian"},
	{"fi", []string{"fin", "finnish"}, "Finnish"},
	{"ru", []string{"rus", "russian"}, "Russian"},
	{"uk", []string{"ukr", "ukrainian"}, "Ukrainian"},
	{"ja", []string{"jpn", "japanese"}, "Japanese"},
	{"ko", []string{"kor", "korean"}, "Korean"},
	{"zh", []string{"zho", "chi", "chinese", "mandarin"}, "Chinese"},
	{"hi", []string{"hin", "hindi"}, "Hindi"},
	{"ar", []string{"ara", "arabic"}, "Arabic"},
	{"tr", []string{"tur", "turkish"}, "Turkish"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code] = e
		for _, alias := range e.aliases {
			m[alias] = e
		}
	}
	return m
}()

// Normalize returns the ISO 639-1 code for a code or language name. Unknown
// two-letter input passes through lowercased; anything else unrecognized
// yields "" and ok=false. Empty input means auto-detect and is ok.
func Normalize(value string) (code string, ok bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", true
	}
	if e, found := index[value]; found {
		return e.code, true
	}
	if len(value) == 2 {
		return value, true
	}
	return "", false
}

// DisplayName returns a human-readable name for a detected language code.
func DisplayName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "Unknown"
	}
	if e, ok := index[code]; ok {
		return e.display
	}
	return strings.ToUpper(code)
}
