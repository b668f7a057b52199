package presentation

import "github.com/talenthium/patchtree/internal/patch"

// LanguageDTO is one row of `patchtree lang` output.
type LanguageDTO struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
}

// SplitDTO is the JSON output of `patchtree split`.
type SplitDTO struct {
	Filename string `json:"filename,omitempty"`
	Language string `json:"language"`
	Original string `json:"original"`
	Modified string `json:"modified"`
}

// FromFilenames detects the language of each filename.
func FromFilenames(filenames []string) []LanguageDTO {
	dtos := make([]LanguageDTO, len(filenames))
	for i, name := range filenames {
		dtos[i] = LanguageDTO{Filename: name, Language: patch.LanguageFor(name)}
	}
	return dtos
}

// FromPatch splits a patch into its two buffers.
func FromPatch(filename, patchText string) SplitDTO {
	original, modified := patch.SplitPatch(patchText)
	return SplitDTO{
		Filename: filename,
		Language: patch.LanguageFor(filename),
		Original: original,
		Modified: modified,
	}
}
