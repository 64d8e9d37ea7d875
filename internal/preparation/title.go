package preparation

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const untitled = "Untitled"

// DeriveTitle turns a .blend path into a display title, so
// "intro_shot-v2.blend" becomes "Intro Shot V2".
func DeriveTitle(sourcePath string) string {
	name := filepath.Base(sourcePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if sourcePath == "" || len(words) == 0 {
		return untitled
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
