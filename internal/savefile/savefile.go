// Package savefile exports games to standalone JSON files and imports them
// back.
package savefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tatianab/nexus/internal/models"
)

// ErrInvalidSave is returned for files that are not saved games.
var ErrInvalidSave = errors.New("save file is invalid or damaged")

var unsafeChars = regexp.MustCompile(`[^a-z0-9_\-]`)

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// transliterate lower-cases text, spells Cyrillic letters in Latin and
// strips diacritics from everything else.
func transliterate(text string) string {
	lower := cases.Lower(language.Und).String(text)

	var b strings.Builder
	for _, r := range lower {
		if latin, ok := cyrillic[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), b.String())
	if err != nil {
		return b.String()
	}
	return stripped
}

// FileName returns the export file name for a character.
func FileName(characterName string) string {
	name := unsafeChars.ReplaceAllString(transliterate(characterName), "_")
	if name == "" {
		name = "character"
	}
	return fmt.Sprintf("nexus-save-%s.json", name)
}

// Export renders state as indented JSON along with its file name.
func Export(state models.GameState) (string, []byte, error) {
	if state.PlayerInfo == nil {
		return "", nil, fmt.Errorf("cannot export game: player info is missing")
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode save: %w", err)
	}
	return FileName(state.PlayerInfo.Name), data, nil
}

// WriteFile exports state into dir and returns the written path.
func WriteFile(dir string, state models.GameState) (string, error) {
	name, data, err := Export(state)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write save: %w", err)
	}
	return path, nil
}

// Import parses user-supplied JSON. It must at least carry player info,
// messages and character stats.
func Import(data []byte) (*models.GameState, error) {
	state, err := models.DecodeGameState(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	return state, nil
}

// ReadFile imports the save file at path.
func ReadFile(path string) (*models.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return Import(data)
}
