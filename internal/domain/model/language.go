package model

import (
	"errors"
	"fmt"
)

// Language is the closed set of source languages the sandbox can run.
type Language string

const (
	LanguagePython Language = "python"
	LanguageGo     Language = "go"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

type languageSpec struct {
	fileName string
	command  string
}

var languages = map[Language]languageSpec{
	LanguagePython: {fileName: "main.py", command: "python main.py"},
	LanguageGo:     {fileName: "main.go", command: "go run main.go"},
}

func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if _, ok := languages[l]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

func Languages() []Language {
	return []Language{LanguagePython, LanguageGo}
}

func (l Language) Valid() bool {
	_, ok := languages[l]
	return ok
}

// FileName is the name the program is uploaded under.
func (l Language) FileName() string {
	return languages[l].fileName
}

// Command is the invocation template, without stdin redirection.
func (l Language) Command() string {
	return languages[l].command
}

func (l Language) String() string {
	return string(l)
}

func (l Language) MarshalText() ([]byte, error) {
	return []byte(l), nil
}

// UnmarshalText rejects unknown languages so a bad value fails request
// decoding instead of reaching the grader.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := ParseLanguage(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
