package model

import (
	"database/sql/driver"
	"time"
)

// SupportedLanguages are the language codes questions carry translations
// for. Join requests with anything else fall back to DefaultLanguage.
var SupportedLanguages = []string{"en", "ar", "fr", "de", "es", "pt"}

const DefaultLanguage = "en"

// NormalizeLanguage maps an arbitrary preference to a supported code.
func NormalizeLanguage(lang string) string {
	for _, l := range SupportedLanguages {
		if l == lang {
			return lang
		}
	}
	return DefaultLanguage
}

type TranslationMap map[string]string

func (m TranslationMap) Value() (driver.Value, error) { return jsonbValue(m) }
func (m *TranslationMap) Scan(src any) error          { return jsonbScan(m, src) }

type OptionList []string

func (o OptionList) Value() (driver.Value, error) { return jsonbValue(o) }
func (o *OptionList) Scan(src any) error          { return jsonbScan(o, src) }

// Question is a catalog row. The core only ever reads these and copies them
// into session snapshots.
type Question struct {
	ID            string         `db:"id" json:"id"`
	Text          TranslationMap `db:"text" json:"text"`
	Options       OptionList     `db:"options" json:"options"`
	CorrectOption int            `db:"correct_option" json:"correctOption"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// Snapshot freezes the question for inclusion in a session.
func (q *Question) Snapshot() QuestionSnapshot {
	text := make(map[string]string, len(q.Text))
	for lang, t := range q.Text {
		text[lang] = t
	}
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionSnapshot{
		ID:            q.ID,
		Text:          text,
		Options:       options,
		CorrectOption: q.CorrectOption,
	}
}
