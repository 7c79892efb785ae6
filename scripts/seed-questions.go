// Seeds a starter question catalog. Run with:
//
//	DATABASE_URL=... go run scripts/seed-questions.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type seedQuestion struct {
	Text          map[string]string
	Options       []string
	CorrectOption int
}

var questions = []seedQuestion{
	{
		Text: map[string]string{
			"en": "What is the capital of France?",
			"fr": "Quelle est la capitale de la France ?",
			"es": "¿Cuál es la capital de Francia?",
			"de": "Was ist die Hauptstadt von Frankreich?",
		},
		Options:       []string{"Lyon", "Paris", "Marseille", "Nice"},
		CorrectOption: 1,
	},
	{
		Text: map[string]string{
			"en": "Which planet is closest to the sun?",
			"fr": "Quelle planète est la plus proche du soleil ?",
			"es": "¿Qué planeta está más cerca del sol?",
			"de": "Welcher Planet ist der Sonne am nächsten?",
		},
		Options:       []string{"Venus", "Earth", "Mercury", "Mars"},
		CorrectOption: 2,
	},
	{
		Text: map[string]string{
			"en": "How many continents are there?",
			"fr": "Combien y a-t-il de continents ?",
			"es": "¿Cuántos continentes hay?",
			"de": "Wie viele Kontinente gibt es?",
		},
		Options:       []string{"5", "6", "7", "8"},
		CorrectOption: 2,
	},
	{
		Text: map[string]string{
			"en": "What is the largest ocean?",
			"fr": "Quel est le plus grand océan ?",
			"es": "¿Cuál es el océano más grande?",
			"de": "Was ist der größte Ozean?",
		},
		Options:       []string{"Atlantic", "Indian", "Arctic", "Pacific"},
		CorrectOption: 3,
	},
	{
		Text: map[string]string{
			"en": "Which element has the symbol O?",
			"fr": "Quel élément a le symbole O ?",
			"es": "¿Qué elemento tiene el símbolo O?",
			"de": "Welches Element hat das Symbol O?",
		},
		Options:       []string{"Gold", "Oxygen", "Osmium", "Silver"},
		CorrectOption: 1,
	},
	{
		Text: map[string]string{
			"en": "In which year did the first moon landing happen?",
			"fr": "En quelle année a eu lieu le premier alunissage ?",
			"es": "¿En qué año fue el primer alunizaje?",
			"de": "In welchem Jahr fand die erste Mondlandung statt?",
		},
		Options:       []string{"1965", "1969", "1971", "1973"},
		CorrectOption: 1,
	},
	{
		Text: map[string]string{
			"en": "What is the smallest prime number?",
			"fr": "Quel est le plus petit nombre premier ?",
			"es": "¿Cuál es el número primo más pequeño?",
			"de": "Was ist die kleinste Primzahl?",
		},
		Options:       []string{"0", "1", "2", "3"},
		CorrectOption: 2,
	},
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	inserted := 0
	for _, q := range questions {
		text, _ := json.Marshal(q.Text)
		options, _ := json.Marshal(q.Options)
		if _, err := db.Exec(`
			INSERT INTO questions (text, options, correct_option)
			VALUES ($1, $2, $3)
		`, text, options, q.CorrectOption); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
		inserted++
	}

	fmt.Printf("seeded %d questions\n", inserted)
}
