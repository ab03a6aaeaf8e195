package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashdeck/internal/db"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// A single connection is used so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.ApplyMigrations(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SeedDeck creates a deck with the standard header row and one row per card.
func SeedDeck(t *testing.T, store repository.TabularStore, name string, cards ...models.Card) repository.Table {
	return SeedTable(t, store, name, models.DeckColumns, cardRows(cards)...)
}

// SeedTable creates a table with arbitrary headers and raw rows.
func SeedTable(t *testing.T, store repository.TabularStore, name string, headers []string, rows ...[]string) repository.Table {
	ctx := context.Background()
	table, err := store.CreateTable(ctx, name, headers)
	require.NoError(t, err)
	for _, row := range rows {
		_, err := table.AppendRow(ctx, row)
		require.NoError(t, err)
	}
	return table
}

// SampleCards returns n simple vocabulary cards with ids card001..cardNNN.
func SampleCards(n int) []models.Card {
	words := [][2]string{
		{"hola", "hello"}, {"gato", "cat"}, {"perro", "dog"}, {"casa", "house"},
		{"libro", "book"}, {"agua", "water"}, {"sol", "sun"}, {"luna", "moon"},
	}
	cards := make([]models.Card, n)
	for i := range cards {
		w := words[i%len(words)]
		cards[i] = models.Card{
			ID:    fmt.Sprintf("card%03d", i+1),
			SideA: w[0],
			SideB: w[1],
		}
	}
	return cards
}

func cardRows(cards []models.Card) [][]string {
	rows := make([][]string, len(cards))
	for i, c := range cards {
		rows[i] = []string{
			c.ID, c.SideA, c.SideB, c.SideC, strings.Join(c.Tags, ","),
			c.CreatedBy, "", c.StudyConfig,
			c.AudioURL, c.ImageURL, c.Attribution,
		}
	}
	return rows
}
