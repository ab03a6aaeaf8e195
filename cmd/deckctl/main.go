// Command deckctl manages decks in the FlashDeck database from the shell.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/vytor/flashdeck/internal/config"
	"github.com/vytor/flashdeck/internal/db"
	"github.com/vytor/flashdeck/internal/deck"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/services"
)

const usage = `usage: deckctl <command> [flags]

commands:
  list                         list decks
  import --file F [--deck N]   create a deck from a .csv or .xlsx file
  export --deck N --out F      write a deck, progress included, to .xlsx
  reset  --deck N --user U     clear a user's progress in a deck
  due    --user U              show a user's due cards per deck
`

var commands = map[string]bool{"list": true, "import": true, "export": true, "reset": true, "due": true}

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel))))

	if err := run(context.Background(), os.Args[1:], cfg.DBPath, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "deckctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, defaultDB string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return fmt.Errorf("missing command")
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	dbPath := fs.String("db", defaultDB, "path to the SQLite database")
	file := fs.StringP("file", "f", "", "file to import")
	deckName := fs.StringP("deck", "d", "", "deck name")
	outPath := fs.StringP("out", "o", "", "output .xlsx path")
	user := fs.StringP("user", "u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !commands[cmd] {
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	store := sqlite.NewTabularStore(database.DB)
	decks := services.NewDeckProgressService(store)

	switch cmd {
	case "list":
		names, err := decks.ListDecks(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil

	case "import":
		if *file == "" {
			return fmt.Errorf("import: --file is required")
		}
		res, err := deck.NewImporter(store).ImportFile(ctx, *file, *deckName)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %d cards into %q\n", res.Imported, res.Deck)
		for _, sk := range res.Skipped {
			fmt.Fprintf(out, "  skipped line %d: %s\n", sk.Row, sk.Reason)
		}
		return nil

	case "export":
		if *deckName == "" || *outPath == "" {
			return fmt.Errorf("export: --deck and --out are required")
		}
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := deck.Export(ctx, store, *deckName, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(out, "exported %q to %s\n", *deckName, *outPath)
		return nil

	case "reset":
		if *deckName == "" {
			return fmt.Errorf("reset: --deck is required")
		}
		if err := decks.ResetDeckProgress(ctx, *deckName, &models.User{Username: *user}); err != nil {
			return err
		}
		fmt.Fprintf(out, "reset progress of %s in %q\n", strings.TrimSpace(*user), *deckName)
		return nil

	case "due":
		due, err := decks.GetUserDueCards(ctx, &models.User{Username: *user})
		if err != nil {
			return err
		}
		names := make([]string, 0, len(due.DueCardsByDeck))
		for name := range due.DueCardsByDeck {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			summary := due.DueCardsByDeck[name]
			if summary.Error != "" {
				fmt.Fprintf(out, "%s: error: %s\n", name, summary.Error)
				continue
			}
			fmt.Fprintf(out, "%s: %d/%d due\n", name, summary.DueCount, summary.TotalCards)
		}
		fmt.Fprintf(out, "total due: %d\n", due.TotalDue)
		return nil
	}
	return nil
}
