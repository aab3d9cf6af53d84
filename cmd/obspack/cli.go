package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/errors"
	"github.com/obspack/obspack/internal/source"
	"github.com/obspack/obspack/internal/vault"
	"github.com/obspack/obspack/internal/watch"
	"github.com/obspack/obspack/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "obspack",
		Usage:   "Flatten an Obsidian vault into one AI-ready document",
		Version: Version,
		Commands: []*cli.Command{
			packCmd(db, cfg),
			estimateCmd(cfg),
			listCmd(cfg),
			historyCmd(db),
			watchCmd(db, cfg),
			serveCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// filterFlags are the include/exclude flags shared by vault-walking commands.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "include", Usage: "Glob pattern over vault-relative paths; repeatable"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "Glob pattern over vault-relative paths; repeatable (wins over include)"},
	}
}

// vaultFlag is the vault reference flag shared by vault commands.
func vaultFlag() cli.Flag {
	return &cli.StringFlag{Name: "vault", Usage: "Vault directory path, or a vault name under the configured root"}
}

// vaultRef reads the vault reference from --vault or the first positional
// argument. The flag wins when both are given.
func vaultRef(c *cli.Context) (string, error) {
	if ref := c.String("vault"); ref != "" {
		return ref, nil
	}
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	return "", errors.NewInvalidRequest("vault reference is required")
}

// packCmd creates the pack command.
func packCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Concatenate a vault's notes into one annotated document",
		ArgsUsage: "[vault]",
		Flags: append([]cli.Flag{
			vaultFlag(),
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Output file path (default: <vault>.md in the working directory)"},
			&cli.StringFlag{Name: "instructions", Aliases: []string{"i"}, Usage: "Replacement preamble: a file path or literal text"},
			&cli.StringFlag{Name: "additional-instructions", Aliases: []string{"a"}, Usage: "Extra rules appended after the preamble: a file path or literal text"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON instead of a summary"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := vaultRef(c)
			if err != nil {
				return outputError(err)
			}

			input := source.PackInput{
				VaultRef:               ref,
				OutputPath:             c.String("source"),
				Instructions:           c.String("instructions"),
				AdditionalInstructions: c.String("additional-instructions"),
				Include:                c.StringSlice("include"),
				Exclude:                c.StringSlice("exclude"),
			}

			// The conversion is announced before packing starts; a
			// later failure can still leave a partial output file, and
			// the line names which one.
			if !c.Bool("json") {
				root, err := vault.Resolve(ref, cfg.VaultRoot)
				if err != nil {
					return outputError(err)
				}
				printPackStart(root, source.ResolveOutputPath(ref, input.OutputPath))
			}

			output, err := source.Pack(cfg, input)
			if err != nil {
				return outputError(err)
			}

			recordHistory(db, cfg, output)

			if c.Bool("json") {
				return outputJSON(output)
			}
			printPackSummary(output)
			return nil
		},
	}
}

// estimateCmd creates the estimate command.
func estimateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     "Report the word and token estimate without writing anything",
		ArgsUsage: "[vault]",
		Flags: append([]cli.Flag{
			vaultFlag(),
			&cli.StringFlag{Name: "instructions", Aliases: []string{"i"}, Usage: "Replacement preamble: a file path or literal text"},
			&cli.StringFlag{Name: "additional-instructions", Aliases: []string{"a"}, Usage: "Extra rules appended after the preamble: a file path or literal text"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := vaultRef(c)
			if err != nil {
				return outputError(err)
			}

			input := source.EstimateInput{
				VaultRef:               ref,
				Instructions:           c.String("instructions"),
				AdditionalInstructions: c.String("additional-instructions"),
				Include:                c.StringSlice("include"),
				Exclude:                c.StringSlice("exclude"),
			}

			output, err := source.Estimate(cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List a vault's notes with word counts and frontmatter metadata",
		ArgsUsage: "[vault]",
		Flags:     append([]cli.Flag{vaultFlag()}, filterFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := vaultRef(c)
			if err != nil {
				return outputError(err)
			}

			input := source.ListInput{
				VaultRef: ref,
				Include:  c.StringSlice("include"),
				Exclude:  c.StringSlice("exclude"),
			}

			output, err := source.List(cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded pack runs, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Show a single run by its ULID"},
			&cli.StringFlag{Name: "vault", Usage: "Filter by resolved vault directory"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum runs to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := source.History(db, source.HistoryInput{
				ID:    c.String("id"),
				Vault: c.String("vault"),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Pack a vault and re-pack whenever its notes change",
		ArgsUsage: "[vault]",
		Flags: append([]cli.Flag{
			vaultFlag(),
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Output file path (default: <vault>.md in the working directory)"},
			&cli.StringFlag{Name: "instructions", Aliases: []string{"i"}, Usage: "Replacement preamble: a file path or literal text"},
			&cli.StringFlag{Name: "additional-instructions", Aliases: []string{"a"}, Usage: "Extra rules appended after the preamble: a file path or literal text"},
			&cli.DurationFlag{Name: "debounce", Value: 500 * time.Millisecond, Usage: "Quiet period before re-packing after a change"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := vaultRef(c)
			if err != nil {
				return outputError(err)
			}

			input := source.PackInput{
				VaultRef:               ref,
				OutputPath:             c.String("source"),
				Instructions:           c.String("instructions"),
				AdditionalInstructions: c.String("additional-instructions"),
				Include:                c.StringSlice("include"),
				Exclude:                c.StringSlice("exclude"),
			}

			w, err := watch.New(cfg, input, watch.Options{
				Debounce: c.Duration("debounce"),
				OnPack: func(out *source.PackOutput) {
					recordHistory(db, cfg, out)
					printPackStart(out.Vault, out.Path)
					printPackSummary(out)
				},
			})
			if err != nil {
				return outputError(err)
			}

			if err := w.Run(c.Context); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve a read-only web preview of a vault",
		ArgsUsage: "[vault]",
		Flags: []cli.Flag{
			vaultFlag(),
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Interface to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8787, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			ref, err := vaultRef(c)
			if err != nil {
				return outputError(err)
			}

			srv := web.NewServer(cfg, ref, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// recordHistory stores a run record unless history is disabled. Recording
// failure never fails the pack; it only warns.
func recordHistory(db *sql.DB, cfg *config.Config, out *source.PackOutput) {
	if db == nil || cfg.DisableHistory {
		return
	}
	if err := source.RecordRun(db, out); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record run history: %v\n", err)
	}
}

// printPackStart announces a conversion before any notes are read.
func printPackStart(vaultDir, path string) {
	fmt.Printf("Converting %s to %s\n", vaultDir, path)
}

// printPackSummary prints the human-readable result of a pack run. Under
// the limit it reports the percentage used; over the limit the truncation
// warning replaces the percentage.
func printPackSummary(out *source.PackOutput) {
	if out.Truncated {
		fmt.Printf("Packed %s notes, an estimated %s words.\n",
			humanize.Comma(int64(out.Notes)),
			humanize.Comma(int64(out.Words)))
		fmt.Printf("WARNING: the estimate exceeds the %s word limit; the document may be truncated on import.\n",
			humanize.Comma(int64(out.WordLimit)))
		return
	}
	fmt.Printf("Packed %s notes, an estimated %s words (%.1f%% of the %s word limit).\n",
		humanize.Comma(int64(out.Notes)),
		humanize.Comma(int64(out.Words)),
		out.PercentOfLimit,
		humanize.Comma(int64(out.WordLimit)))
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if opErr, ok := err.(*errors.ObspackError); ok {
		// The vault-not-found message is a full sentence on its own.
		if opErr.Code == errors.ErrVaultNotFound {
			return cli.Exit(opErr.Message, 1)
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", opErr.Code, opErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
