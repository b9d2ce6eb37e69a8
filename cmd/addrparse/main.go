package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postal-parser/app/config"
	"github.com/postal-parser/app/models"
	"github.com/postal-parser/app/requests"
	"github.com/postal-parser/app/services"
	"github.com/postal-parser/helpers/utils"
	"github.com/postal-parser/internal/locale"
	"github.com/postal-parser/internal/parser"
	"github.com/postal-parser/internal/search"
)

// recordSeparator splits multi-line addresses in a batch file
const recordSeparator = "---"

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "addrparse",
		Short: "Free-form postal address parser",
		Long:  `Parse free-form postal addresses into structured fields, offline or against the address index`,

		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to app.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log parser decisions")

	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createBatchCmd())
	rootCmd.AddCommand(createStatesCmd())
	rootCmd.AddCommand(createIndexCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v", err)
	}
	return logger
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	return cfg
}

// createParseCmd parses one address read from a file or stdin
func createParseCmd() *cobra.Command {
	var candidates bool
	cmd := &cobra.Command{
		Use:   "parse [filename]",
		Short: "Parse a single address read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			logger := newLogger()
			defer logger.Sync()

			result, parseErr := parser.NewAddressParser(locale.Default(), logger).ParseAddress(raw, candidates)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			return parseErr
		},
	}
	cmd.Flags().BoolVar(&candidates, "candidates", false, "include every scored interpretation")
	return cmd
}

// createBatchCmd parses addresses in parallel and prints NDJSON in input order
func createBatchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [filename]",
		Short: "Parse addresses separated by '---' lines and print NDJSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := readRecordsFile(args[0])
			if err != nil {
				return err
			}
			cfg := loadConfig()
			if workers <= 0 {
				workers = cfg.Batch.Workers
			}
			logger := newLogger()
			defer logger.Sync()

			svc := services.NewAddressService(parser.NewAddressParser(locale.Default(), logger), logger,
				services.WithWorkers(workers))
			results, err := runBatch(cmd.Context(), svc, addresses, requests.ParseOptions{SkipReview: true})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			matched := 0
			for _, result := range results {
				if result.IsMatched() {
					matched++
				}
				if err := enc.Encode(result); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "parsed %d addresses, %d matched\n", len(results), matched)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel parsers (defaults to batch.workers)")
	return cmd
}

// createStatesCmd lists or suggests the states of a country
func createStatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "states [country] [query]",
		Short: "List the states of a country, or suggest the closest ones to a query",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := locale.Default()
			country, ok := table.LookupCountry(args[0])
			if !ok {
				return fmt.Errorf("unknown country: %s", args[0])
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				for _, state := range table.States(country) {
					fmt.Fprintln(out, state)
				}
				return nil
			}

			cfg := loadConfig()
			suggester := locale.NewSuggester(table, cfg.Suggest.JWWeight, cfg.Suggest.LevWeight)
			for _, s := range suggester.Suggest(country, args[1], cfg.Suggest.Limit) {
				fmt.Fprintf(out, "%s\t%s\t%.3f\n", s.State, s.Alias, s.Score)
			}
			return nil
		},
	}
}

// createIndexCmd parses a batch file and pushes matched addresses to Meilisearch
func createIndexCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "index [filename]",
		Short: "Parse a batch file and push matched addresses to the search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := readRecordsFile(args[0])
			if err != nil {
				return err
			}
			cfg := loadConfig()
			logger := newLogger()
			defer logger.Sync()

			index, err := search.NewAddressIndex(search.SearchConfig{
				Host:          cfg.Meilisearch.URL,
				APIKey:        cfg.Meilisearch.MasterKey,
				IndexName:     cfg.Meilisearch.Index,
				Timeout:       cfg.Meilisearch.Timeout,
				MaxCandidates: cfg.Meilisearch.MaxHits,
			}, logger)
			if err != nil {
				return err
			}
			if rebuild {
				if err := index.Clear(); err != nil {
					return err
				}
			}
			if err := index.BuildIndexes(); err != nil {
				return err
			}

			svc := services.NewAddressService(parser.NewAddressParser(locale.Default(), logger), logger,
				services.WithWorkers(cfg.Batch.Workers), services.WithIndex(index))
			results, err := runBatch(cmd.Context(), svc, addresses, requests.ParseOptions{Index: true, SkipReview: true})
			if err != nil {
				return err
			}

			matched := 0
			for _, result := range results {
				if result.IsMatched() {
					matched++
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %q: %s\n", result.Raw, result.Error)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d addresses into %s\n", matched, len(results), index.IndexName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "delete existing documents first")
	return cmd
}

func runBatch(ctx context.Context, svc *services.AddressService, addresses []string, opts requests.ParseOptions) ([]*models.AddressResult, error) {
	jobID := utils.GenerateShortID()
	svc.ProcessBatchJob(ctx, jobID, addresses, opts)
	return svc.GetJobResults(jobID)
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		return string(data), err
	}
	data, err := io.ReadAll(stdin)
	return string(data), err
}

func readRecordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return splitRecords(f)
}

// splitRecords splits the input on "---" lines; empty records are dropped
func splitRecords(r io.Reader) ([]string, error) {
	var (
		records []string
		lines   []string
	)
	flush := func() {
		if record := strings.TrimSpace(strings.Join(lines, "\n")); record != "" {
			records = append(records, record)
		}
		lines = lines[:0]
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == recordSeparator {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}
