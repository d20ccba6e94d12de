package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arizkuren/skillbluff/internal/config"
	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/arizkuren/skillbluff/internal/repository"
	"github.com/arizkuren/skillbluff/internal/service"
	"github.com/arizkuren/skillbluff/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	prompt  string
	save    bool
	rawFile string
)

var rootCmd = &cobra.Command{
	Use:          "skillgen",
	Short:        "skillgen runs the SkillBluff generation pipeline from the terminal",
	SilenceUsage: true,
}

var generateCmd = &cobra.Command{
	Use:     "generate",
	Short:   "Generate one skill and print it as JSON",
	Example: `skillgen generate --prompt "how to fold water" --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		generator, err := service.NewLLMGenerator(&service.GeneratorConfig{
			Provider:    cfg.Generation.Provider,
			Model:       cfg.Generation.Model,
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			Timeout:     cfg.Generation.Timeout,
			Temperature: cfg.Generation.Temperature,
		})
		if err != nil {
			return err
		}

		var store service.SkillStore
		if save {
			db, err := repository.InitDB(&cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			store = repository.NewSkillRepository(db)
		}

		objects, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return err
		}

		svc := service.NewSkillService(service.SkillServiceConfig{
			Store:     store,
			Generator: generator,
			Archive:   service.NewTranscriptArchive(objects),
		})

		ctx := context.Background()
		skill, err := svc.Build(ctx, prompt)
		if err != nil {
			return err
		}
		if save {
			if err := svc.Save(ctx, skill); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), skill)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run extraction and coercion on a saved generator reply",
	Long: "Reads a raw generator reply (from --file or stdin), extracts the JSON object, " +
		"applies coercion and validation for --prompt, and prints the resulting record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if rawFile == "" || rawFile == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(rawFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read reply: %w", err)
		}

		in, err := service.NewIntake(prompt)
		if err != nil {
			return err
		}
		ext, err := service.ExtractJSONObject(string(raw))
		if err != nil {
			return err
		}
		rec := service.CoerceRecord(ext.Object, in)
		if err := service.NewRecordValidator().Validate(rec); err != nil {
			var derr *domain.Error
			if errors.As(err, &derr) {
				_ = printJSON(cmd.ErrOrStderr(), derr.Issues)
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (default ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&prompt, "prompt", "p", "", "skill prompt (max 100 characters)")
	_ = rootCmd.MarkPersistentFlagRequired("prompt")

	generateCmd.Flags().BoolVar(&save, "save", false, "persist the generated skill")
	extractCmd.Flags().StringVarP(&rawFile, "file", "f", "-", "file holding the raw reply, - for stdin")

	rootCmd.AddCommand(generateCmd, extractCmd)
}

func main() {
	logger.SetDefaultLogger(logger.NewDefault())
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
