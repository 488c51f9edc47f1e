package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aktagon/newsletter-wrapper/internal/logger"
)

var (
	limit        int
	workers      int
	outDir       string
	settingsPath string
	templatePath string
	debugMode    bool
	fixDate      string
	htmlMode     bool
	subject      string
	issueDate    string
	anySender    bool
)

var rootCmd = &cobra.Command{
	Use:   "newsletter-wrapper [message.eml]",
	Short: "Wrap forwarded newsletters into an annotated reading page",
	Long: `Cleans a forwarded newsletter, resolves its tracking links, summarizes paywalled
articles, and writes the wrapped issue to the output directory.

Reads the message from the given file, or from stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Build config overrides
		overrides := &ConfigOverrides{}
		if settingsPath != "" {
			overrides.SettingsPath = &settingsPath
		}
		if templatePath != "" {
			overrides.TemplatePath = &templatePath
		}

		settings, err := resolveSettings(defaultConfigDir, overrides)
		if err != nil {
			return err
		}
		tmpl, err := loadTemplate(overrides)
		if err != nil {
			return err
		}

		logCfg := settings.Logging
		if debugMode {
			logCfg.Level = "debug"
		}
		log, err := logger.New(logCfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		processor, err := NewNewsletterProcessor(settings, loadCredentials(), tmpl, ProcessorOptions{
			OutputDirectory: outDir,
			Limit:           limit,
			Workers:         workers,
			AnySender:       anySender,
		}, log)
		if err != nil {
			return fmt.Errorf("creating processor: %w", err)
		}
		defer processor.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var result ProcessingResult
		switch {
		case fixDate != "":
			result = processor.Fix(fixDate)
		case len(args) > 0:
			result = processor.ProcessFile(ctx, args[0], htmlMode, subject, issueDate)
		case htmlMode:
			result = processor.ProcessHTML(ctx, "stdin", readStdin(), subject, issueDate)
		default:
			result = processor.ProcessMessage(ctx, "stdin", os.Stdin)
		}

		return report(cmd, result)
	},
}

func readStdin() string {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return string(data)
}

func report(cmd *cobra.Command, result ProcessingResult) error {
	out := cmd.OutOrStdout()
	switch result.Status {
	case StatusSuccess:
		fmt.Fprintf(out, "✓ %s (%s): %s\n", result.Subject, result.Date, result.Filename)
		if result.Deliver {
			fmt.Fprintln(out, "  ready for delivery")
		}
	case StatusSkipped:
		fmt.Fprintf(out, "- Skipped %s: %s\n", result.Subject, result.Reason)
	default:
		return fmt.Errorf("processing %s failed: %w", result.Source, result.Error)
	}
	return nil
}

func init() {
	rootCmd.Flags().IntVar(&limit, "limit", 0, "Summarize only paywalled links among the first N links in priority order (0 uses settings)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Number of enrichment workers (0 uses settings)")
	rootCmd.Flags().StringVar(&outDir, "out", "", "Output directory (overrides settings)")
	rootCmd.Flags().StringVar(&settingsPath, "settings", "", "Path to settings file")
	rootCmd.Flags().StringVar(&templatePath, "template", "", "Path to custom page template file")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&fixDate, "fix", "", "Re-strip forwarding wrappers from the stored issue for DATE")
	rootCmd.Flags().BoolVar(&htmlMode, "html", false, "Input is raw newsletter HTML instead of an email")
	rootCmd.Flags().StringVar(&subject, "subject", "", "Subject for --html input")
	rootCmd.Flags().StringVar(&issueDate, "date", "", "Issue date (YYYY-MM-DD) for --html input")
	rootCmd.Flags().BoolVar(&anySender, "any-sender", false, "Process mail from any sender")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
