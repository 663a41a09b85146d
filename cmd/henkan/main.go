// Command henkan is the command-line front end to the kana-kanji
// conversion engine: convert readings from stdin, compile SKK
// dictionaries into the native binary format, and inspect dictionary
// candidates.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ime-tools/henkan"
)

var configPath string

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	rootCmd := &cobra.Command{
		Use:           "henkan",
		Short:         "Statistical kana-kanji conversion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(lookupCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("henkan", "error", err)
		os.Exit(1)
	}
}

func newEngine() (*henkan.Engine, error) {
	cfg, err := henkan.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return henkan.New(cfg)
}

func convertCmd() *cobra.Command {
	var nbest int
	var learn bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert romaji/kana readings from stdin, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			// The one Close: it flushes learned counts on interrupt too,
			// since cancellation unwinds through this same path.
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lines := make(chan string)
			scanErr := make(chan error, 1)
			go func() {
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						return
					}
				}
				scanErr <- sc.Err()
				close(lines)
			}()

			for {
				var line string
				var ok bool
				select {
				case <-ctx.Done():
					return nil
				case line, ok = <-lines:
					if !ok {
						return <-scanErr
					}
				}
				if line == "" {
					continue
				}
				yomi := e.ToKana(line)

				if nbest > 1 {
					for i, p := range e.ConvertNBest(yomi, nbest) {
						fmt.Printf("%d\t%s\n", i+1, p.Surface())
					}
					continue
				}

				path := e.Convert(yomi)
				fmt.Println(henkan.Path{Candidates: path}.Surface())
				if learn {
					e.Commit(path)
				}
			}
		},
	}
	cmd.Flags().IntVar(&nbest, "nbest", 1, "print up to N alternative conversions")
	cmd.Flags().BoolVar(&learn, "learn", false, "record each conversion as accepted")
	return cmd
}

func compileCmd() *cobra.Command {
	var enc string

	cmd := &cobra.Command{
		Use:   "compile <skk-dict> <output>",
		Short: "Compile an SKK text dictionary into the native binary format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := henkan.LoadSource(henkan.SourceDescriptor{
				Path:     args[0],
				Encoding: enc,
				Format:   henkan.FormatSKK,
			})
			if err != nil {
				return err
			}
			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()
			if err := henkan.WriteNative(out, src); err != nil {
				return err
			}
			slog.Info("compiled dictionary", "readings", src.Len(), "output", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&enc, "encoding", "utf-8", "source encoding (utf-8, euc-jp, shift_jis)")
	return cmd
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <reading>",
		Short: "Print dictionary candidates for one kana reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			for _, c := range e.Dictionary().Lookup(args[0]) {
				fmt.Printf("%s\t%s\n", c.Surface, c.Source)
			}
			return nil
		},
	}
}
