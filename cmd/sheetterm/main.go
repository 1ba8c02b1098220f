// Command sheetterm is a terminal spreadsheet.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	sheet "github.com/knusbaum/gridcalc"
	"github.com/knusbaum/gridcalc/ai"
	"github.com/knusbaum/gridcalc/config"
	"github.com/knusbaum/gridcalc/xlsx"
	"github.com/spf13/cobra"
)

const (
	blankRows = 50
	blankCols = 20
)

var (
	sheetID    string
	configPath string
	loadPath   string
	inPath     string
)

var rootCmd = &cobra.Command{
	Use:           "sheetterm",
	Short:         "Edit a spreadsheet from the terminal",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runREPL,
}

var exportCmd = &cobra.Command{
	Use:   "export OUT.xlsx",
	Short: "Convert an instruction stream (ADDR LEN CONTENT lines) to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import IN.xlsx",
	Short: "Print the first worksheet of a workbook as an instruction stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sheetID, "sheet", "", "sheet id (env: GRIDCALC_SHEET)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $GRIDCALC_CONFIG_DIR/config.yaml)")
	rootCmd.Flags().StringVar(&loadPath, "load", "", "workbook to load at startup")
	exportCmd.Flags().StringVar(&inPath, "in", "", "read instructions from this file instead of stdin")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if sheetID != "" {
		cfg.Sheet = sheetID
	}
	return cfg, nil
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var gen sheet.ContentGenerator
	if cfg.AI.APIKey != "" {
		gen = ai.New(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Model)
	}

	sess := newSession(cfg.Sheet, gen, cmd.OutOrStdout())
	if loadPath != "" {
		ops, err := xlsx.ImportFile(loadPath, sess.sheet())
		if err != nil {
			return err
		}
		sess.repo.ApplyOperations(sess.id, ops)
	}
	return repl(context.Background(), sess, cmd.InOrStdin())
}

// readInstructions builds a sheet from an instruction stream.
func readInstructions(id string, r io.Reader) (*sheet.Sheet, error) {
	s := sheet.NewSheet(id, "Sheet1", blankRows, blankCols)
	br := bufio.NewReader(r)
	for {
		err := s.Read(br)
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in := cmd.InOrStdin()
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	s, err := readInstructions(cfg.Sheet, in)
	if err != nil {
		return fmt.Errorf("reading instructions: %w", err)
	}
	return xlsx.ExportFile(s, args[0])
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := sheet.NewSheet(cfg.Sheet, "Sheet1", blankRows, blankCols)
	ops, err := xlsx.ImportFile(args[0], s)
	if err != nil {
		return err
	}
	sheet.ApplyAll(s, ops)
	return s.WriteRange(sheet.Addr(0, 0), s.MaxAddr(), cmd.OutOrStdout())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
