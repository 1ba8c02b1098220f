// Command sheetfs serves spreadsheets over 9P.
//
// Write commands to ctl, one per line:
//
//	A1 5 hello             set a cell of the default sheet
//	set SHEET A1 2 =B1     set a cell of SHEET
//	clear SHEET A1
//	ops SHEET [{"type":"setCell","sheetId":"SHEET","row":0,"col":0,"raw":"1"}]
//	batch SHEET [{"row":0,"col":0,"raw":"1"}]
//	fill SHEET A1 A1:A5
//	ai SHEET A1:B3 translate to french
//	undo SHEET
//	redo SHEET
//	new
//
// Every evaluated cell is written to updates as "SHEET ADDR LEN CONTENT".
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/knusbaum/go9p"
	sheet "github.com/knusbaum/gridcalc"
	"github.com/knusbaum/gridcalc/ai"
	"github.com/knusbaum/gridcalc/config"
	"github.com/spf13/cobra"
)

var (
	srvName    string
	listenAddr string
	sheetID    string
	configPath string
	user       string
)

var rootCmd = &cobra.Command{
	Use:           "sheetfs",
	Short:         "Serve spreadsheets as a 9P file system",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&srvName, "srv", "sheetfs", "name to post the service under")
	rootCmd.Flags().StringVar(&listenAddr, "addr", "", "listen on this TCP address instead of posting (e.g. localhost:9999)")
	rootCmd.Flags().StringVar(&sheetID, "sheet", "", "default sheet for bare instructions (env: GRIDCALC_SHEET)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default: $GRIDCALC_CONFIG_DIR/config.yaml)")
	rootCmd.Flags().StringVar(&user, "user", "glenda", "owner of the served files")
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// generator returns the content generator configured by cfg, or nil if there is no API key.
func generator(cfg config.Config) sheet.ContentGenerator {
	if cfg.AI.APIKey == "" {
		return nil
	}
	return ai.New(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Model)
}

func run(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "[sheetfs] ", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if sheetID != "" {
		cfg.Sheet = sheetID
	}

	srv := newServer(cfg.Sheet, generator(cfg), logger)
	fsys := mount(context.Background(), srv, user)

	srv.mu.Lock()
	srv.repo.GetOrCreate(cfg.Sheet)
	srv.mu.Unlock()

	if listenAddr != "" {
		logger.Printf("listening on %s", listenAddr)
		return go9p.Serve(listenAddr, fsys)
	}
	logger.Printf("posting %s", srvName)
	return go9p.PostSrv(srvName, fsys)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
