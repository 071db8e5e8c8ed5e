package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/collab"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/config"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/engine"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/nav"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/ocr"
	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/trail"
)

var navigateFlags struct {
	configPath string
	target     string
	url        string
	headed     bool
}

var navigateCmd = &cobra.Command{
	Use:   "navigate",
	Short: "Drive a live session to a target context",
	RunE:  runNavigate,
}

func init() {
	f := navigateCmd.Flags()
	f.StringVarP(&navigateFlags.configPath, "config", "c", "", "YAML config path (defaults apply when omitted)")
	f.StringVarP(&navigateFlags.target, "target", "t", "", "Target context label (required)")
	f.StringVar(&navigateFlags.url, "url", "", "Frontend URL (overrides config)")
	f.BoolVar(&navigateFlags.headed, "headed", false, "Run the browser with a visible window")

	_ = navigateCmd.MarkFlagRequired("target")
}

func runNavigate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(navigateFlags.configPath)
	if err != nil {
		return err
	}
	if navigateFlags.url != "" {
		cfg.Browser.URL = navigateFlags.url
	}
	if navigateFlags.headed {
		cfg.Browser.Headless = false
	}
	if cfg.Browser.URL == "" {
		return fmt.Errorf("no frontend URL: set browser.url in config or pass --url")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	browser, err := collab.Open(ctx, collab.Config{
		URL:      cfg.Browser.URL,
		Headless: cfg.Browser.Headless,
		Timeout:  cfg.Browser.Timeout.Std(),
	})
	if err != nil {
		return err
	}
	defer browser.Close()

	store, err := trail.NewStore(cfg.TrailDB)
	if err != nil {
		return err
	}
	defer store.Close()

	library, err := engine.LoadLibrary(cfg)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		Config:     cfg,
		Capturer:   browser,
		Dispatcher: browser,
		Recognizer: ocr.NewTesseract(cfg.OCRLanguage),
		Library:    library,
		Store:      store,
	})
	if err != nil {
		return err
	}

	session, navErr := eng.Navigate(ctx, navigateFlags.target)
	if session == nil {
		return navErr
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:  %s\n", session.ID)
	fmt.Fprintf(out, "Target:   %s\n", session.Target)
	fmt.Fprintf(out, "State:    %s\n", session.State)
	fmt.Fprintf(out, "Attempts: %d\n", session.Attempts)
	fmt.Fprintf(out, "Cycles:   %d\n", len(session.Trail()))

	health := eng.Health()
	fmt.Fprintf(out, "Health:   %s (%.0f%% signals valid, %.1f recals/cycle)\n",
		health.Grade, health.ValidRatio*100, health.AvgRecals)

	var exhausted *nav.ExhaustedError
	if errors.As(navErr, &exhausted) {
		fmt.Fprintf(out, "Failure:  %s, tiers attempted %v\n", exhausted.Reason, exhausted.Tiers)
	}
	return navErr
}
