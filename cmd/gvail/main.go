package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ifconcept/gvail/internal/app"
	"github.com/ifconcept/gvail/internal/inbox"
	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/provider"
	"github.com/ifconcept/gvail/internal/session"
	"github.com/ifconcept/gvail/internal/store"
	"github.com/ifconcept/gvail/internal/theme"
)

func main() {
	if os.Getenv("GVAIL_DEBUG") != "" {
		f, err := tea.LogToFile("gvail-debug.log", "gvail")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	cfgPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	theme.Apply(cfg.Display.Theme)

	dbPath, err := stateDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	api := provider.NewClient(cfg.Provider.BaseURL)
	manager := session.NewManager(
		api,
		st,
		cfg.Address.NamespacePrefix,
		time.Duration(cfg.Sync.RetryBackoffSec)*time.Second,
	)
	synchronizer := inbox.New(
		api,
		manager.Token,
		time.Duration(cfg.Sync.PollIntervalSec)*time.Second,
	)

	m := app.New(cfg, cfgPath, manager, synchronizer)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// stateDBPath returns the session database path under the user config
// directory, creating the directory if needed.
func stateDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "gvail")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	return filepath.Join(dir, "state.db"), nil
}
