package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/git"
	"github.com/arbordev/arbor/internal/runner"
	"github.com/arbordev/arbor/internal/sidebar"
	"github.com/arbordev/arbor/internal/state"
	"github.com/arbordev/arbor/internal/tree"
	"github.com/arbordev/arbor/internal/watcher"
)

var version = "dev"

// app wires the sidebar to the filesystem watcher and owns program
// lifecycle concerns.
type app struct {
	sidebar sidebar.Model
	watch   *watcher.Watcher
	log     *zap.Logger
}

func (a app) Init() tea.Cmd {
	return tea.Batch(a.sidebar.Init(), a.waitForFsEvent())
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if _, ok := msg.(sidebar.FsEventMsg); ok {
		// Re-arm the channel read for the next event.
		cmds = append(cmds, a.waitForFsEvent())
	}

	var cmd tea.Cmd
	a.sidebar, cmd = a.sidebar.Update(msg)
	cmds = append(cmds, cmd)

	a.syncWatches()
	return a, tea.Batch(cmds...)
}

func (a app) View() string {
	return a.sidebar.View()
}

func (a app) waitForFsEvent() tea.Cmd {
	if a.watch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-a.watch.Events()
		if !ok {
			return nil
		}
		return sidebar.FsEventMsg{Path: ev.Path}
	}
}

// syncWatches registers every expanded directory with the watcher.
// Add is idempotent, so re-adding known directories is harmless.
func (a app) syncWatches() {
	if a.watch == nil {
		return
	}
	for _, dir := range a.sidebar.WatchedDirs() {
		if err := a.watch.Add(dir); err != nil {
			a.log.Debug("watch failed", zap.String("dir", dir), zap.Error(err))
		}
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dotfiles := flag.Bool("dotfiles", false, "enable the dotfile-manager status backend under $HOME")
	debug := flag.Bool("debug", false, "write debug logs to arbor.log")
	flag.Parse()

	if *showVersion {
		fmt.Println("arbor", version)
		return
	}

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	log := zap.NewNop()
	if *debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"arbor.log"}
		if l, err := cfg.Build(); err == nil {
			log = l
			defer log.Sync()
		}
	}
	tree.SetLogger(log)

	st := state.Load()
	if *dotfiles {
		st.DotfilesRepo = true
	}

	run := runner.New()
	reg := git.NewRegistry(run, log, git.DotfilesConfig{Enabled: st.DotfilesRepo})

	sb, err := sidebar.New(root, run, reg, log, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arbor: %v\n", err)
		os.Exit(1)
	}

	w, err := watcher.New(log, watcher.DefaultDebounce)
	if err != nil {
		log.Warn("watcher unavailable", zap.Error(err))
		w = nil
	}
	if w != nil {
		defer w.Close()
	}

	p := tea.NewProgram(
		app{sidebar: sb, watch: w, log: log},
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
