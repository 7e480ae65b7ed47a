// Command outline is a terminal outline viewer: it extracts the heading
// structure of a document and shows it as a navigable tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgallion1/outlined/internal/editor"
	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/extract"
	"github.com/dgallion1/outlined/internal/tui"
	"github.com/dgallion1/outlined/internal/watch"
)

func main() {
	var (
		watchFile = flag.Bool("watch", false, "reload the outline when the file changes")
		editorURL = flag.String("editor", "", "editor navigation endpoint (jump on enter)")
		editorKey = flag.String("editor-key", "", "API key for the editor endpoint")
		logPath   = flag.String("log", "", "write debug logs to this file")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <document>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	// The TUI owns the terminal, so logs go to a file or nowhere.
	logW := io.Writer(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logW = f
	}
	log := slog.New(slog.NewTextHandler(logW, nil))

	var nav engine.Navigator
	if *editorURL != "" {
		ed := editor.NewClient(*editorURL, *editorKey, log)
		defer ed.Close()
		nav = ed
	}

	host := tui.NewHost()
	eng := engine.New(host, nav, engine.WithLogger(log))

	doc, err := loadDocument(eng, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load document: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *watchFile {
		go func() {
			err := watch.Watch(ctx, path, watch.DefaultDebounce, log, func() {
				if _, err := loadDocument(eng, path); err != nil {
					log.Error("reload failed", "path", path, "error", err)
				}
			})
			if err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	p := tea.NewProgram(tui.NewModel(eng, doc.Title), tea.WithAltScreen())
	host.Attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}

func loadDocument(eng *engine.Engine, path string) (*extract.Document, error) {
	ex, err := extract.ForFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := ex.Extract(f, path)
	if err != nil {
		return nil, err
	}
	if err := eng.SetOutline(doc.Entries); err != nil {
		return nil, err
	}
	return doc, nil
}
