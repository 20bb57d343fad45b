package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/recera/htag/internal/fixture"
	"github.com/recera/htag/pkg/live"
	"github.com/recera/htag/pkg/style"
)

const liveEndpoint = "/htag/live"

func newServeCommand(a *app) *cobra.Command {
	var port int
	var host string
	var dir string
	var clean bool
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fixture previews with live reload",
		Long: `Starts a preview server for every fixture in the fixtures directory.
Editing a fixture or style file re-renders it and pushes the result to open
preview pages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// CLI flags take precedence over htag.yaml
			if port != 0 {
				a.cfg.Dev.Port = port
			}
			if host != "" {
				a.cfg.Dev.Host = host
			}
			if dir != "" {
				a.cfg.Dev.FixturesDir = dir
			}
			return runServe(a, clean, !noWatch)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run the preview server on")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind the preview server to")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Fixtures directory")
	cmd.Flags().BoolVar(&clean, "clean", false, "Omit list bookkeeping attributes")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the file watcher")

	return cmd
}

// previewServer renders fixtures on demand and republishes them on change
type previewServer struct {
	app    *app
	dir    string
	clean  bool
	logger *slog.Logger
	hub    *live.Hub

	mu       sync.RWMutex
	fixtures map[string]*fixture.Fixture
	failed   map[string]error
	styles   *style.Registry

	watcher *fsnotify.Watcher
}

func newPreviewServer(a *app, clean bool) *previewServer {
	dir := a.cfg.Dev.FixturesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.projectDir, dir)
	}
	return &previewServer{
		app:      a,
		dir:      dir,
		clean:    clean,
		logger:   a.logger,
		hub:      live.NewHub(a.logger.With("component", "live")),
		fixtures: make(map[string]*fixture.Fixture),
		failed:   make(map[string]error),
		styles:   style.NewRegistry(),
	}
}

func runServe(a *app, clean, watch bool) error {
	s := newPreviewServer(a, clean)
	defer s.hub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.reload()
	s.hub.Start(ctx, a.cfg.Scheduler.FrameInterval)

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()
		s.watcher = watcher

		if err := s.setupWatcher(); err != nil {
			return fmt.Errorf("failed to setup watcher: %w", err)
		}
		go s.watchFiles(a.cfg.Dev.Debounce)
	}

	srv := &http.Server{
		Addr:    a.cfg.Dev.Addr(),
		Handler: s.handler(),
	}

	go func() {
		<-ctx.Done()
		s.shutdown(srv, 5*time.Second)
	}()

	s.logger.Info("preview server running", "url", "http://"+srv.Addr, "fixtures", s.dir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops srv, giving open connections up to timeout to finish
func (s *previewServer) shutdown(srv shutdowner, timeout time.Duration) {
	s.logger.Info("shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("preview server shutdown failed", "error", err)
	}
}

func (s *previewServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(liveEndpoint, s.hub)
	mux.HandleFunc("GET /f/{name}", s.serveFixture)
	mux.HandleFunc("GET /styles.css", s.serveStyles)
	mux.HandleFunc("GET /{$}", s.serveIndex)
	return mux
}

// reload reads every fixture and style file and publishes the results
func (s *previewServer) reload() {
	s.loadStyles()

	paths, err := fixture.Files(s.dir)
	if err != nil {
		s.logger.Warn("failed to list fixtures", "error", err)
		return
	}

	fixtures := make(map[string]*fixture.Fixture, len(paths))
	failed := make(map[string]error)
	for _, p := range paths {
		f, err := fixture.Load(p)
		if err != nil {
			failed[strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))] = err
			continue
		}
		fixtures[f.Name] = f
	}

	s.mu.Lock()
	s.fixtures = fixtures
	s.failed = failed
	s.mu.Unlock()

	for name, err := range failed {
		s.logger.Warn("fixture failed to load", "fixture", name, "error", err)
		s.hub.Publish(live.Update{Fixture: name, Error: err.Error()})
	}
	for _, f := range fixtures {
		s.hub.Publish(s.render(f))
	}
	s.logger.Debug("fixtures reloaded", "loaded", len(fixtures), "failed", len(failed))
}

func (s *previewServer) loadStyles() {
	s.styles.Reset()
	for _, p := range s.app.stylePaths() {
		rules, err := loadRules(p)
		if err != nil {
			s.logger.Warn("failed to load styles", "file", p, "error", err)
			continue
		}
		s.styles.Add(rules)
	}
}

// render produces the update for one fixture
func (s *previewServer) render(f *fixture.Fixture) live.Update {
	out, err := f.Render(s.app.fixtureOptions(s.clean))
	if err != nil {
		return live.Update{Fixture: f.Name, Error: err.Error()}
	}
	return live.Update{Fixture: f.Name, HTML: out, CSS: s.styles.CSS() + f.CSS()}
}

func (s *previewServer) serveFixture(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.mu.RLock()
	f, ok := s.fixtures[name]
	loadErr := s.failed[name]
	s.mu.RUnlock()

	var u live.Update
	switch {
	case ok:
		u = s.render(f)
	case loadErr != nil:
		u = live.Update{Fixture: name, Error: loadErr.Error()}
	default:
		http.NotFound(w, r)
		return
	}

	body := u.HTML
	if u.Error != "" {
		body = "<pre>" + html.EscapeString(u.Error) + "</pre>"
	}
	liveURL := liveEndpoint + "?fixture=" + url.QueryEscape(name)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, live.Page(name, body, u.CSS, liveURL))
}

func (s *previewServer) serveStyles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, s.styles.CSS())
}

func (s *previewServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.fixtures)+len(s.failed))
	for name := range s.fixtures {
		names = append(names, name)
	}
	for name := range s.failed {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("<ul>")
	for _, name := range names {
		fmt.Fprintf(&b, `<li><a href="/f/%s">%s</a></li>`, url.PathEscape(name), html.EscapeString(name))
	}
	b.WriteString("</ul>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, live.Page("htag fixtures", b.String(), "", liveEndpoint))
}

func (s *previewServer) setupWatcher() error {
	dirs := map[string]bool{s.dir: true}
	for _, p := range s.app.stylePaths() {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := s.watcher.Add(dir); err != nil {
			return err
		}
	}
	return nil
}

func (s *previewServer) watchFiles(quiet time.Duration) {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	var pendingEvents []fsnotify.Event

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isRelevantFile(event.Name) {
				continue
			}
			pendingEvents = append(pendingEvents, event)
			debounce.Reset(quiet)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			if len(pendingEvents) > 0 {
				s.logger.Info("files changed, re-rendering", "events", len(pendingEvents))
				pendingEvents = nil
				s.reload()
			}
		}
	}
}

func isRelevantFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
