// FILE: example/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lixenwraith/cascade"
)

// ServerConfig is scanned from the "server" section of the app config
type ServerConfig struct {
	Host         string        `cascade:"host"`
	Port         int           `cascade:"port"`
	ReadTimeout  time.Duration `cascade:"read_timeout"`
	RateLimit    bool          `cascade:"rate_limit"`
	AllowedHosts []string      `cascade:"allowed_hosts"`
}

const baseConfig = `
server:
  host: localhost
  port: 8080
  read_timeout: 30s
  rate_limit: false
  allowed_hosts: [localhost]
`

const localConfig = `
server:
  port: 9090
  allowed_hosts: [dev.internal]
`

func main() {
	// Two load paths: shared defaults and a machine-local directory added later
	root, err := os.MkdirTemp("", "cascade-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	shared := filepath.Join(root, "shared")
	local := filepath.Join(root, "local")
	mustWrite(filepath.Join(shared, "app.yml"), baseConfig)
	mustWrite(filepath.Join(local, "app_local.yml"), localConfig)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var server ServerConfig
	reg, err := cascade.NewBuilder().
		WithLoadPaths(shared, local).
		WithLogger(logger).
		WithReloadInterval(time.Second).
		BuildAndScan("app", "server", &server)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logServer(server)

	// Rescan whenever the files behind "app" change
	_, err = reg.OnLoadFunc(func() error {
		if err := reg.Scan("app", "server", &server); err != nil {
			return err
		}
		log.Println("📝 Config reloaded")
		logServer(server)
		return nil
	}, "app")
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := reg.Watch(ctx, cascade.WatchOptions{Debounce: 200 * time.Millisecond})
	if err != nil {
		log.Fatal(err)
	}
	defer w.Stop()

	// Simulate an operator editing the local overlay
	go func() {
		time.Sleep(time.Second)
		mustWrite(filepath.Join(local, "app_local.yml"), localConfig+"  rate_limit: true\n")
	}()

	changes := w.Subscribe()
	log.Println("Watching for configuration changes. Press Ctrl+C to exit.")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down...")
			return
		case names, ok := <-changes:
			if !ok {
				return
			}
			log.Printf("Changed configs: %v", names)
		case <-timeout:
			log.Println("Done.")
			log.Print(reg.Debug("app"))
			return
		}
	}
}

func logServer(s ServerConfig) {
	log.Printf("  Server: %s:%d (read_timeout=%s, rate_limit=%v, allowed=%v)",
		s.Host, s.Port, s.ReadTimeout, s.RateLimit, s.AllowedHosts)
}

func mustWrite(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Fatal(err)
	}
}
