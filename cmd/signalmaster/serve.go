package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/platform/tui"
	"github.com/vovakirdan/signalmaster/internal/storage"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Signalmaster SSH server",
	Long: `Start an SSH server that lets users connect and play.

Each SSH connection gets its own session with the map menu and its own
simulation. The map catalog and the scores database are shared, so all users
see the same scoreboard.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.signalmaster/host_key

Examples:
  signalmaster serve                           # Listen on :23234 with auto-generated key
  signalmaster serve --ssh :2222               # Listen on port 2222
  signalmaster serve --host-key ./my_host_key  # Use specific host key
  signalmaster serve --maps ./maps             # Serve extra maps

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger(os.Stderr, "signalmaster-ssh")

	cfg := loadConfig()
	env := tui.Env{
		Catalog: loadCatalog(cfg, logger),
		Sim:     cfg,
		Logger:  logger,
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open scores database", "error", err)
		// Continue without storage
	} else {
		env.Store = store
		defer store.Close()
	}

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		TickRate:    max(flagFPS, 1),
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting Signalmaster SSH server on %s\n", server.Addr())
	fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(server.Addr()))
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// portOf returns the port part of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
