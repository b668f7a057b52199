package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/pubsub"
	"github.com/talenthium/patchtree/internal/server"
	"github.com/talenthium/patchtree/internal/store"
)

var (
	serveAddr      string
	serveLogStdout bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve tree building, patch splitting and commit views as a JSON API.

Routes:
  POST   /api/tree                             {files} -> {tree, summary}
  POST   /api/split                            {patch, filename} -> {original, modified, language}
  GET    /api/language?filename=
  GET    /api/projects/:id/commits/:hash/view  ?snapshot=true&label=... saves a snapshot
  GET    /api/snapshots                        ?project=&label=&limit=
  GET    /api/snapshots/:id
  DELETE /api/snapshots/:id
  GET    /healthz

Examples:
  patchtree serve
  patchtree serve --addr 0.0.0.0:8088 --log-stdout`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveLogStdout, "log-stdout", false, "mirror log entries to stdout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveLogStdout {
		mirrorLogs(ctx, cmd)
	}

	client, closer, err := newAPIClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	go logSnapshotActivity(pubsub.NewListener[store.SnapshotEvent](ctx, db.Snapshots()))

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv, err := server.New(server.Config{
		Addr:      addr,
		Diffs:     client,
		Snapshots: db.Snapshots(),
		Tracer:    traceProvider.Tracer(),
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "patchtree API listening on http://%s\n", srv.Addr())

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatServer, "Error stopping API server", err)
	}
	return nil
}

// mirrorLogs copies log entries to stdout until ctx is done. Without --debug
// a logger is installed that only feeds the mirror.
func mirrorLogs(ctx context.Context, cmd *cobra.Command) {
	if logCleanup == nil {
		log.InitWriter(nil, log.LevelInfo)
	}
	listener := log.NewListener(ctx)
	if listener == nil {
		return
	}
	out := cmd.OutOrStdout()
	go listener.Drain(func(event pubsub.Event[string]) {
		fmt.Fprint(out, event.Payload)
	})
}

// logSnapshotActivity records snapshot saves and deletes made through the API.
func logSnapshotActivity(listener *pubsub.Listener[store.SnapshotEvent]) {
	listener.Drain(func(event pubsub.Event[store.SnapshotEvent]) {
		switch event.Kind {
		case pubsub.KindSnapshotSaved:
			log.Info(log.CatServer, "Snapshot saved", "id", event.Payload.ID,
				"project", event.Payload.ProjectID, "commit", event.Payload.CommitHash)
		case pubsub.KindSnapshotDeleted:
			log.Info(log.CatServer, "Snapshot deleted", "id", event.Payload.ID)
		}
	})
}
