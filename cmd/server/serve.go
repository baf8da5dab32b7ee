package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	httpadapter "oversight/internal/adapters/http"
	"oversight/internal/adapters/ws"
	"oversight/internal/auth"
	"oversight/internal/domain"
	"oversight/internal/services/users"
	"oversight/internal/workers/expiry"
)

type serveOptions struct {
	BootstrapAdmin string
	// Out receives the bootstrap admin token.
	Out io.Writer
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the websocket hub and the expiry worker",
		Long: `Run the HTTP API, the websocket hub and the expiry worker.

Example:
  oversight serve --config ./config.yaml
  STORE=memory JWT_SECRET=dev oversight serve --bootstrap-admin admin@example.cm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.BootstrapAdmin, "bootstrap-admin", "", "create an admin with this email if it does not exist and print a token for it")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts serveOptions) error {
	e, err := openEnv(ctx, root)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg, log := e.cfg, e.log
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := ws.NewHub(cfg.NotifyBuffer, log)
	go hub.Run(ctx)

	svc, conv := buildServices(e.store, hub, log)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpire)
	authn := auth.NewAuthenticator(tokens, e.store.Users)

	if opts.BootstrapAdmin != "" {
		if err := bootstrapAdmin(ctx, e, tokens, opts.BootstrapAdmin, opts.Out); err != nil {
			return err
		}
	}

	worker := expiry.New(e.store.Expiry, conv, cfg.ExpiryBatch, 1, log)
	go worker.Run(ctx, cfg.ExpiryInterval)
	if cfg.ExpiryInterval > 0 {
		log.WithField("interval", cfg.ExpiryInterval).Info("expiry worker started")
	}

	api := httpadapter.New(svc, authn, httpadapter.Options{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
		Realtime:    hub.Handler(authn, cfg.CORSOrigins),
	})
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	log.WithField("addr", cfg.ListenAddr).Info("listening")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// bootstrapAdmin makes sure an admin account exists so a fresh memory store is usable.
// The token goes to out, never to the log.
func bootstrapAdmin(ctx context.Context, e *env, tokens *auth.Tokens, email string, out io.Writer) error {
	u, err := users.New(e.store.Users, e.store.Enterprises).Create(ctx, domain.UserInput{
		Name:  "Administrator",
		Email: email,
		Role:  domain.RoleAdmin,
	})
	switch {
	case domain.IsKind(err, domain.KindConflict):
		e.log.WithField("email", email).Info("bootstrap admin already exists")
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	token, err := tokens.Issue(u.ID)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"user": u.ID, "email": u.Email}).Info("bootstrap admin created")
	_, err = fmt.Fprintf(out, "bootstrap admin token: %s\n", token)
	return err
}
