// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/mediabridge/internal/api"
	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/recommend"
	"github.com/tomtom215/mediabridge/internal/supervisor"
	"github.com/tomtom215/mediabridge/internal/supervisor/services"
)

// runServe starts the HTTP API under the supervisor tree:
//
//	mediabridge
//	├── data-layer
//	│   └── table-stats (refreshes database_table_rows)
//	└── api-layer
//	    └── http-server
func runServe(ctx context.Context, a *app, args []string) error {
	sc := &a.cfg.Server
	fs := newFlagSet(a, "serve")
	fs.StringVar(&sc.Host, "host", sc.Host, "listen host")
	fs.IntVar(&sc.Port, "port", sc.Port, "listen port")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

	engine, err := recommend.NewEngine(db, &a.cfg.Recommend)
	if err != nil {
		return err
	}

	handler := api.NewHandler(db, engine, sc, version)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(sc))

	srv := &http.Server{
		Addr:              net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)),
		Handler:           router.Setup(),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadTimeout,
		WriteTimeout:      sc.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = sc.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewStatsService(db, 0))
	tree.AddAPIService(services.NewHTTPServerService(srv, sc.ShutdownTimeout))

	logging.Info().
		Str("addr", srv.Addr).
		Str("version", version).
		Str("algorithm", a.cfg.Recommend.Algorithm).
		Msg("Starting HTTP API")

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down")
		err = <-errCh
	case err = <-errCh:
	}
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Server stopped")
	return nil
}
