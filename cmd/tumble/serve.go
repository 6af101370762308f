package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cfoust/tumble/pkg/config"
	"github.com/cfoust/tumble/pkg/ingress"
	"github.com/cfoust/tumble/pkg/state"
	"github.com/cfoust/tumble/pkg/table"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

func serve(configs []string) error {
	config, err := config.Process(configs)
	if err != nil {
		return fmt.Errorf("failed to load tumble configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller, err := table.NewController(ctx, config.Table)
	if err != nil {
		return err
	}

	wsIngress := ingress.NewWSIngress(controller, config.Ingress)

	broadcasts := controller.Subscribe()
	defer broadcasts.Done()
	go wsIngress.Poll(ctx, broadcasts.Recv())

	results := opt.None[ResultStore]()
	if config.Redis.Enabled {
		stateService := state.NewStateService(config.Redis)
		defer stateService.Close()

		err = stateService.Ping(ctx)
		if err != nil {
			return err
		}

		announcements := controller.Subscribe()
		defer announcements.Done()
		go stateService.Poll(ctx, announcements.Recv(), controller, wsIngress.NumClients)

		results = opt.Some[ResultStore](stateService)

		log.Info().Str("address", config.Redis.Address).Msg("announcing results to redis")
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", wsIngress)
	mux.Handle("/api/table", StatusHandler(controller, wsIngress.NumClients, results))

	address := fmt.Sprintf("%s:%d", config.Server.Address, config.Server.Port)
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", address, err)
	}

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Msgf("listening on http://%v", listen.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(listen)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to serve")
		}
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer done()

	err = controller.Shutdown(shutdownCtx)
	if err != nil {
		log.Warn().Err(err).Msg("tick loop did not stop in time")
	}

	cancel()
	return httpServer.Shutdown(shutdownCtx)
}
