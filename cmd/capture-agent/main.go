// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	captureRouters "github.com/rapidaai/quizcapture/api/routers"
	widgetApi "github.com/rapidaai/quizcapture/api/widget-api"
	"github.com/rapidaai/quizcapture/config"
	internal_capture "github.com/rapidaai/quizcapture/internal/capture"
	internal_group "github.com/rapidaai/quizcapture/internal/group"
	internal_pipeline "github.com/rapidaai/quizcapture/internal/pipeline"
	"github.com/rapidaai/quizcapture/pkg/commons"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("init config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Level(cfg.LogLevel),
		commons.Path(cfg.LogPath),
	)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger.Infof("%s %s starting", cfg.Name, cfg.Version)

	hub := widgetApi.NewEventHub(logger)
	provider := internal_capture.NewSyntheticProvider(logger)
	capability := internal_capture.NewEndpointCapability(cfg.Upload.Endpoint, provider)

	registry := internal_pipeline.NewRegistry(logger)
	uploader := internal_pipeline.NewUploader(logger, cfg.Upload.RequestTimeout)
	pipeline := internal_pipeline.NewPipeline(logger, registry, uploader)

	controller := internal_group.NewController(logger, capability, provider, pipeline, hub, internal_capture.Defaults{
		AudioSampleRate: cfg.Capture.AudioSampleRate,
		AudioChannels:   cfg.Capture.AudioChannels,
		AudioBitRate:    cfg.Capture.AudioBitRate,
		VideoBitRate:    cfg.Capture.VideoBitRate,
		VideoWidth:      cfg.Capture.VideoWidth,
		VideoHeight:     cfg.Capture.VideoHeight,
		TimesliceMs:     cfg.Capture.TimesliceMs,
	})
	defer controller.Close()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	captureRouters.WidgetApiRoute(cfg, engine, logger, controller, hub)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("capture agent listening on %s", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("capture agent exited: %v", err)
	}
}
