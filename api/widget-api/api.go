// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package widget_api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"

	"github.com/rapidaai/quizcapture/config"
	internal_group "github.com/rapidaai/quizcapture/internal/group"
	internal_session "github.com/rapidaai/quizcapture/internal/session"
	internal_type "github.com/rapidaai/quizcapture/internal/type"
	"github.com/rapidaai/quizcapture/pkg/commons"
)

// WidgetApi exposes the recorder group over HTTP for the quiz host.
type WidgetApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	controller *internal_group.Controller
	hub        *EventHub
}

func New(cfg *config.AppConfig, logger commons.Logger, controller *internal_group.Controller, hub *EventHub) *WidgetApi {
	return &WidgetApi{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		hub:        hub,
	}
}

type registerRequest struct {
	Widgets []map[string]interface{} `json:"widgets" binding:"required"`
	Target  map[string]interface{}   `json:"target"`
}

type stopRequest struct {
	AutoAdvance *bool `json:"autoAdvance"`
}

// RegisterWidgets creates one session per widget config. The upload endpoint
// and size ceiling come from the agent config; the host supplies the
// draft-area identifiers per batch.
func (api *WidgetApi) RegisterWidgets(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := internal_type.UploadTarget{
		Endpoint:       api.cfg.Upload.Endpoint,
		MaxUploadBytes: api.cfg.Upload.MaxUploadBytes,
	}
	if req.Target != nil {
		if err := mapstructure.WeakDecode(req.Target, &target); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := api.controller.Register(req.Widgets, target); err != nil {
		if errors.Is(err, internal_group.ErrRecordingBlocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"widgets": api.controller.Snapshots()})
}

// ListWidgets reports the status of every registered widget.
func (api *WidgetApi) ListWidgets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"widgets": api.controller.Snapshots()})
}

// GetWidget reports a single widget's status.
func (api *WidgetApi) GetWidget(c *gin.Context) {
	s, ok := api.controller.Get(c.Param("widgetId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown widget"})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (api *WidgetApi) StartWidget(c *gin.Context) {
	api.withSession(c, func(s *internal_session.Session) error {
		return s.StartCapture(c.Request.Context())
	})
}

func (api *WidgetApi) ConfirmWidget(c *gin.Context) {
	api.withSession(c, func(s *internal_session.Session) error {
		return s.Confirm()
	})
}

func (api *WidgetApi) PauseWidget(c *gin.Context) {
	api.withSession(c, func(s *internal_session.Session) error {
		return s.Pause()
	})
}

func (api *WidgetApi) ResumeWidget(c *gin.Context) {
	api.withSession(c, func(s *internal_session.Session) error {
		return s.Resume()
	})
}

// StopWidget finalizes the attempt inline: the response carries the recorded
// snapshot once transcode and upload have finished.
func (api *WidgetApi) StopWidget(c *gin.Context) {
	autoAdvance := true
	var req stopRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.AutoAdvance != nil {
		autoAdvance = *req.AutoAdvance
	}
	api.withSession(c, func(s *internal_session.Session) error {
		return s.Stop(autoAdvance)
	})
}

func (api *WidgetApi) ResetWidget(c *gin.Context) {
	api.withSession(c, func(s *internal_session.Session) error {
		return s.Reset()
	})
}

// CanSubmit reports the aggregate submit-readiness plus the per-widget form
// values the host writes into its submission form.
func (api *WidgetApi) CanSubmit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"canSubmit": api.controller.CanSubmit(),
		"values":    api.controller.FormValues(),
	})
}

// Events upgrades to the one-way notification socket.
func (api *WidgetApi) Events(c *gin.Context) {
	api.hub.Serve(c)
}

func (api *WidgetApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": api.cfg.Name})
}

func (api *WidgetApi) withSession(c *gin.Context, op func(*internal_session.Session) error) {
	s, ok := api.controller.Get(c.Param("widgetId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown widget"})
		return
	}
	if err := op(s); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": s.State()})
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internal_session.ErrInvalidState),
		errors.Is(err, internal_session.ErrAcquireInProgress):
		return http.StatusConflict
	case errors.Is(err, internal_session.ErrPausingDisabled):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
