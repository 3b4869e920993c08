// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package capture_routers

import (
	"github.com/gin-gonic/gin"

	widgetApi "github.com/rapidaai/quizcapture/api/widget-api"
	"github.com/rapidaai/quizcapture/config"
	internal_group "github.com/rapidaai/quizcapture/internal/group"
	"github.com/rapidaai/quizcapture/pkg/commons"
)

// WidgetApiRoute wires the recorder group API onto the engine.
func WidgetApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	controller *internal_group.Controller,
	hub *widgetApi.EventHub,
) {
	logger.Info("widget api routes added to engine")
	api := widgetApi.New(cfg, logger, controller, hub)

	engine.GET("/healthz", api.Healthz)

	apiv1 := engine.Group("v1")
	{
		apiv1.POST("/widgets", api.RegisterWidgets)
		apiv1.GET("/widgets", api.ListWidgets)
		apiv1.GET("/widgets/:widgetId", api.GetWidget)
		apiv1.POST("/widgets/:widgetId/start", api.StartWidget)
		apiv1.POST("/widgets/:widgetId/confirm", api.ConfirmWidget)
		apiv1.POST("/widgets/:widgetId/pause", api.PauseWidget)
		apiv1.POST("/widgets/:widgetId/resume", api.ResumeWidget)
		apiv1.POST("/widgets/:widgetId/stop", api.StopWidget)
		apiv1.POST("/widgets/:widgetId/reset", api.ResetWidget)
		apiv1.GET("/group/cansubmit", api.CanSubmit)
		apiv1.GET("/events", api.Events)
	}
}
