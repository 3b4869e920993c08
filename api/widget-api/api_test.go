// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package widget_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/quizcapture/config"
	internal_capture "github.com/rapidaai/quizcapture/internal/capture"
	internal_group "github.com/rapidaai/quizcapture/internal/group"
	internal_pipeline "github.com/rapidaai/quizcapture/internal/pipeline"
	internal_type "github.com/rapidaai/quizcapture/internal/type"
	"github.com/rapidaai/quizcapture/pkg/commons"
)

type okCapability struct{}

func (okCapability) SecureContext() bool    { return true }
func (okCapability) CaptureSupported() bool { return true }

type stubProcessor struct{}

func (stubProcessor) Process(_ context.Context, _ []byte, _ string, cfg internal_type.WidgetConfig, _ internal_capture.Settings, _ internal_type.UploadTarget, _ internal_pipeline.PhaseProgress) (string, error) {
	return cfg.RecordingFilename + ".wav", nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *internal_group.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := commons.NewApplicationLogger(commons.Name("test-widget-api"), commons.Level("debug"))
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Name: "quizcapture-test",
		Upload: config.UploadConfig{
			Endpoint:       "http://localhost/upload",
			MaxUploadBytes: 1 << 20,
		},
	}
	controller := internal_group.NewController(
		logger,
		okCapability{},
		internal_capture.NewSyntheticProvider(logger),
		stubProcessor{},
		internal_type.NopNotifier{},
		internal_capture.Defaults{
			AudioSampleRate: 16000,
			AudioChannels:   1,
			AudioBitRate:    128000,
			VideoBitRate:    2500000,
			VideoWidth:      640,
			VideoHeight:     480,
			TimesliceMs:     200,
		},
	)

	api := New(cfg, logger, controller, NewEventHub(logger))
	engine := gin.New()
	engine.GET("/healthz", api.Healthz)
	v1 := engine.Group("v1")
	{
		v1.POST("/widgets", api.RegisterWidgets)
		v1.GET("/widgets", api.ListWidgets)
		v1.GET("/widgets/:widgetId", api.GetWidget)
		v1.POST("/widgets/:widgetId/start", api.StartWidget)
		v1.POST("/widgets/:widgetId/confirm", api.ConfirmWidget)
		v1.POST("/widgets/:widgetId/pause", api.PauseWidget)
		v1.POST("/widgets/:widgetId/resume", api.ResumeWidget)
		v1.POST("/widgets/:widgetId/stop", api.StopWidget)
		v1.POST("/widgets/:widgetId/reset", api.ResetWidget)
		v1.GET("/group/cansubmit", api.CanSubmit)
	}
	return engine, controller
}

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func registerBody(widgets ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"widgets": widgets,
		"target": map[string]interface{}{
			"contextId":   "77",
			"draftAreaId": "12",
			"itemId":      "3",
		},
	}
}

func audioWidget(id string) map[string]interface{} {
	return map[string]interface{}{
		"widgetId":           id,
		"mediaKind":          "audio",
		"maxDurationSeconds": 60,
		"allowPausing":       true,
	}
}

func TestHealthz(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := do(t, engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndList(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := do(t, engine, http.MethodPost, "/v1/widgets", registerBody(audioWidget("q1")))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodGet, "/v1/widgets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Widgets []struct {
			WidgetID string `json:"widgetId"`
			State    string `json:"state"`
		} `json:"widgets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Widgets, 1)
	assert.Equal(t, "q1", resp.Widgets[0].WidgetID)
	assert.Equal(t, "new", resp.Widgets[0].State)
}

func TestRegisterRejectsUnknownKind(t *testing.T) {
	engine, _ := newTestEngine(t)

	bad := audioWidget("q1")
	bad["mediaKind"] = "hologram"
	w := do(t, engine, http.MethodPost, "/v1/widgets", registerBody(bad))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownWidgetIs404(t *testing.T) {
	engine, _ := newTestEngine(t)
	w := do(t, engine, http.MethodPost, "/v1/widgets/ghost/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordOverHTTP(t *testing.T) {
	engine, controller := newTestEngine(t)
	require.Equal(t, http.StatusCreated,
		do(t, engine, http.MethodPost, "/v1/widgets", registerBody(audioWidget("q1"))).Code)

	w := do(t, engine, http.MethodPost, "/v1/widgets/q1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodPost, "/v1/widgets/q1/stop", map[string]interface{}{"autoAdvance": true})
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		State          string `json:"state"`
		StoredFilename string `json:"storedFilename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "recorded", snap.State)
	assert.Equal(t, "recording_q1.wav", snap.StoredFilename)
	assert.True(t, controller.CanSubmit())

	w = do(t, engine, http.MethodGet, "/v1/group/cansubmit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agg struct {
		CanSubmit bool              `json:"canSubmit"`
		Values    map[string]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agg))
	assert.True(t, agg.CanSubmit)
	assert.Equal(t, "recording_q1.wav", agg.Values["q1"])
}

func TestStopWhileIdleConflicts(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.Equal(t, http.StatusCreated,
		do(t, engine, http.MethodPost, "/v1/widgets", registerBody(audioWidget("q1"))).Code)

	w := do(t, engine, http.MethodPost, "/v1/widgets/q1/stop", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPauseDisabledIsForbidden(t *testing.T) {
	engine, _ := newTestEngine(t)
	widget := audioWidget("q1")
	widget["allowPausing"] = false
	require.Equal(t, http.StatusCreated,
		do(t, engine, http.MethodPost, "/v1/widgets", registerBody(widget)).Code)
	require.Equal(t, http.StatusOK,
		do(t, engine, http.MethodPost, "/v1/widgets/q1/start", nil).Code)

	w := do(t, engine, http.MethodPost, "/v1/widgets/q1/pause", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
