// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// devserver is a local stand-in for the quiz platform's draft-file endpoint.
// It accepts the agent's multipart uploads, enforces a size ceiling with the
// platform's error-code contract and stores artifacts in a scratch directory.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rapidaai/quizcapture/pkg/commons"
	"github.com/rapidaai/quizcapture/pkg/utils"
)

const defaultMaxUploadBytes = 64 * 1024 * 1024

func main() {
	addr := envOr("DEVSERVER_ADDR", ":9191")
	dir := envOr("DEVSERVER_DIR", filepath.Join(os.TempDir(), "quizcapture-drafts"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("scratch dir: %v", err)
	}

	logger, err := commons.NewApplicationLogger(commons.Name("devserver"), commons.Level("debug"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/v1/draftfile", func(c *gin.Context) {
		file, header, err := c.Request.FormFile("repo_upload_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload file", "errorcode": "nofile"})
			return
		}
		defer file.Close()

		if header.Size > defaultMaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "file too large",
				"errorcode": "upload_error_size",
			})
			return
		}

		name := utils.SanitizeFilename(c.PostForm("filename"))
		if name == "" {
			name = utils.SanitizeFilename(header.Filename)
		}
		stored := uuid.NewString() + "_" + name
		path := filepath.Join(dir, stored)

		out, err := os.Create(path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "errorcode": "storage"})
			return
		}
		defer out.Close()
		written, err := io.Copy(out, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "errorcode": "storage"})
			return
		}

		logger.Infof("stored %s (%s) for context=%s draftarea=%s item=%s",
			stored, utils.HumanBytes(written),
			c.PostForm("contextid"), c.PostForm("draftareaid"), c.PostForm("itemid"))

		c.JSON(http.StatusOK, gin.H{
			"url":  fmt.Sprintf("http://%s/drafts/%s", c.Request.Host, stored),
			"file": stored,
		})
	})

	engine.Static("/drafts", dir)

	logger.Infof("devserver listening on %s, storing drafts in %s", addr, dir)
	if err := engine.Run(addr); err != nil {
		logger.Errorf("devserver exited: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
