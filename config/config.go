// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path"`

	Upload  UploadConfig  `mapstructure:"upload" validate:"required"`
	Capture CaptureConfig `mapstructure:"capture" validate:"required"`
}

// UploadConfig describes the quiz platform's draft-file endpoint the agent
// pushes finished artifacts to.
type UploadConfig struct {
	Endpoint       string        `mapstructure:"endpoint" validate:"required,url"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required"`
}

// CaptureConfig carries the capture defaults applied when a widget config
// leaves them unset.
type CaptureConfig struct {
	AudioSampleRate int `mapstructure:"audio_sample_rate" validate:"required,gt=0"`
	AudioChannels   int `mapstructure:"audio_channels" validate:"required,gt=0"`
	AudioBitRate    int `mapstructure:"audio_bitrate" validate:"required,gt=0"`
	VideoBitRate    int `mapstructure:"video_bitrate" validate:"required,gt=0"`
	VideoWidth      int `mapstructure:"video_width" validate:"required,gt=0"`
	VideoHeight     int `mapstructure:"video_height" validate:"required,gt=0"`
	TimesliceMs     int `mapstructure:"timeslice_ms" validate:"required,gt=0"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "quizcapture")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9190)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")

	v.SetDefault("UPLOAD__ENDPOINT", "http://localhost:9191/v1/draftfile")
	v.SetDefault("UPLOAD__MAX_UPLOAD_BYTES", 64*1024*1024)
	v.SetDefault("UPLOAD__REQUEST_TIMEOUT", "60s")

	v.SetDefault("CAPTURE__AUDIO_SAMPLE_RATE", 16000)
	v.SetDefault("CAPTURE__AUDIO_CHANNELS", 1)
	v.SetDefault("CAPTURE__AUDIO_BITRATE", 128000)
	v.SetDefault("CAPTURE__VIDEO_BITRATE", 2500000)
	v.SetDefault("CAPTURE__VIDEO_WIDTH", 640)
	v.SetDefault("CAPTURE__VIDEO_HEIGHT", 480)
	v.SetDefault("CAPTURE__TIMESLICE_MS", 200)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
