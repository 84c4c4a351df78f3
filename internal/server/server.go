// Package server exposes the codec over HTTP for debugging producers:
// raw or hex bytes in, decoded records out, and the reverse.
package server

import (
	"time"

	"github.com/danmuck/apmwire/internal/auth"
	"github.com/danmuck/apmwire/internal/codec"
	"github.com/danmuck/apmwire/internal/config"
	"github.com/danmuck/apmwire/internal/node"
	"github.com/danmuck/apmwire/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Inspector struct {
	Name         string    `json:"name"`
	Addr         string    `json:"addr"`
	MaxBodyBytes int64     `json:"max_body_bytes"`
	Appeared     time.Time `json:"appeared"`

	codec  *codec.Codec
	router *gin.Engine
	auth   auth.Validator
}

var _ node.Node = (*Inspector)(nil)

func Appear(cfg config.ServerConfig) *Inspector {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, cfg.Name))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = config.DefaultMaxBodyBytes
	}
	var validator auth.Validator
	if cfg.AuthToken != "" {
		validator = auth.StaticToken{Token: cfg.AuthToken}
	}
	return &Inspector{
		Name:         cfg.Name,
		Addr:         cfg.Addr,
		MaxBodyBytes: maxBody,
		Appeared:     time.Now(),
		codec:        codec.New(log.Logger),
		router:       r,
		auth:         validator,
	}
}

func (s *Inspector) NodeID() string {
	return s.Name
}

func (s *Inspector) Kind() string {
	return "inspector"
}

func (s *Inspector) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Inspector) Serve() error {
	s.RegisterRoutes()
	log.Info().Str("name", s.Name).Str("addr", s.Addr).Msg("inspector listening")
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
