package server

import (
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/apmwire/internal/auth"
	"github.com/danmuck/apmwire/internal/codec"
	"github.com/danmuck/apmwire/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type encodeRequest struct {
	Records []codec.Record `json:"records"`
}

type decodeResponse struct {
	Count   int            `json:"count"`
	Bytes   int            `json:"bytes"`
	Records []codec.Record `json:"records"`
}

type encodeResponse struct {
	Count int    `json:"count"`
	Bytes int    `json:"bytes"`
	Hex   string `json:"hex"`
}

func (s *Inspector) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": "0.1.0",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
		})
	})

	v1 := s.router.Group("/v1")
	if s.auth != nil {
		v1.Use(auth.RequireBearer(s.auth))
	}
	v1.POST("/decode", s.handleDecode)
	v1.POST("/encode", s.handleEncode)
}

// handleDecode accepts raw bytes, or hex text with ?format=hex.
func (s *Inspector) handleDecode(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxBodyBytes))
	if err != nil {
		respondBodyError(c, err)
		return
	}
	if strings.EqualFold(c.Query("format"), "hex") {
		body, err = hex.DecodeString(strings.TrimSpace(string(body)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hex body: " + err.Error()})
			return
		}
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}

	msgs, err := s.codec.DecodeStream(body)
	if err != nil {
		respondDecodeError(c, err)
		return
	}
	records, err := codec.Views(msgs)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decodeResponse{Count: len(records), Bytes: len(body), Records: records})
}

func (s *Inspector) handleEncode(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxBodyBytes)
	var req encodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBodyError(c, err)
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no records"})
		return
	}

	msgs := make([]protocol.Message, 0, len(req.Records))
	for _, rec := range req.Records {
		msg, err := rec.Message()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		msgs = append(msgs, msg)
	}
	out, err := s.codec.EncodeStream(msgs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, encodeResponse{Count: len(msgs), Bytes: len(out), Hex: hex.EncodeToString(out)})
}

func respondBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respondDecodeError(c *gin.Context, err error) {
	resp := gin.H{"error": err.Error()}
	var decErr protocol.DecodeError
	if errors.As(err, &decErr) {
		resp["field"] = decErr.Field
		resp["bit_offset"] = decErr.Offset
	}
	c.JSON(http.StatusBadRequest, resp)
}
