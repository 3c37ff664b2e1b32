package server

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
)

// sessionRequest is what a connection asks for in its query string.
type sessionRequest struct {
	Model    string
	Channels audio.Channel
	Params   noisesuppression.Params
}

func (srv *Server) parseSessionRequest(query url.Values) (sessionRequest, error) {
	cfg := srv.Options.config()
	req := sessionRequest{
		Model:    cfg.DefaultModel,
		Channels: cfg.DefaultChannels,
		Params:   cfg.DefaultParams,
	}

	if v := query.Get("model"); v != "" {
		req.Model = v
	}
	if v := query.Get("channels"); v != "" {
		channels, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return req, fmt.Errorf("unable to parse channels '%s': %w", v, err)
		}
		if channels == 0 {
			return req, noisesuppression.ErrInvalidChannels{}
		}
		req.Channels = audio.Channel(channels)
	}
	if v := query.Get("vad_threshold"); v != "" {
		threshold, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return req, fmt.Errorf("unable to parse vad_threshold '%s': %w", v, err)
		}
		req.Params.VADThreshold = float32(threshold)
	}
	if v := query.Get("vad_release"); v != "" {
		release, err := time.ParseDuration(v)
		if err != nil {
			return req, fmt.Errorf("unable to parse vad_release '%s': %w", v, err)
		}
		req.Params.VADRelease = release
	}

	if err := req.Params.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// controlMessage is a text message a client may send mid-stream.
type controlMessage struct {
	Model *string `json:"model"`
}
