// Package server exposes noise suppression over websocket connections.
//
// Every connection gets its own MultiChannel engine configured by the query
// string (model, channels, vad_threshold, vad_release). Each binary message
// is one block of interleaved float32 little-endian samples and is answered
// with a denoised block of the same size. A text message {"model": "..."}
// switches the model without interrupting the stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
	"github.com/xaionaro-go/voicedenoise/pkg/pcm"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

const (
	PathDenoise = "/denoise"
	PathModels  = "/models"

	// MaxMessageSize limits a single audio block.
	MaxMessageSize = 1 << 22
)

type SessionID uint64

type Server struct {
	HTTPServer *http.Server
	Mux        *http.ServeMux
	IsStarted  bool

	BeltLocker xsync.Mutex
	Belt       *belt.Belt

	Factory denoiser.Factory
	Options Options

	NextSessionID  atomic.Uint64
	ActiveSessions atomic.Int64
	SessionsLimit  uint

	IdleCacheSize   uint
	IdleCacheLocker xsync.Mutex
	IdleCache       *lru.Cache[engineKey, *noisesuppression.MultiChannel]
}

type engineKey struct {
	Model    string
	Channels audio.Channel
}

// NewServer returns a server creating its denoisers with the given factory.
// Zero sessionsLimit means no limit; zero idleCacheSize disables the reuse
// of engines of closed connections.
func NewServer(
	factory denoiser.Factory,
	sessionsLimit uint,
	idleCacheSize uint,
	opts ...Option,
) *Server {
	srv := &Server{
		Mux:           http.NewServeMux(),
		Factory:       factory,
		Options:       opts,
		SessionsLimit: sessionsLimit,
		IdleCacheSize: idleCacheSize,
	}
	srv.Mux.HandleFunc(PathDenoise, srv.handleDenoise)
	srv.Mux.HandleFunc(PathModels, srv.handleModels)
	if idleCacheSize > 0 {
		cache, err := lru.New[engineKey, *noisesuppression.MultiChannel](int(idleCacheSize))
		if err != nil {
			panic(err)
		}
		srv.IdleCache = cache
	}
	return srv
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.Mux.ServeHTTP(w, r)
}

// Serve handles connections from the listener until ctx is cancelled or
// the server is closed.
func (srv *Server) Serve(
	ctx context.Context,
	listener net.Listener,
) error {
	if srv.IsStarted {
		panic("this server was already started at least once")
	}
	srv.IsStarted = true
	srv.BeltLocker.Do(ctx, func() {
		srv.Belt = belt.CtxBelt(ctx)
	})
	srv.HTTPServer = &http.Server{Handler: srv}

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	observability.Go(ctx, func() {
		<-ctx.Done()
		if err := srv.HTTPServer.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the HTTP server: %v", err)
		}
	})

	err := srv.HTTPServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops serving and releases all the idle engines.
func (srv *Server) Close() error {
	var mErr *multierror.Error
	if srv.HTTPServer != nil {
		if err := srv.HTTPServer.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the HTTP server: %w", err))
		}
	}
	if srv.IdleCache != nil {
		srv.IdleCacheLocker.Do(context.TODO(), func() {
			for _, key := range srv.IdleCache.Keys() {
				mc, ok := srv.IdleCache.Peek(key)
				if !ok {
					continue
				}
				if err := mc.Close(); err != nil {
					mErr = multierror.Append(mErr, fmt.Errorf("unable to close an idle engine %v: %w", key, err))
				}
			}
			srv.IdleCache.Purge()
		})
	}
	return mErr.ErrorOrNil()
}

func (srv *Server) belt() *belt.Belt {
	ctx := context.TODO()
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &srv.BeltLocker, func() *belt.Belt {
		return srv.Belt
	})
}

func (srv *Server) ctx(ctx context.Context) context.Context {
	b := srv.belt()
	if b == nil {
		return ctx
	}
	return belt.CtxWithBelt(ctx, b)
}

func (srv *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx := srv.ctx(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(denoiser.AvailableModels()); err != nil {
		logger.Errorf(ctx, "unable to send the list of models: %v", err)
	}
}

func (srv *Server) handleDenoise(w http.ResponseWriter, r *http.Request) {
	ctx := srv.ctx(r.Context())

	req, err := srv.parseSessionRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	active := srv.ActiveSessions.Add(1)
	defer srv.ActiveSessions.Add(-1)
	if srv.SessionsLimit > 0 && active > int64(srv.SessionsLimit) {
		http.Error(w, "too many sessions already open, please close previous sessions first", http.StatusServiceUnavailable)
		return
	}

	mc, err := srv.acquireEngine(ctx, req)
	if err != nil {
		logger.Errorf(ctx, "unable to create an engine for %#+v: %v", req, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer srv.releaseEngine(xcontext.DetachDone(ctx), req, mc)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Debugf(ctx, "unable to accept the websocket connection: %v", err)
		return
	}
	conn.SetReadLimit(MaxMessageSize)

	sessionID := SessionID(srv.NextSessionID.Add(1))
	cfg := srv.Options.config()
	cfg.Metrics.addSessions(ctx, 1)
	defer cfg.Metrics.addSessions(ctx, -1)
	logger.Debugf(ctx, "session %d started: %#+v", sessionID, req)

	err = srv.serveSession(ctx, conn, mc, req.Params)
	switch {
	case err == nil:
		conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) != -1:
		logger.Debugf(ctx, "session %d closed by the client: %v", sessionID, err)
	case errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusGoingAway, "")
	default:
		logger.Errorf(ctx, "session %d failed: %v", sessionID, err)
		var misaligned noisesuppression.ErrMisalignedBlock
		var truncated pcm.ErrTruncatedSample
		if errors.As(err, &misaligned) || errors.As(err, &truncated) {
			conn.Close(websocket.StatusUnsupportedData, truncate(err.Error()))
		} else {
			conn.Close(websocket.StatusInternalError, "")
		}
	}
}

func (srv *Server) serveSession(
	ctx context.Context,
	conn *websocket.Conn,
	mc *noisesuppression.MultiChannel,
	params noisesuppression.Params,
) error {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		switch msgType {
		case websocket.MessageBinary:
			samples, err := pcm.Samples(data)
			if err != nil {
				return err
			}
			if err := mc.ProcessInterleaved(ctx, samples, samples, params); err != nil {
				return err
			}
			if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
				return fmt.Errorf("unable to send the denoised block: %w", err)
			}
		case websocket.MessageText:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warnf(ctx, "unable to parse the control message '%s': %v", data, err)
				continue
			}
			if msg.Model != nil {
				mc.SetModel(ctx, *msg.Model)
			}
		}
	}
}

// acquireEngine takes an idle engine of a closed connection if there is a
// matching one, or creates a new one.
func (srv *Server) acquireEngine(
	ctx context.Context,
	req sessionRequest,
) (*noisesuppression.MultiChannel, error) {
	key := engineKey{Model: req.Model, Channels: req.Channels}
	mc := xsync.DoR1(ctx, &srv.IdleCacheLocker, func() *noisesuppression.MultiChannel {
		if srv.IdleCache == nil {
			return nil
		}
		mc, ok := srv.IdleCache.Peek(key)
		if !ok {
			return nil
		}
		srv.IdleCache.Remove(key)
		return mc
	})

	if mc != nil {
		logger.Debugf(ctx, "reusing an idle engine")
	} else {
		logger.Debugf(ctx, "initializing an engine from scratch")
		cfg := srv.Options.config()
		var err error
		mc, err = noisesuppression.NewMultiChannel(
			srv.Factory,
			req.Channels,
			append(
				noisesuppression.Options{noisesuppression.OptionModel(req.Model)},
				cfg.EngineOptions...,
			)...,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := mc.Init(ctx); err != nil {
		if closeErr := mc.Close(); closeErr != nil {
			logger.Errorf(ctx, "unable to close the engine: %v", closeErr)
		}
		return nil, err
	}
	return mc, nil
}

// releaseEngine resets the engine and keeps it for reuse, evicting the
// oldest idle engine if the cache is full.
func (srv *Server) releaseEngine(
	ctx context.Context,
	req sessionRequest,
	mc *noisesuppression.MultiChannel,
) {
	if srv.IdleCache == nil {
		logger.Debugf(ctx, "closing the engine")
		if err := mc.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the engine: %v", err)
		}
		return
	}

	mc.Reset(ctx)
	// the model might have been switched during the session
	mc.SetModel(ctx, req.Model)
	key := engineKey{Model: req.Model, Channels: req.Channels}
	srv.IdleCacheLocker.Do(ctx, func() {
		if old, ok := srv.IdleCache.Peek(key); ok {
			logger.Debugf(ctx, "closing a duplicate idle engine")
			if err := old.Close(); err != nil {
				logger.Errorf(ctx, "unable to close the engine: %v", err)
			}
			srv.IdleCache.Remove(key)
		}
		if srv.IdleCache.Len() >= int(srv.IdleCacheSize) {
			oldKey, old, ok := srv.IdleCache.GetOldest()
			if !ok {
				panic("impossible happened")
			}
			logger.Debugf(ctx, "closing an old idle engine")
			if err := old.Close(); err != nil {
				logger.Errorf(ctx, "unable to close the engine: %v", err)
			}
			srv.IdleCache.Remove(oldKey)
		}
		srv.IdleCache.Add(key, mc)
	})
}

// truncate fits a websocket close reason into a control frame.
func truncate(reason string) string {
	const maxReasonLen = 123
	if len(reason) > maxReasonLen {
		return reason[:maxReasonLen]
	}
	return reason
}
