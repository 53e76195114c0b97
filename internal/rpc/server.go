// Package rpc implements the wallet's JSON-RPC server.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zecrocks/zallet-go/config"
	"github.com/zecrocks/zallet-go/internal/asyncop"
	klog "github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/wallet"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// LockState reports whether the keystore is unlocked.
type LockState interface {
	IsUnlocked() bool
}

// Deps are the components the server exposes.
type Deps struct {
	Wallet     *wallet.Wallet
	Operations *asyncop.Registry
	Keystore   LockState            // optional
	Metrics    *prometheus.Registry // nil disables /metrics
}

type handlerFunc func(s *Server, params json.RawMessage) (interface{}, *Error)

// Server is the JSON-RPC HTTP server.
type Server struct {
	binds       []string
	wallet      *wallet.Wallet
	ops         *asyncop.Registry
	keystore    LockState
	methods     map[string]handlerFunc
	requests    *prometheus.CounterVec
	server      *http.Server
	logger      zerolog.Logger
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.

	mu  sync.Mutex
	lns []net.Listener
	wg  sync.WaitGroup
}

// New creates an RPC server listening on every address in cfg.Bind.
func New(cfg config.RPCConfig, deps Deps) (*Server, error) {
	s := &Server{
		binds:       cfg.Bind,
		wallet:      deps.Wallet,
		ops:         deps.Operations,
		keystore:    deps.Keystore,
		methods:     methods(),
		logger:      klog.WithComponent("rpc"),
		allowedNets: parseAllowedIPs(cfg.AllowedIPs),
		corsOrigins: cfg.CORSOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	if deps.Metrics != nil {
		s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zallet",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and response code.",
		}, []string{"method", "code"})
		if err := deps.Metrics.Register(s.requests); err != nil {
			return nil, fmt.Errorf("register rpc metrics: %w", err)
		}
		if cfg.Metrics {
			mux.Handle("/metrics", s.filtered(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
		}
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultRPCTimeout * time.Second
	}
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	return s, nil
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start binds every listener and serves in background goroutines. It
// returns once all listeners are bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, addr := range s.binds {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range s.lns {
				l.Close()
			}
			s.lns = nil
			return fmt.Errorf("rpc listen %s: %w", addr, err)
		}
		s.lns = append(s.lns, ln)
	}
	for _, ln := range s.lns {
		ln := ln
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Err(err).Str("addr", ln.Addr().String()).Msg("RPC server error")
			}
		}()
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("RPC server listening")
	}
	return nil
}

// Addrs returns the bound listener addresses (useful when bound to :0).
func (s *Server) Addrs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lns))
	for i, ln := range s.lns {
		out[i] = ln.Addr().String()
	}
	return out
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	return err
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if !s.allowed(w, r) {
		return
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	// zcashd clients send "1.0" or nothing; accept both alongside "2.0".
	switch req.JSONRPC {
	case "", "1.0", "2.0":
	default:
		writeError(w, req.ID, CodeInvalidRequest, `jsonrpc must be "2.0"`)
		return
	}

	start := time.Now()
	result, rpcErr := s.dispatch(&req)
	s.observe(&req, rpcErr, time.Since(start))

	if rpcErr != nil {
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	h, ok := s.methods[req.Method]
	if !ok {
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
	return h(s, req.Params)
}

func (s *Server) observe(req *Request, rpcErr *Error, took time.Duration) {
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
	}
	method := req.Method
	if _, ok := s.methods[method]; !ok {
		method = "unknown"
	}
	if s.requests != nil {
		s.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	}
	ev := s.logger.Debug()
	if rpcErr != nil && (rpcErr.Code == CodeInternalError || rpcErr.Code == CodeDatabaseError) {
		ev = s.logger.Warn()
	}
	ev.Str("method", req.Method).Int("code", code).Dur("took", took).Msg("RPC request")
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// allowed applies IP filtering, writing a 403 when the peer is rejected.
func (s *Server) allowed(w http.ResponseWriter, r *http.Request) bool {
	if len(s.allowedNets) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if ip := net.ParseIP(host); ip != nil && s.isIPAllowed(ip) {
			return true
		}
	}
	http.Error(w, "forbidden", http.StatusForbidden)
	return false
}

func (s *Server) filtered(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowed(w, r) {
			h.ServeHTTP(w, r)
		}
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	// Check if origin is allowed.
	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}
