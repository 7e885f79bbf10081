package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/btapmd/internal/airplane"
	"codeberg.org/mutker/btapmd/internal/bluetooth"
	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/radio"
	"codeberg.org/mutker/btapmd/internal/settings"
	"codeberg.org/mutker/btapmd/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	APIVersion     = "v1"
	DefaultAddress = "127.0.0.1:9133"

	defaultSessionLimit = 20
	maxSessionLimit     = 500
)

// Controller is the part of the airplane controller the API drives.
type Controller interface {
	Status() airplane.Status
	UserToggledBluetooth(bluetoothOn bool) error
}

// Adapter is the Bluetooth adapter owner.
type Adapter interface {
	State() bluetooth.State
	SetState(st bluetooth.State)
	SetProfileConnected(p bluetooth.Profile, connected bool)
	ConnectedProfiles() []bluetooth.Profile
}

// Deps are the components served by the API. Sessions may be nil when
// telemetry is disabled; RadioState may be empty to refuse airplane writes.
type Deps struct {
	Controller Controller
	Adapter    Adapter
	Settings   settings.Store
	Sessions   telemetry.Reader
	RadioState string
}

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the local control API and the metrics endpoint.
type Server struct {
	http   *http.Server
	deps   Deps
	logger logger.Logger
	opts   ServerOptions
}

func NewServer(deps Deps, opts ServerOptions, log logger.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		deps:   deps,
		logger: log,
		opts:   opts,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	prefix := "/" + APIVersion
	mux.HandleFunc("GET "+prefix+"/status", s.handleStatus)
	mux.HandleFunc("POST "+prefix+"/adapter", s.handleAdapter)
	mux.HandleFunc("POST "+prefix+"/media", s.handleMedia)
	mux.HandleFunc("POST "+prefix+"/toggle", s.handleToggle)
	mux.HandleFunc("POST "+prefix+"/airplane", s.handleAirplane)
	mux.HandleFunc("GET "+prefix+"/settings", s.handleGetSettings)
	mux.HandleFunc("PUT "+prefix+"/settings", s.handlePutSetting)
	mux.HandleFunc("GET "+prefix+"/sessions", s.handleSessions)

	return s.withLogging(mux)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.New().Wrap(ErrListen, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("API server shutdown error")
		}
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("API server listening")
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return errors.New().Wrap(ErrServe, err)
	}

	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": TimeNow().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:      s.deps.Controller.Status(),
		Adapter:     s.deps.Adapter.State().String(),
		Media:       []string{},
		GeneratedAt: TimeNow().UTC().Format(time.RFC3339),
	}
	for _, p := range s.deps.Adapter.ConnectedProfiles() {
		resp.Media = append(resp.Media, string(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdapter(w http.ResponseWriter, r *http.Request) {
	var req AdapterRequest
	if !decode(w, r, &req) {
		return
	}

	st, err := bluetooth.ParseState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.deps.Adapter.SetState(st)
	s.handleStatus(w, r)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	var req MediaRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := bluetooth.ParseProfile(req.Profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.deps.Adapter.SetProfileConnected(p, req.Connected)
	s.handleStatus(w, r)
}

// handleToggle is a user switching Bluetooth from the UI. The adapter only
// follows once the controller has accepted the toggle.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.deps.Controller.UserToggledBluetooth(req.BluetoothOn); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	st := bluetooth.StateOff
	if req.BluetoothOn {
		st = bluetooth.StateOn
	}
	s.deps.Adapter.SetState(st)

	writeJSON(w, http.StatusAccepted, map[string]bool{"bluetooth_on": req.BluetoothOn})
}

// handleAirplane rewrites the radio state file; the mode listener picks
// the change up like any other writer.
func (s *Server) handleAirplane(w http.ResponseWriter, r *http.Request) {
	if s.deps.RadioState == "" {
		writeError(w, http.StatusNotImplemented, errors.New().New(ErrNotSupported))
		return
	}

	var req AirplaneRequest
	if !decode(w, r, &req) {
		return
	}

	st := radio.State{Radios: req.Radios}
	if req.On {
		st.AirplaneModeOn = 1
	}
	if err := radio.WriteState(s.deps.RadioState, st); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"airplane_mode": st.Mode()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	scopeName := q.Get("scope")
	if scopeName == "" {
		scopeName = "global"
	}
	scope, err := settings.ParseScope(scopeName, s.deps.Controller.Status().User)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	name := q.Get("name")
	if name == "" {
		lister, ok := s.deps.Settings.(settings.Lister)
		if !ok {
			writeError(w, http.StatusNotImplemented, errors.New().New(ErrNotSupported))
			return
		}
		entries, err := lister.List(ctx, scope)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		views := make([]SettingView, 0, len(entries))
		for _, e := range entries {
			views = append(views, SettingView{Scope: e.Scope.String(), Name: e.Name, Value: e.Value})
		}
		writeJSON(w, http.StatusOK, views)
		return
	}

	def, _ := settings.Default(name)
	v, err := s.deps.Settings.GetInt(ctx, scope, name, def)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, SettingView{Scope: scope.String(), Name: name, Value: v})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var req SettingRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New().WithMessage(errors.ErrInvalidArgument, "name and value are required"))
		return
	}

	// The toast budget only moves forward through the throttle.
	if req.Name == settings.KeyToastCount {
		writeError(w, http.StatusBadRequest, errors.New().WithMessage(ErrReadOnlySetting, req.Name+" is read-only"))
		return
	}

	scope, err := settings.ParseScope(req.Scope, s.deps.Controller.Status().User)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.deps.Settings.PutInt(r.Context(), scope, req.Name, *req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info().
		Str("scope", scope.String()).
		Str("name", req.Name).
		Int("value", *req.Value).
		Msg("Setting updated through API")

	writeJSON(w, http.StatusOK, SettingView{Scope: scope.String(), Name: req.Name, Value: *req.Value})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeJSON(w, http.StatusOK, []SessionView{})
		return
	}

	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSessionLimit {
			writeError(w, http.StatusBadRequest,
				errors.New().WithMessage(errors.ErrInvalidArgument, "limit must be between 1 and "+strconv.Itoa(maxSessionLimit)))
			return
		}
		limit = n
	}

	reports, err := s.deps.Sessions.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]SessionView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, fromSessionReport(rep))
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := TimeNow()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Str("ua", r.UserAgent()).
			Msg("API request")
	})
}

// decode reads a strict JSON body and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{
			Error:     "invalid JSON: " + err.Error(),
			Timestamp: TimeNow().UTC().Format(time.RFC3339),
		})
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, APIError{
		Error:     err.Error(),
		Code:      string(errors.CodeOf(err)),
		Timestamp: TimeNow().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
