package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/structview/pkg/compose"
	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/pipeline"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/session"
)

type layoutInfo struct {
	Name    string        `json:"name"`
	Options model.Options `json:"options"`
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	reg := builtin.Registry()
	out := []layoutInfo{}
	for _, name := range reg.Names() {
		alg, _ := reg.Get(name)
		out = append(out, layoutInfo{Name: name, Options: alg.DefineOptions()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRender replays a frame sequence through the cached pipeline and
// returns one artifact.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		Config:   s.cfg,
		Formats:  []string{format},
		Nodelink: q.Get("nodelink") == "true",
		Logger:   s.logger,
	}
	if v := q.Get("frame"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid frame"))
			return
		}
		opts.Frame = n
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid scale"))
			return
		}
		opts.Scale = f
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}

	frames, err := pipeline.Decode(r.Context(), s.body(w, r))
	if err != nil {
		writeError(w, inputError(err))
		return
	}
	if len(frames) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no frames"))
		return
	}

	result, err := s.runner.Execute(r.Context(), frames, opts)
	if err != nil {
		writeError(w, inputError(err))
		return
	}

	cache := "miss"
	if result.CacheInfo.RenderHit {
		cache = "hit"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cache)
	w.Header().Set("X-Scene-Key", result.SceneKey)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// createRequest overrides the configured canvas for one session.
type createRequest struct {
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Policy    string  `json:"policy,omitempty"`
	FitCenter *bool   `json:"fit_center,omitempty"`
}

type sessionInfo struct {
	ID        string          `json:"id"`
	Engine    string          `json:"engine"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Frames    int             `json:"frames"`
	LeakArea  engine.LeakArea `json:"leak_area"`
	Leaked    int             `json:"leaked"`
}

func infoOf(sess *session.Session) sessionInfo {
	return sessionInfo{
		ID:        sess.ID,
		Engine:    sess.Engine.ID(),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt(),
		Frames:    sess.Frames(),
		LeakArea:  sess.Engine.LeakArea(),
		Leaked:    len(sess.Engine.Leaked()),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
			return
		}
	}

	cfg := s.cfg.Engine()
	if req.Width > 0 {
		cfg.Compose.Width = req.Width
	}
	if req.Height > 0 {
		cfg.Compose.Height = req.Height
	}
	if req.Policy != "" {
		cfg.Compose.Policy = compose.Policy(req.Policy)
	}
	if req.FitCenter != nil {
		cfg.Compose.FitCenter = *req.FitCenter
	}

	sess, err := session.New(engine.Options{Config: cfg, Logger: s.logger}, s.cfg.Server.SessionTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	observability.HTTP().OnSession(r.Context(), 1)
	s.logger.Debug("session created", "id", sess.ID)

	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, infoOf(sess))
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoOf(sessionFrom(r)))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, err)
		return
	}
	observability.HTTP().OnSession(r.Context(), -1)
	w.WriteHeader(http.StatusNoContent)
}

// handleFrames renders one frame or a sequence in order and returns the
// final scene. On failure the session keeps the last good scene and the
// response names the failing frame.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	frames, err := pipeline.Decode(r.Context(), s.body(w, r))
	if err != nil {
		writeError(w, inputError(err))
		return
	}
	if len(frames) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no frames"))
		return
	}

	var scene *render.Scene
	for i, f := range frames {
		scene, err = sess.Engine.Render(r.Context(), f)
		if err != nil {
			if len(frames) > 1 {
				err = fmt.Errorf("frame %d: %w", i, err)
			}
			writeError(w, err)
			return
		}
		sess.CountFrame()
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene := sessionFrom(r).Engine.Scene()
	if scene == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no frame has been rendered"))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, scene)
		return
	}
	opts := pipeline.Options{
		Config:   s.cfg,
		Formats:  []string{format},
		Nodelink: r.URL.Query().Get("nodelink") == "true",
		Logger:   s.logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid format"))
		return
	}
	data, err := pipeline.Render(r.Context(), scene, format, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	els := sessionFrom(r).Engine.Elements(r.URL.Query().Get("group"))
	writeJSON(w, http.StatusOK, items(els))
}

func (s *Server) handleElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "source")
	el, ok := sessionFrom(r).Engine.SelectElement(id)
	if !ok {
		writeError(w, &errors.Error{Code: errors.ErrCodeNotFound, Message: "no element for source id", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, render.ItemOf(el))
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, items(sessionFrom(r).Engine.Links(r.URL.Query().Get("group"))))
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, items(sessionFrom(r).Engine.Markers(r.URL.Query().Get("group"))))
}

func (s *Server) handleLeaked(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, items(sessionFrom(r).Engine.Leaked()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid since"))
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, sessionFrom(r).Events.Since(since))
}

type hideRequest struct {
	Patterns []string `json:"patterns"`
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	var req hideRequest
	if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	scene, err := sessionFrom(r).Engine.HideGroups(req.Patterns...)
	s.writeScene(w, scene, err)
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	scene, err := sessionFrom(r).Engine.Resize(req.Width, req.Height)
	s.writeScene(w, scene, err)
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	scene, err := sessionFrom(r).Engine.Relayout()
	s.writeScene(w, scene, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Engine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// writeScene answers operations that recompose the scene. Without a
// rendered frame there is nothing to return.
func (s *Server) writeScene(w http.ResponseWriter, scene *render.Scene, err error) {
	switch {
	case err != nil:
		writeError(w, err)
	case scene == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, scene)
	}
}

func (s *Server) body(w http.ResponseWriter, r *http.Request) io.Reader {
	return http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBody)
}

// inputError marks uncoded decode failures as bad input.
func inputError(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid frames")
}

func items[M model.Model](models []M) []render.Item {
	out := make([]render.Item, len(models))
	for i, m := range models {
		out[i] = render.ItemOf(m)
	}
	return out
}
