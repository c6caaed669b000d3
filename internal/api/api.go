/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes internal/session.Session as a JSON control plane
// over chi, authorized by internal/auth bearer tokens. Every handler
// mutates the Session directly, which enqueues the equivalent command for
// the audio thread — the HTTP layer never talks to the engine directly.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/friendsincode/hyasynth/internal/arrangement"
	"github.com/friendsincode/hyasynth/internal/auth"
	"github.com/friendsincode/hyasynth/internal/bridge"
	"github.com/friendsincode/hyasynth/internal/ids"
	"github.com/friendsincode/hyasynth/internal/samplepool"
	"github.com/friendsincode/hyasynth/internal/session"
	"github.com/friendsincode/hyasynth/internal/telemetry"
)

// API bundles everything needed to mount routes for one running session.
type API struct {
	session   *session.Session
	samples   *samplepool.FilesystemLoader
	metrics   *telemetry.Metrics
	registry  *prometheus.Registry
	jwtSecret []byte
	logger    zerolog.Logger
}

// New returns an API bound to a single session. samples may be nil if the
// deployment has no local sample directory configured (only remote S3
// loading is used from elsewhere).
func New(sess *session.Session, samples *samplepool.FilesystemLoader, metrics *telemetry.Metrics, reg *prometheus.Registry, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{session: sess, samples: samples, metrics: metrics, registry: reg, jwtSecret: jwtSecret, logger: logger.With().Str("component", "api").Logger()}
}

// Routes mounts every handler on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.handleHealth)
	if a.registry != nil {
		r.Handle("/metrics", telemetry.Handler(a.registry))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(a.jwtSecret))

		pr.Get("/sessions/current", a.handleSessionSnapshot)
		pr.Get("/sessions/current/readback", a.handleReadback)
		if a.metrics != nil {
			pr.Handle("/sessions/current/meter", telemetry.NewMeterSocket(readbackAdapter{a.session}, telemetry.DefaultMeterInterval, a.logger))
		}

		pr.Group(func(wr chi.Router) {
			wr.Use(auth.RequireRole(auth.RoleOperator))

			wr.Post("/sessions/current/nodes", a.handleAddNode)
			wr.Delete("/sessions/current/nodes/{nodeID}", a.handleRemoveNode)
			wr.Post("/sessions/current/connections", a.handleConnect)
			wr.Delete("/sessions/current/connections", a.handleDisconnect)
			wr.Put("/sessions/current/output/{nodeID}", a.handleSetOutput)
			wr.Put("/sessions/current/params/{nodeID}/{param}", a.handleSetParam)
			wr.Delete("/sessions/current/graph", a.handleClearGraph)

			wr.Post("/sessions/current/tracks", a.handleCreateTrack)
			wr.Delete("/sessions/current/tracks/{trackID}", a.handleDeleteTrack)
			wr.Put("/sessions/current/tracks/{trackID}/target", a.handleSetTrackTarget)
			wr.Put("/sessions/current/tracks/{trackID}/volume", a.handleSetTrackVolume)
			wr.Put("/sessions/current/tracks/{trackID}/pan", a.handleSetTrackPan)
			wr.Put("/sessions/current/tracks/{trackID}/mute", a.handleSetTrackMute)
			wr.Put("/sessions/current/tracks/{trackID}/solo", a.handleSetTrackSolo)

			wr.Post("/sessions/current/transport/play", a.handlePlay)
			wr.Post("/sessions/current/transport/stop", a.handleStop)
			wr.Put("/sessions/current/transport/tempo", a.handleSetTempo)
			wr.Put("/sessions/current/transport/seek", a.handleSeek)

			wr.Post("/sessions/current/clips", a.handleCreateClip)
			wr.Delete("/sessions/current/clips/{clipID}", a.handleDeleteClip)
			wr.Post("/sessions/current/clips/{clipID}/notes", a.handleAddNote)
			wr.Post("/sessions/current/clips/{clipID}/notes/bulk", a.handleAddNotesBulk)
			wr.Post("/sessions/current/clips/{clipID}/clear", a.handleClearClip)

			wr.Post("/sessions/current/scenes/{scene}/launch", a.handleLaunchScene)
			wr.Post("/sessions/current/tracks/{trackID}/clip/{scene}/launch", a.handleLaunchClip)
			wr.Post("/sessions/current/tracks/{trackID}/clip/stop", a.handleStopClip)
			wr.Post("/sessions/current/clips/stop-all", a.handleStopAllClips)

			wr.Post("/sessions/current/tracks/{trackID}/note-on", a.handleNoteOn)
			wr.Post("/sessions/current/tracks/{trackID}/note-off", a.handleNoteOff)

			wr.Post("/sessions/current/samples", a.handleLoadSample)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        a.session.ID,
		"name":      a.session.Name,
		"transport": a.session.Transport,
	})
}

func (a *API) handleReadback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Readback())
}

type addNodeRequest struct {
	TypeID ids.NodeTypeID `json:"type_id"`
	X      float32        `json:"x"`
	Y      float32        `json:"y"`
}

func (a *API) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := a.session.AddNode(req.TypeID, req.X, req.Y)
	writeJSON(w, http.StatusCreated, map[string]ids.NodeID{"node_id": id})
}

func (a *API) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "nodeID")
	if !ok {
		return
	}
	a.session.RemoveNode(ids.NodeID(id))
	w.WriteHeader(http.StatusNoContent)
}

type connectionRequest struct {
	SrcNode ids.NodeID `json:"src_node"`
	SrcPort int        `json:"src_port"`
	DstNode ids.NodeID `json:"dst_node"`
	DstPort int        `json:"dst_port"`
}

func (a *API) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.Connect(req.SrcNode, req.SrcPort, req.DstNode, req.DstPort)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.Disconnect(req.DstNode, req.DstPort)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetOutput(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "nodeID")
	if !ok {
		return
	}
	a.session.SetOutput(ids.NodeID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetParam(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := parseUintParam(w, r, "nodeID")
	if !ok {
		return
	}
	paramID, ok := parseUintParam(w, r, "param")
	if !ok {
		return
	}
	var req struct {
		Value float32 `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetParam(ids.NodeID(nodeID), ids.ParamID(paramID), req.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleClearGraph(w http.ResponseWriter, r *http.Request) {
	a.session.ClearGraph()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := a.session.CreateTrack(req.Name)
	writeJSON(w, http.StatusCreated, map[string]ids.TrackID{"track_id": id})
}

func (a *API) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	a.session.DeleteTrack(ids.TrackID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTrackTarget(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Target ids.NodeID `json:"target"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTrackTarget(ids.TrackID(trackID), req.Target)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTrackVolume(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Volume float32 `json:"volume"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTrackVolume(ids.TrackID(trackID), req.Volume)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTrackPan(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Pan float32 `json:"pan"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTrackPan(ids.TrackID(trackID), req.Pan)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTrackMute(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Mute bool `json:"mute"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTrackMute(ids.TrackID(trackID), req.Mute)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTrackSolo(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Solo bool `json:"solo"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTrackSolo(ids.TrackID(trackID), req.Solo)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePlay(w http.ResponseWriter, r *http.Request) {
	a.session.Play()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleStop(w http.ResponseWriter, r *http.Request) {
	a.session.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetTempo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BPM float64 `json:"bpm"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.SetTempo(req.BPM)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Beat float64 `json:"beat"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.Seek(req.Beat)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateClip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		LengthBeats float64 `json:"length_beats"`
		Loop        bool    `json:"loop"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := a.session.CreateClip(req.Name, req.LengthBeats, req.Loop)
	writeJSON(w, http.StatusCreated, map[string]ids.ClipID{"clip_id": id})
}

func (a *API) handleDeleteClip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "clipID")
	if !ok {
		return
	}
	a.session.DeleteClip(ids.ClipID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddNote(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseUintParam(w, r, "clipID")
	if !ok {
		return
	}
	var req struct {
		Note      uint8   `json:"note"`
		Velocity  float32 `json:"velocity"`
		StartBeat float64 `json:"start_beat"`
		DurBeats  float64 `json:"dur_beats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.AddNote(ids.ClipID(clipID), req.Note, req.Velocity, req.StartBeat, req.DurBeats)
	w.WriteHeader(http.StatusNoContent)
}

// handleAddNotesBulk takes the double-buffer path (Session.AddNotesBulk)
// instead of one command per note, for pasting or importing a whole
// pattern at once.
func (a *API) handleAddNotesBulk(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseUintParam(w, r, "clipID")
	if !ok {
		return
	}
	var req []struct {
		Note      uint8   `json:"note"`
		Velocity  float32 `json:"velocity"`
		StartBeat float64 `json:"start_beat"`
		DurBeats  float64 `json:"dur_beats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	notes := make([]arrangement.NoteEvent, len(req))
	for i, n := range req {
		notes[i] = arrangement.NoteEvent{
			StartBeat: n.StartBeat, DurationBeats: n.DurBeats,
			Note: n.Note, Velocity: n.Velocity,
		}
	}
	a.session.AddNotesBulk(ids.ClipID(clipID), notes)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleClearClip(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, "clipID")
	if !ok {
		return
	}
	a.session.ClearClip(ids.ClipID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLaunchScene(w http.ResponseWriter, r *http.Request) {
	scene, ok := parseUintParam(w, r, "scene")
	if !ok {
		return
	}
	a.session.LaunchScene(int(scene))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLaunchClip(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	scene, ok := parseUintParam(w, r, "scene")
	if !ok {
		return
	}
	a.session.LaunchClip(ids.TrackID(trackID), int(scene))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleStopClip(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	a.session.StopClip(ids.TrackID(trackID))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleStopAllClips(w http.ResponseWriter, r *http.Request) {
	a.session.StopAllClips()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Note     uint8   `json:"note"`
		Velocity float32 `json:"velocity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.NoteOn(ids.TrackID(trackID), req.Note, req.Velocity)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	trackID, ok := parseUintParam(w, r, "trackID")
	if !ok {
		return
	}
	var req struct {
		Note uint8 `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.session.NoteOff(ids.TrackID(trackID), req.Note)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	if a.samples == nil {
		http.Error(w, `{"error":"no local sample directory configured"}`, http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := a.samples.Load(req.Path)
	if err != nil {
		a.logger.Error().Err(err).Str("path", req.Path).Msg("sample load failed")
		http.Error(w, `{"error":"sample load failed"}`, http.StatusBadRequest)
		return
	}
	id := a.session.RegisterAudio(entry)
	writeJSON(w, http.StatusCreated, map[string]ids.AudioID{"audio_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

func parseUintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, `{"error":"invalid `+name+`"}`, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// readbackAdapter lets *session.Session satisfy telemetry.ReadbackSource
// without internal/telemetry importing internal/session.
type readbackAdapter struct {
	s *session.Session
}

func (r readbackAdapter) Read() bridge.Snapshot { return r.s.Readback() }
