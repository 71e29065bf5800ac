// Package api exposes the installer over HTTP, scoped per game server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/activity"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/deploy"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/installer"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/minecraft"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

const (
	// Prefix is the route prefix for server-scoped endpoints.
	Prefix = "/api/servers/{server}/vanillatweaks"

	// DefaultVersion is used when a request omits mcVersion.
	DefaultVersion = "1.21"

	maxInstallBody = 1 << 20
)

// Catalog serves catalog JSON and icons.
type Catalog interface {
	Packs(ctx context.Context, version string, packType vanillatweaks.PackType) ([]byte, error)
	ImageTag(packName, version string, packType vanillatweaks.PackType) string
	Image(ctx context.Context, packName, version string, packType vanillatweaks.PackType) vanillatweaks.Image
}

// Installer runs install jobs.
type Installer interface {
	Install(ctx context.Context, fs deploy.FileSystem, job installer.Job) (*installer.Result, error)
}

// Deps are the collaborators of a Handler. Activity may be nil.
type Deps struct {
	Catalog   Catalog
	Installer Installer
	Resolver  Resolver
	Gate      Gate
	Activity  activity.Lister
}

// Handler serves the HTTP API.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
}

// NewHandler creates a Handler and registers its routes.
func NewHandler(deps Deps) *Handler {
	if deps.Gate == nil {
		deps.Gate = TokenGate{}
	}

	h := &Handler{deps: deps, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.Handle("GET "+Prefix+"/detect-version", h.scoped(PermFileRead, h.handleDetectVersion))
	h.mux.Handle("GET "+Prefix+"/worlds", h.scoped(PermFileRead, h.handleWorlds))
	h.mux.Handle("GET "+Prefix+"/packs", h.gated(PermFileRead, h.handlePacks))
	h.mux.Handle("GET "+Prefix+"/image", h.gated(PermFileRead, h.handleImage))
	h.mux.Handle("GET "+Prefix+"/activity", h.gated(PermFileRead, h.handleActivity))
	h.mux.Handle("POST "+Prefix+"/install", h.scoped(PermFileCreate, h.handleInstall))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type gatedFunc func(w http.ResponseWriter, r *http.Request, serverID, user string)

type scopedFunc func(w http.ResponseWriter, r *http.Request, target *Target, user string)

// gated checks perm before calling fn.
func (h *Handler) gated(perm Permission, fn gatedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverID := r.PathValue("server")
		user, err := h.deps.Gate.Authorize(r, serverID, perm)
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrUnauthorized) {
				status = http.StatusUnauthorized
			}
			slog.Warn("request denied", "server", serverID, "permission", perm, "error", err)
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}
		fn(w, r, serverID, user)
	})
}

// scoped checks perm and resolves the server before calling fn.
func (h *Handler) scoped(perm Permission, fn scopedFunc) http.Handler {
	return h.gated(perm, func(w http.ResponseWriter, r *http.Request, serverID, user string) {
		target, err := h.deps.Resolver.Resolve(r.Context(), serverID)
		if err != nil {
			h.fail(w, "resolve server", err)
			return
		}
		fn(w, r, target, user)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDetectVersion(w http.ResponseWriter, r *http.Request, target *Target, _ string) {
	resp := struct {
		Version *string `json:"version"`
	}{}
	if v, ok := minecraft.DetectVersion(r.Context(), target.FS, minecraft.VersionsDir); ok {
		resp.Version = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWorlds(w http.ResponseWriter, r *http.Request, target *Target, _ string) {
	worlds, err := minecraft.ListWorlds(r.Context(), target.FS, "")
	if err != nil {
		h.fail(w, "list worlds", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]minecraft.World{"worlds": worlds})
}

func (h *Handler) handlePacks(w http.ResponseWriter, r *http.Request, _, _ string) {
	version, packType, err := catalogQuery(r)
	if err != nil {
		h.fail(w, "fetch packs", err)
		return
	}

	data, err := h.deps.Catalog.Packs(r.Context(), version, packType)
	if err != nil {
		h.fail(w, "fetch packs", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request, _, _ string) {
	version, packType, err := catalogQuery(r)
	if err != nil {
		h.fail(w, "fetch image", err)
		return
	}
	pack := strings.TrimSpace(r.URL.Query().Get("pack"))
	if pack == "" {
		h.fail(w, "fetch image", apperr.InvalidRequest("fetch image", "pack is required"))
		return
	}

	etag := h.deps.Catalog.ImageTag(pack, version, packType)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img := h.deps.Catalog.Image(r.Context(), pack, version, packType)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("ETag", img.ETag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(img.MaxAge.Seconds())))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request, serverID, _ string) {
	if h.deps.Activity == nil {
		h.fail(w, "list activity", apperr.NotFound("list activity", "activity history is not enabled"))
		return
	}

	limit := activity.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(w, "list activity", apperr.InvalidRequest("list activity", "invalid limit %q", raw))
			return
		}
		limit = n
	}

	records, err := h.deps.Activity.Recent(r.Context(), serverID, limit)
	if err != nil {
		h.fail(w, "list activity", apperr.Internal("list activity", err))
		return
	}
	if records == nil {
		records = []activity.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

type installRequest struct {
	MCVersion string                  `json:"mcVersion"`
	PackType  string                  `json:"pack_type"`
	Packs     vanillatweaks.Selection `json:"packs"`
	World     string                  `json:"world"`
}

type installResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Result  *installer.Result `json:"result,omitempty"`
}

func (h *Handler) handleInstall(w http.ResponseWriter, r *http.Request, target *Target, user string) {
	const op = "install"

	var req installRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInstallBody)).Decode(&req); err != nil {
		h.fail(w, op, apperr.InvalidRequest(op, "invalid request body: %v", err))
		return
	}

	if strings.TrimSpace(req.MCVersion) == "" {
		h.fail(w, op, apperr.InvalidRequest(op, "mcVersion is required"))
		return
	}
	selection := req.Packs.Normalize()
	if selection.Empty() {
		h.fail(w, op, apperr.InvalidRequest(op, "no packs selected"))
		return
	}
	packType, err := vanillatweaks.ParsePackType(req.PackType)
	if err != nil {
		h.fail(w, op, apperr.InvalidRequest(op, "%v", err))
		return
	}
	world := req.World
	if strings.TrimSpace(world) == "" {
		world = minecraft.DefaultWorld
	}

	result, err := h.deps.Installer.Install(r.Context(), target.FS, installer.Job{
		ServerUUID: target.UUID,
		User:       user,
		MCVersion:  req.MCVersion,
		PackType:   packType,
		Selection:  selection,
		World:      world,
	})
	if err != nil {
		// Already logged by the installer.
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, installResponse{
		Success: true,
		Message: fmt.Sprintf("Installed %d %s into %s", result.PacksCount, packType, result.World),
		Result:  result,
	})
}

// catalogQuery reads mcVersion and type, applying defaults.
func catalogQuery(r *http.Request) (string, vanillatweaks.PackType, error) {
	q := r.URL.Query()

	version := strings.TrimSpace(q.Get("mcVersion"))
	if version == "" {
		version = DefaultVersion
	}
	if err := vanillatweaks.ValidateVersion(version); err != nil {
		return "", "", apperr.InvalidRequest("parse query", "%v", err)
	}

	packType, err := vanillatweaks.ParsePackType(q.Get("type"))
	if err != nil {
		return "", "", apperr.InvalidRequest("parse query", "%v", err)
	}
	return version, packType, nil
}

// fail logs err with op and writes the error response.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	slog.Error("request failed", "op", op, "kind", apperr.KindOf(err), "error", err)
	writeError(w, err)
}
