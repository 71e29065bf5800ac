package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/apperr"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/deploy"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/minecraft"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
)

// Permission is a panel permission required by an endpoint.
type Permission string

const (
	PermFileRead   Permission = "file-read"
	PermFileCreate Permission = "file-create"
)

// UserHeader carries the acting panel user's name.
const UserHeader = "X-Panel-User"

var (
	// ErrUnauthorized means the caller did not authenticate.
	ErrUnauthorized = errors.New("missing or invalid API token")
	// ErrForbidden means the caller lacks the permission.
	ErrForbidden = errors.New("permission denied")
)

// Gate checks that the caller may use perm on a server and returns the
// acting user.
type Gate interface {
	Authorize(r *http.Request, serverID string, perm Permission) (string, error)
}

// TokenGate admits callers presenting a shared bearer token. The host panel
// performs the per-user permission check before proxying. An empty Token
// admits everyone.
type TokenGate struct {
	Token string
}

// Authorize implements Gate.
func (g TokenGate) Authorize(r *http.Request, _ string, _ Permission) (string, error) {
	user := strings.TrimSpace(r.Header.Get(UserHeader))
	if g.Token == "" {
		return user, nil
	}

	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(g.Token)) != 1 {
		return "", ErrUnauthorized
	}
	return user, nil
}

// ServerFS is the remote file access the handlers need.
type ServerFS interface {
	deploy.FileSystem
	minecraft.Lister
}

// Target is a resolved game server.
type Target struct {
	UUID string
	Node string
	FS   ServerFS
}

// Resolver maps a server identifier to its record.
type Resolver interface {
	Resolve(ctx context.Context, serverID string) (*Target, error)
}

// ConfigResolver resolves servers through the configured Wings nodes.
type ConfigResolver struct {
	cfg *config.Config

	mu      sync.Mutex
	clients map[string]*wings.Client
}

// NewConfigResolver creates a resolver over cfg's Wings section.
func NewConfigResolver(cfg *config.Config) *ConfigResolver {
	return &ConfigResolver{cfg: cfg, clients: make(map[string]*wings.Client)}
}

// Resolve implements Resolver.
func (r *ConfigResolver) Resolve(_ context.Context, serverID string) (*Target, error) {
	serverID = strings.TrimSpace(serverID)
	if serverID == "" {
		return nil, apperr.InvalidRequest("resolve server", "server id is required")
	}

	id, node, ok := r.cfg.NodeFor(serverID)
	if !ok {
		return nil, apperr.NotFound("resolve server", "server %q is not hosted on any configured node", serverID)
	}

	return &Target{
		UUID: serverID,
		Node: id,
		FS:   r.client(id, node).Server(serverID),
	}, nil
}

func (r *ConfigResolver) client(id string, node config.NodeConfig) *wings.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[id]; ok {
		return c
	}
	c := wings.NewClient(wings.Config{
		BaseURL:        node.URL,
		Token:          node.Token,
		ConnectTimeout: r.cfg.Wings.ConnectTimeout,
		Timeout:        r.cfg.Wings.Timeout,
	})
	r.clients[id] = c
	return c
}
