package sitegate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/strukta/sitegate/cache"
	"github.com/strukta/sitegate/credential"
	"github.com/strukta/sitegate/identity"
	"github.com/strukta/sitegate/role"
	"github.com/strukta/sitegate/scope"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the engine serves its first request.
type Builder struct {
	config Config

	redis         *redis.Client
	identityStore identity.Store
	directory     scope.Directory
	auditSink     AuditSink
	logger        *zap.Logger

	extraRoles map[role.ID]role.Tier

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the identity store. Ignored
// when [Builder.WithIdentityStore] provides an explicit store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore supplies the secondary identity lookup.
func (b *Builder) WithIdentityStore(store identity.Store) *Builder {
	b.identityStore = store
	return b
}

// WithProjectDirectory supplies the resource-lookup collaborator. Required.
func (b *Builder) WithProjectDirectory(directory scope.Directory) *Builder {
	b.directory = directory
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the structured logger; a nop logger is the default.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRole registers an additional role ID into an existing tier before the
// hierarchy freezes. The consolidated role set is always present.
func (b *Builder) WithRole(id role.ID, tier role.Tier) *Builder {
	if b.extraRoles == nil {
		b.extraRoles = make(map[role.ID]role.Tier)
	}
	b.extraRoles[id] = tier
	return b
}

// Build validates the configuration, freezes the role hierarchy, and wires
// the engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, errors.New("project directory required")
	}

	hierarchy := role.NewHierarchy()
	for id, tier := range b.extraRoles {
		if err := hierarchy.Register(id, tier); err != nil {
			return nil, err
		}
	}
	hierarchy.Freeze()

	manager, err := credential.NewManager(cfg.Credential)
	if err != nil {
		return nil, err
	}

	store := b.identityStore
	if store == nil && b.redis != nil {
		store = identity.NewRedisStore(b.redis, "")
	}

	resolver, err := identity.NewResolver(manager, store, hierarchy)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	claims, err := cache.NewStore(cfg.Cache, resolver.Resolve, logger.Named("claims-cache"))
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:      cfg,
		hierarchy:   hierarchy,
		credentials: manager,
		resolver:    resolver,
		scopes:      scope.NewResolver(hierarchy),
		directory:   b.directory,
		claims:      claims,
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
	}, nil
}
