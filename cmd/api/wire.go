//go:build wireinject

package main

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/auth"
	"github.com/namespaced/namespaced/x/directory"
	"github.com/namespaced/namespaced/x/grant"
	"github.com/namespaced/namespaced/x/namespace"
	"github.com/namespaced/namespaced/x/object"
	"github.com/namespaced/namespaced/x/resolver"
	"github.com/namespaced/namespaced/x/socket"
)

var directoryProvider = wire.NewSet(
	directory.NewService,
	directory.NewRepository,
	wire.Bind(new(core.SubjectDirectory), new(directory.Service)),
)

var resolverProvider = wire.NewSet(resolver.NewService, resolver.NewRepository, directoryProvider)

var namespaceProvider = wire.NewSet(
	namespace.NewService,
	namespace.NewRepository,
	resolverProvider,
	socket.NewPublisher,
)

func SetupAuthService(config core.Config) auth.Service {
	wire.Build(auth.NewService)
	return nil
}

func SetupDirectoryService(db *gorm.DB, rdb *redis.Client) directory.Service {
	wire.Build(directory.NewService, directory.NewRepository)
	return nil
}

func SetupNamespaceService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) namespace.Service {
	wire.Build(namespaceProvider)
	return nil
}

func SetupGrantService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) grant.Service {
	wire.Build(grant.NewService, grant.NewRepository, namespaceProvider)
	return nil
}

func SetupObjectService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) object.Service {
	wire.Build(object.NewService, object.NewRepository, namespaceProvider)
	return nil
}

func SetupSocketHandler(rdb *redis.Client) *socket.Handler {
	wire.Build(socket.NewHandler, socket.NewService)
	return nil
}
