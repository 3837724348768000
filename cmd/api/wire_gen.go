// Code generated by Wire. DO NOT EDIT.

//go:generate go run github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/auth"
	"github.com/namespaced/namespaced/x/directory"
	"github.com/namespaced/namespaced/x/grant"
	"github.com/namespaced/namespaced/x/namespace"
	"github.com/namespaced/namespaced/x/object"
	"github.com/namespaced/namespaced/x/resolver"
	"github.com/namespaced/namespaced/x/socket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Injectors from wire.go:

func SetupAuthService(config core.Config) auth.Service {
	service := auth.NewService(config)
	return service
}

func SetupDirectoryService(db *gorm.DB, rdb *redis.Client) directory.Service {
	repository := directory.NewRepository(db)
	service := directory.NewService(repository, rdb)
	return service
}

func SetupNamespaceService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) namespace.Service {
	repository := namespace.NewRepository(db, mc)
	resolverRepository := resolver.NewRepository(db)
	directoryRepository := directory.NewRepository(db)
	service := directory.NewService(directoryRepository, rdb)
	coreResolver := resolver.NewService(resolverRepository, service, config)
	publisher := socket.NewPublisher(rdb)
	namespaceService := namespace.NewService(repository, coreResolver, service, publisher)
	return namespaceService
}

func SetupGrantService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) grant.Service {
	repository := grant.NewRepository(db)
	namespaceRepository := namespace.NewRepository(db, mc)
	resolverRepository := resolver.NewRepository(db)
	directoryRepository := directory.NewRepository(db)
	service := directory.NewService(directoryRepository, rdb)
	coreResolver := resolver.NewService(resolverRepository, service, config)
	publisher := socket.NewPublisher(rdb)
	namespaceService := namespace.NewService(namespaceRepository, coreResolver, service, publisher)
	grantService := grant.NewService(repository, namespaceService, coreResolver, publisher)
	return grantService
}

func SetupObjectService(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, config core.Config) object.Service {
	repository := object.NewRepository(db)
	namespaceRepository := namespace.NewRepository(db, mc)
	resolverRepository := resolver.NewRepository(db)
	directoryRepository := directory.NewRepository(db)
	service := directory.NewService(directoryRepository, rdb)
	coreResolver := resolver.NewService(resolverRepository, service, config)
	publisher := socket.NewPublisher(rdb)
	namespaceService := namespace.NewService(namespaceRepository, coreResolver, service, publisher)
	objectService := object.NewService(repository, namespaceService, coreResolver)
	return objectService
}

func SetupSocketHandler(rdb *redis.Client) *socket.Handler {
	service := socket.NewService()
	handler := socket.NewHandler(service, rdb)
	return handler
}

// wire.go:

var directoryProvider = wire.NewSet(directory.NewService, directory.NewRepository, wire.Bind(new(core.SubjectDirectory), new(directory.Service)))

var resolverProvider = wire.NewSet(resolver.NewService, resolver.NewRepository, directoryProvider)

var namespaceProvider = wire.NewSet(namespace.NewService, namespace.NewRepository, resolverProvider, socket.NewPublisher)
