package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/cart"
	"github.com/atinyakov/storefront/internal/client/checkout"
	"github.com/atinyakov/storefront/internal/client/events"
	"github.com/atinyakov/storefront/internal/client/session"
	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/db"
)

// app is the client layer of one process.
type app struct {
	store    *storage.Adapter
	client   *api.Client
	session  *session.Manager
	cart     *cart.Store
	checkout *checkout.Service
}

func newApp(opts *config.Options, log *zap.Logger) (*app, error) {
	backend, err := newBackend(opts.Storage, log.Named("storage"))
	if err != nil {
		return nil, err
	}
	store := storage.NewAdapter(backend, opts.Storage.Timeout, log.Named("storage"))

	bus := events.NewBus()
	clientOpts := []api.Option{
		api.WithTimeout(opts.API.Timeout),
		api.WithUnauthorizedTopic(&bus.Unauthorized),
		api.WithLogger(log.Named("api")),
	}
	if opts.API.CAFile != "" {
		clientOpts = append(clientOpts, api.WithRootCA(opts.API.CAFile))
	}
	if opts.API.CertFile != "" {
		clientOpts = append(clientOpts, api.WithClientCertificate(opts.API.CertFile, opts.API.KeyFile))
	}
	if opts.API.TokenFile != "" {
		clientOpts = append(clientOpts, api.WithCredentialHelper(api.TokenFileHelper(opts.API.TokenFile)))
	}
	if opts.Auth.Strategy == config.StrategyCookie {
		clientOpts = append(clientOpts, api.WithCookieJar())
	}

	client, err := api.New(opts.API.BaseURL, clientOpts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sess, err := session.New(store, client, bus,
		session.WithStrategy(opts.Auth.Strategy),
		session.WithStartup(opts.Auth.Startup),
		session.WithLogger(log.Named("session")),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	carts := cart.New(store, log.Named("cart"))
	return &app{
		store:    store,
		client:   client,
		session:  sess,
		cart:     carts,
		checkout: checkout.New(client, carts, log.Named("checkout")),
	}, nil
}

func (a *app) Close() error {
	a.session.Close()
	return a.store.Close()
}

func newBackend(opts config.StorageOptions, log *zap.Logger) (storage.Backend, error) {
	driver := storage.Driver(opts.Driver)
	switch driver {
	case storage.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return storage.NewBackend(driver, storage.WithRedisClient(client), storage.WithRedisPrefix(opts.RedisPrefix))
	case storage.DriverPostgres:
		conn, err := db.InitPostgres(opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("cannot init database: %w", err)
		}
		return storage.NewBackend(driver, storage.WithDB(conn))
	default:
		return storage.NewBackend(driver, storage.WithPath(opts.Path), storage.WithLogger(log))
	}
}
