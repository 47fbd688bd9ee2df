/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ademuri/vinylvault/internal/apperr"
	"github.com/ademuri/vinylvault/internal/auth"
	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/collection"
	"github.com/ademuri/vinylvault/internal/kv"
	"github.com/ademuri/vinylvault/internal/lists"
	"github.com/ademuri/vinylvault/internal/logging"
)

const (
	mongoDatabase   = "vinylvault"
	mongoCollection = "keyvalue"
)

// app holds the services one command invocation works with.
type app struct {
	log        zerolog.Logger
	store      kv.Store
	creds      *auth.Credentials
	catalog    *catalog.Client
	lists      *lists.Manager
	collection *collection.Store
}

// openApp builds the services from the viper configuration. Tests replace it.
var openApp = func(ctx context.Context) (*app, error) {
	log := logging.New(logging.Config{
		Level:  viper.GetString("log_level"),
		Format: viper.GetString("log_format"),
		Output: os.Stderr,
	})

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, store, log)
}

func openStore(ctx context.Context) (kv.Store, error) {
	if uri := viper.GetString("mongo_uri"); uri != "" {
		store, err := kv.OpenMongo(ctx, uri, mongoDatabase, mongoCollection)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := kv.Open(viper.GetString("database"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newApp loads credentials, lists and the collection from store. Corrupt
// stored data is logged and replaced with an empty set rather than failing
// the command.
func newApp(ctx context.Context, store kv.Store, log zerolog.Logger, opts ...catalog.Option) (*app, error) {
	a := &app{log: log, store: store}

	a.creds = auth.NewCredentials(store)
	if err := a.creds.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}

	opts = append([]catalog.Option{catalog.WithLogger(log)}, opts...)
	a.catalog = catalog.New(a.creds, opts...)

	a.lists = lists.New(store, log)
	if err := a.lists.Load(ctx); err != nil && !errors.Is(err, apperr.ErrDecode) {
		store.Close()
		return nil, err
	}

	a.collection = collection.New(store, a.lists, log)
	if err := a.collection.Load(ctx); err != nil && !errors.Is(err, apperr.ErrDecode) {
		store.Close()
		return nil, err
	}

	if n, err := a.lists.Prune(ctx, a.collection.Contains); err != nil {
		log.Warn().Err(err).Msg("repairing album lists")
	} else if n > 0 {
		log.Info().Int("removed", n).Msg("removed albums missing from the collection from lists")
	}

	return a, nil
}

func (a *app) Close() error {
	flushErr := a.collection.Close()
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return flushErr
}

// withApp opens the app, runs fn and closes the app.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
