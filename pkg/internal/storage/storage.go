// Package storage aggregates the storage backends: the record database, the
// blob store, the KV store and the message queue.
//
// Example:
//
//	mgr, err := storage.Init(ctx, configs.GetConfig(), registry)
//	if err != nil {
//		// handle error
//	}
//	defer mgr.Close()
//
//	db := mgr.GetDBClient()
//	blobs := mgr.GetBlobStore()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/filevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/filevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// Manager holds every storage resource.
type Manager struct {
	DB   *dbc.Client
	Blob blob.Store
	KV   *kvc.Client
	MQ   *mqc.Client
}

// Init opens every backend described by cfg. Backends opened before a
// failure are closed again. registry, when non-nil, receives the MQ metrics.
func Init(ctx context.Context, cfg *configs.AppConfig, registry prometheus.Registerer) (*Manager, error) {
	m := &Manager{}

	db, err := dbc.New(ctx, &cfg.DB, cfg.DB.Metrics)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = db

	if m.Blob, err = blob.New(ctx, &cfg.Blob); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	if m.KV, err = kvc.New(ctx, &cfg.KV); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, &cfg.MQ, registry); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("db", cfg.DB.GetDBType()).
		Str("blob", string(cfg.Blob.Type)).
		Str("kv", string(cfg.KV.Type)).
		Str("mq", string(cfg.MQ.Type)).
		Msg("storage manager initialized")

	return m, nil
}

// NewManager assembles a Manager from already opened backends.
func NewManager(db *dbc.Client, blobs blob.Store, kv *kvc.Client, mq *mqc.Client) *Manager {
	return &Manager{DB: db, Blob: blobs, KV: kv, MQ: mq}
}

// GetDBClient returns the database client.
func (m *Manager) GetDBClient() *dbc.Client { return m.DB }

// GetBlobStore returns the blob store.
func (m *Manager) GetBlobStore() blob.Store { return m.Blob }

// GetKVClient returns the KV client.
func (m *Manager) GetKVClient() *kvc.Client { return m.KV }

// GetMQClient returns the MQ client.
func (m *Manager) GetMQClient() *mqc.Client { return m.MQ }

// Close releases every opened backend.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
