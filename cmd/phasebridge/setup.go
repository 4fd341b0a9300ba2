package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/phasebridge/internal/chain"
	"github.com/nvandessel/phasebridge/internal/checkpoint"
	"github.com/nvandessel/phasebridge/internal/config"
	"github.com/nvandessel/phasebridge/internal/detrand"
	"github.com/nvandessel/phasebridge/internal/engine"
	"github.com/nvandessel/phasebridge/internal/logging"
	"github.com/nvandessel/phasebridge/internal/monitor"
	"github.com/nvandessel/phasebridge/internal/precision"
	"github.com/nvandessel/phasebridge/internal/store"
)

// bridgeStack wires the full engine from configuration: precision context,
// sequence source, blob store, checkpoint manager, monitors, status feed,
// and commitment sink.
type bridgeStack struct {
	cfg    *config.Config
	logger *slog.Logger
	events *logging.EventLogger

	pctx        *precision.Context
	src         *detrand.Source
	eng         *engine.Engine
	feed        *engine.Feed
	timing      *monitor.TimingMonitor
	checkpoints *checkpoint.Manager
	sink        chain.Sink

	closers []func() error
}

func newBridgeStack(cfg *config.Config) (*bridgeStack, error) {
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	events := logging.NewEventLogger(cfg.Logging.EventDir, cfg.Logging.Level)

	b := &bridgeStack{
		cfg:    cfg,
		logger: logger,
		events: events,
	}
	b.pctx = precision.NewContext(cfg.Engine.Precision)
	b.src = detrand.NewSource(b.pctx)

	blobs, err := b.buildStore()
	if err != nil {
		return nil, err
	}

	b.feed = engine.NewFeed()
	b.timing = monitor.NewTimingMonitor(logger)
	b.checkpoints = checkpoint.NewManager(blobs, b.pctx, b.src, logger)

	b.eng = engine.New(b.pctx, b.src, logger)
	b.eng.Checkpoints = b.checkpoints
	b.eng.Feed = b.feed
	b.eng.Timing = b.timing
	b.eng.Sync = monitor.NewSynchronizer(logger)
	b.eng.SetPaced(cfg.Engine.Paced)

	if cfg.Chain.Endpoint != "" {
		b.sink = chain.NewHTTPSink(cfg.Chain.Endpoint)
	} else {
		b.sink = chain.NewLocalSink(logger)
	}

	return b, nil
}

func (b *bridgeStack) buildStore() (store.BlobStore, error) {
	switch b.cfg.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		s, err := store.NewSQLiteStore(b.cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	case "ipfs":
		return store.NewIPFSStore(b.cfg.Store.APIURL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", b.cfg.Store.Backend)
	}
}

func (b *bridgeStack) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			b.logger.Warn("close failed", "error", err)
		}
	}
	b.events.Close()
}
