package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"gate-dual-hedge/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Event is one step of a plan's lifecycle: creation, each order leg,
// settlement, unwind. Rows are append-only so a run leaves a full audit
// trail even when the local state store is wiped.
type Event struct {
	Time     time.Time
	Tag      string
	Stage    string
	PlanID   int64
	Contract string
	Detail   string
}

// Settlement is the terminal record of a dual investment order.
type Settlement struct {
	Time           time.Time
	Tag            string
	OrderID        int64
	SettleCurrency string
	SettleAmount   string
	APYDisplay     string
}

type Writer struct {
	db          *sql.DB
	log         *zap.Logger
	schema      string
	events      chan Event
	settlements chan Settlement
	started     atomic.Bool
	dropEvent   atomic.Uint64
	dropSettle  atomic.Uint64
}

func New(cfg config.JournalConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("journal dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:          db,
		log:         log,
		schema:      schema,
		events:      make(chan Event, queueSize),
		settlements: make(chan Settlement, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// EnqueueEvent never blocks the trading flow. Full queues drop with a
// single warning.
func (w *Writer) EnqueueEvent(event Event) {
	if w == nil {
		return
	}
	select {
	case w.events <- event:
		return
	default:
		if w.dropEvent.Add(1) == 1 && w.log != nil {
			w.log.Warn("journal event queue full")
		}
	}
}

func (w *Writer) EnqueueSettlement(settlement Settlement) {
	if w == nil {
		return
	}
	select {
	case w.settlements <- settlement:
		return
	default:
		if w.dropSettle.Add(1) == 1 && w.log != nil {
			w.log.Warn("journal settlement queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.events:
			w.writeEvent(ctx, event)
		case settlement := <-w.settlements:
			w.writeSettlement(ctx, settlement)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("journal db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		tag TEXT NOT NULL,
		stage TEXT NOT NULL,
		plan_id BIGINT NOT NULL,
		contract TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	)`, w.table("plan_events"))); err != nil {
		return err
	}
	return w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		tag TEXT NOT NULL,
		order_id BIGINT NOT NULL,
		settle_currency TEXT NOT NULL,
		settle_amount TEXT NOT NULL,
		apy_display TEXT NOT NULL,
		PRIMARY KEY (tag, order_id)
	)`, w.table("settlements")))
}

func (w *Writer) writeEvent(ctx context.Context, event Event) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, tag, stage, plan_id, contract, detail
	) VALUES ($1,$2,$3,$4,$5,$6)`, w.table("plan_events"))
	if _, err := w.db.ExecContext(ctx, query,
		event.Time,
		event.Tag,
		event.Stage,
		event.PlanID,
		event.Contract,
		event.Detail,
	); err != nil && w.log != nil {
		w.log.Warn("journal event insert failed", zap.Error(err))
	}
}

func (w *Writer) writeSettlement(ctx context.Context, settlement Settlement) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, tag, order_id, settle_currency, settle_amount, apy_display
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (tag, order_id) DO UPDATE SET
		settle_currency = EXCLUDED.settle_currency,
		settle_amount = EXCLUDED.settle_amount,
		apy_display = EXCLUDED.apy_display`, w.table("settlements"))
	if _, err := w.db.ExecContext(ctx, query,
		settlement.Time,
		settlement.Tag,
		settlement.OrderID,
		settlement.SettleCurrency,
		settlement.SettleAmount,
		settlement.APYDisplay,
	); err != nil && w.log != nil {
		w.log.Warn("journal settlement upsert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
