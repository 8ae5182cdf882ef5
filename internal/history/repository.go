package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sysboard/sysboard/internal/errors"
)

type sqliteRecorder struct {
	db        *sql.DB
	retention int
	mu        sync.Mutex
}

func newRepository(cfg Config) (*sqliteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	return &sqliteRecorder{db: db, retention: retention}, nil
}

func (r *sqliteRecorder) Record(ctx context.Context, row *Row) error {
	if row == nil {
		return errors.New(errors.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO utilization (
            timestamp, cpu_percent, memory_percent, disk_percent,
            net_sent_rate, net_recv_rate, gpu_percent, temperature_c
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            cpu_percent = excluded.cpu_percent,
            memory_percent = excluded.memory_percent,
            disk_percent = excluded.disk_percent,
            net_sent_rate = excluded.net_sent_rate,
            net_recv_rate = excluded.net_recv_rate,
            gpu_percent = excluded.gpu_percent,
            temperature_c = excluded.temperature_c
    `,
		row.Timestamp.Unix(),
		row.CPUPercent,
		row.MemoryPercent,
		row.DiskPercent,
		row.NetSentRate,
		row.NetRecvRate,
		row.GPUPercent,
		row.TemperatureC,
	)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	_, err = r.db.ExecContext(ctx, `
        DELETE FROM utilization WHERE timestamp NOT IN (
            SELECT timestamp FROM utilization ORDER BY timestamp DESC LIMIT ?
        )
    `, r.retention)
	if err != nil {
		return errors.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRecorder) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 || limit > r.retention {
		limit = r.retention
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `
        SELECT timestamp, cpu_percent, memory_percent, disk_percent,
               net_sent_rate, net_recv_rate, gpu_percent, temperature_c
        FROM utilization ORDER BY timestamp DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, errors.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		var unix int64
		if err := rows.Scan(
			&unix,
			&row.CPUPercent,
			&row.MemoryPercent,
			&row.DiskPercent,
			&row.NetSentRate,
			&row.NetRecvRate,
			&row.GPUPercent,
			&row.TemperatureC,
		); err != nil {
			return nil, errors.Wrap(ErrStorageAccess, err)
		}
		row.Timestamp = time.Unix(unix, 0).UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(ErrStorageAccess, err)
	}

	return out, nil
}

func (r *sqliteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.Wrap(ErrStorageClose, err)
	}

	return nil
}
