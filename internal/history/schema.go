package history

import (
	"database/sql"

	"github.com/sysboard/sysboard/internal/errors"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS utilization (
            timestamp INTEGER PRIMARY KEY,
            cpu_percent REAL,
            memory_percent REAL,
            disk_percent REAL,
            net_sent_rate REAL,
            net_recv_rate REAL,
            gpu_percent REAL,
            temperature_c REAL
        )
    `)
	if err != nil {
		return errors.Wrap(ErrStorageInit, err)
	}

	return nil
}
