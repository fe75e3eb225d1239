package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/database"
)

// RunMeta describes one persisted run.
type RunMeta struct {
	RunID             string
	CreatedAt         time.Time
	Mode              string
	Rows              int
	Cols              int
	J                 float64
	H                 float64
	Dt                float64
	GeometricCoupling bool
}

// Repository persists runs, history points and lattice snapshots in the
// results database.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a repository and ensures the schema exists.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		mode TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		j REAL NOT NULL,
		h REAL NOT NULL,
		dt REAL NOT NULL,
		geometric_coupling INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS history_points (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		step INTEGER NOT NULL,
		entropy REAL NOT NULL,
		avg_curvature REAL NOT NULL,
		avg_energy REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		step INTEGER NOT NULL,
		payload BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, step)
	);`

	if _, err := r.db.Conn().Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run metadata row.
func (r *Repository) SaveRun(meta RunMeta) error {
	_, err := r.db.Conn().Exec(`
		INSERT INTO runs (run_id, mode, rows, cols, j, h, dt, geometric_coupling)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.RunID, meta.Mode, meta.Rows, meta.Cols, meta.J, meta.H, meta.Dt, boolToInt(meta.GeometricCoupling),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", meta.RunID, err)
	}
	r.log.Debug().Str("run_id", meta.RunID).Msg("Run registered")
	return nil
}

// SavePoint appends one history point for a run.
func (r *Repository) SavePoint(runID string, p Point) error {
	_, err := r.db.Conn().Exec(`
		INSERT INTO history_points (run_id, step, entropy, avg_curvature, avg_energy)
		VALUES (?, ?, ?, ?, ?)`,
		runID, p.Step, p.Entropy, p.AvgCurvature, p.AvgEnergy,
	)
	if err != nil {
		return fmt.Errorf("failed to save history point run=%s step=%d: %w", runID, p.Step, err)
	}
	return nil
}

// SaveAll persists every point of a recorder in one transaction.
func (r *Repository) SaveAll(rec *Recorder) error {
	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO history_points (run_id, step, entropy, avg_curvature, avg_energy)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range rec.Points() {
		if _, err := stmt.Exec(rec.RunID(), p.Step, p.Entropy, p.AvgCurvature, p.AvgEnergy); err != nil {
			return fmt.Errorf("failed to insert point step=%d: %w", p.Step, err)
		}
	}
	return tx.Commit()
}

// LoadPoints returns the recorded series of a run ordered by step.
func (r *Repository) LoadPoints(runID string) ([]Point, error) {
	rows, err := r.db.Conn().Query(`
		SELECT step, entropy, avg_curvature, avg_energy
		FROM history_points
		WHERE run_id = ?
		ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for run %s: %w", runID, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Step, &p.Entropy, &p.AvgCurvature, &p.AvgEnergy); err != nil {
			return nil, fmt.Errorf("failed to scan history point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SaveSnapshot stores a serialized lattice snapshot for a run step.
func (r *Repository) SaveSnapshot(runID string, step int, payload []byte) error {
	_, err := r.db.Conn().Exec(`
		INSERT OR REPLACE INTO snapshots (run_id, step, payload)
		VALUES (?, ?, ?)`,
		runID, step, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot run=%s step=%d: %w", runID, step, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot payload for a run step.
func (r *Repository) LoadSnapshot(runID string, step int) ([]byte, error) {
	var payload []byte
	err := r.db.Conn().QueryRow(`
		SELECT payload FROM snapshots WHERE run_id = ? AND step = ?`,
		runID, step,
	).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot run=%s step=%d: %w", runID, step, err)
	}
	return payload, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
