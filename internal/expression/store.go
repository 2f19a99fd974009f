package expression

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store keeps expression values in DuckDB as a long table, one row per
// dataset, gene and sample.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// SetLogger sets the logger for import messages.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS expression (
		dataset VARCHAR,
		gene_id VARCHAR,
		sample VARCHAR,
		fpkm DOUBLE
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_expression_gene ON expression (dataset, gene_id)`)
	return err
}

// Import replaces the rows of ds.Name with the values of ds. Missing values
// are not stored. Values are appended to a staging table first; the
// existing rows are swapped out in one transaction only after every value
// was appended, so a failed or cancelled import leaves the dataset as it was.
func (s *Store) Import(ctx context.Context, ds *Dataset) error {
	if ds.Name == "" {
		return fmt.Errorf("import: dataset has no name")
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `CREATE OR REPLACE TABLE `+stagingTable+` AS
		SELECT * FROM expression LIMIT 0`); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	defer conn.ExecContext(context.Background(), `DROP TABLE IF EXISTS `+stagingTable)

	n, err := appendValues(ctx, conn, ds)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expression WHERE dataset = ?`, ds.Name); err != nil {
		return fmt.Errorf("clear dataset %s: %w", ds.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO expression SELECT * FROM `+stagingTable); err != nil {
		return fmt.Errorf("insert dataset %s: %w", ds.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("imported dataset", zap.String("dataset", ds.Name), zap.Int("values", n))
	return nil
}

const stagingTable = "expression_staging"

// appendValues bulk loads ds into the staging table.
func appendValues(ctx context.Context, conn *sql.Conn, ds *Dataset) (int, error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", stagingTable)
		return err
	}); err != nil {
		return 0, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	var n int
	for i, gene := range ds.Genes {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for j, sample := range ds.Samples {
			v := ds.Values.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			if err := appender.AppendRow(ds.Name, gene, sample, v); err != nil {
				return 0, fmt.Errorf("append expression value: %w", err)
			}
			n++
		}
	}
	if err := appender.Flush(); err != nil {
		return 0, fmt.Errorf("flush appender: %w", err)
	}
	return n, nil
}

// SampleValue is the expression of a gene in one sample.
type SampleValue struct {
	Sample string
	FPKM   float64
}

// Gene returns the stored expression of gene in dataset, ordered by sample.
func (s *Store) Gene(dataset, gene string) ([]SampleValue, error) {
	rows, err := s.db.Query(`SELECT sample, fpkm FROM expression
		WHERE dataset = ? AND gene_id = ?
		ORDER BY sample`, dataset, gene)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	var out []SampleValue
	for rows.Next() {
		var v SampleValue
		if err := rows.Scan(&v.Sample, &v.FPKM); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene rows: %w", err)
	}
	return out, nil
}

// DatasetInfo summarizes an imported dataset.
type DatasetInfo struct {
	Name    string
	Genes   int64
	Samples int64
	Values  int64
}

// Datasets lists the imported datasets by name.
func (s *Store) Datasets() ([]DatasetInfo, error) {
	rows, err := s.db.Query(`SELECT dataset,
			COUNT(DISTINCT gene_id), COUNT(DISTINCT sample), COUNT(*)
		FROM expression
		GROUP BY dataset
		ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetInfo
	for rows.Next() {
		var d DatasetInfo
		if err := rows.Scan(&d.Name, &d.Genes, &d.Samples, &d.Values); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}
