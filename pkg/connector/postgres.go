// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/config"
	"github.com/David-Botos/census-ingress/pkg/converter"
	"github.com/David-Botos/census-ingress/pkg/model"
)

// PostgresConnector writes cleaned tables and audit records to PostgreSQL
type PostgresConnector struct {
	db        *sqlx.DB
	logger    *zap.Logger
	cfg       *config.PostgresConfig
	conv      *converter.TypeConverter
	batchSize int
}

// auditRow is the persisted form of a model.CleaningOperation
type auditRow struct {
	RunID             string         `db:"run_id"`
	ColumnName        string         `db:"column_name"`
	OriginalValue     sql.NullString `db:"original_value"`
	NewValue          string         `db:"new_value"`
	RowIdentifier     string         `db:"row_identifier"`
	CleaningOperation string         `db:"cleaning_operation"`
	CleaningReason    string         `db:"cleaning_reason"`
	CleanedAt         time.Time      `db:"cleaned_at"`
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(
	ctx context.Context,
	cfg *config.PostgresConfig,
	logger *zap.Logger,
	batchSize int,
) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:        db,
		logger:    logger,
		cfg:       cfg,
		conv:      converter.NewTypeConverter(logger),
		batchSize: batchSize,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// ExecWithTimeout executes a statement bounded by the configured statement timeout
func (c *PostgresConnector) ExecWithTimeout(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	timeout := c.cfg.StatementTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// WriteTable creates the configured target table if needed and inserts t
func (c *PostgresConnector) WriteTable(ctx context.Context, t *model.Table, metadata *model.TableMetadata) (int64, error) {
	if metadata == nil {
		metadata = model.InferMetadata(t, c.cfg.Schema, c.cfg.Table)
	}
	c.conv.ApplyPostgresTypes(metadata)

	defs, err := c.conv.GenerateColumnDefinitions(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to build column definitions: %w", err)
	}

	if err := c.ensureSchema(ctx, metadata.Schema); err != nil {
		return 0, err
	}
	if err := c.CreateTableIfNotExists(ctx, metadata.Schema, metadata.Table, defs); err != nil {
		return 0, err
	}

	valueRows := make([][]interface{}, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		values, err := c.conv.ConvertRow(t.Row(i), metadata)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		valueRows = append(valueRows, values)
	}

	columns := make([]string, len(metadata.Columns))
	for i, col := range metadata.Columns {
		columns[i] = converter.QuoteIdentifier(col.Name)
	}

	return c.BatchInsert(ctx, metadata.Schema, metadata.Table, columns, valueRows)
}

// BatchInsert performs a bulk insert into a table inside one transaction
func (c *PostgresConnector) BatchInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
) (int64, error) {
	if len(valueRows) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var totalRowsInserted int64
	for _, r := range BatchRanges(len(valueRows), c.batchSize) {
		query, args := buildInsertQuery(qualifiedName(schema, table), columns, valueRows[r[0]:r[1]])

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			c.rollback(tx, err)
			return 0, fmt.Errorf("batch insert failed: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.logger.Warn("Couldn't get rows affected", zap.Error(err))
		} else {
			totalRowsInserted += rowsAffected
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Inserted rows",
		zap.String("table", qualifiedName(schema, table)),
		zap.Int64("rows", totalRowsInserted))
	return totalRowsInserted, nil
}

// CreateTableIfNotExists creates a table with the specified columns if it doesn't exist
func (c *PostgresConnector) CreateTableIfNotExists(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
) error {
	fullTableName := qualifiedName(schema, table)

	createSQL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		fullTableName,
		strings.Join(columnDefs, ",\n\t"),
	)

	if _, err := c.ExecWithTimeout(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	c.logger.Debug("Ensured table exists", zap.String("table", fullTableName))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations into the audit table
func (c *PostgresConnector) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error {
	if len(operations) == 0 {
		return nil
	}

	if err := c.ensureAuditTable(ctx); err != nil {
		return err
	}

	rows := toAuditRows(operations)
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s
		(run_id, column_name, original_value, new_value,
		 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :column_name, :original_value, :new_value,
		 :row_identifier, :cleaning_operation, :cleaning_reason, :cleaned_at)
	`, qualifiedName(c.cfg.Schema, c.cfg.AuditTable))

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, r := range BatchRanges(len(rows), c.batchSize) {
		if _, err := tx.NamedExecContext(ctx, insertSQL, rows[r[0]:r[1]]); err != nil {
			c.rollback(tx, err)
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// ensureAuditTable ensures the cleaning audit table exists
func (c *PostgresConnector) ensureAuditTable(ctx context.Context) error {
	if err := c.ensureSchema(ctx, c.cfg.Schema); err != nil {
		return err
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`, qualifiedName(c.cfg.Schema, c.cfg.AuditTable))

	if _, err := c.ExecWithTimeout(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

// ensureSchema creates a schema if it doesn't exist
func (c *PostgresConnector) ensureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	if _, err := c.ExecWithTimeout(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema)); err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", schema, err)
	}
	return nil
}

func (c *PostgresConnector) rollback(tx *sqlx.Tx, cause error) {
	if rbErr := tx.Rollback(); rbErr != nil {
		c.logger.Error("Failed to rollback transaction",
			zap.Error(rbErr),
			zap.NamedError("cause", cause))
	}
}

// buildInsertQuery builds a multi-row INSERT with positional placeholders
func buildInsertQuery(fullTableName string, columns []string, rows [][]interface{}) (string, []interface{}) {
	placeholders := make([]string, len(rows))
	args := make([]interface{}, 0, len(rows)*len(columns))

	for j, row := range rows {
		rowPlaceholders := make([]string, len(columns))
		for k := range columns {
			rowPlaceholders[k] = fmt.Sprintf("$%d", j*len(columns)+k+1)
			args = append(args, row[k])
		}
		placeholders[j] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		fullTableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func qualifiedName(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

func toAuditRows(operations []model.CleaningOperation) []auditRow {
	rows := make([]auditRow, len(operations))
	for i, op := range operations {
		cleanedAt := op.CleanedAt
		if cleanedAt.IsZero() {
			cleanedAt = time.Now()
		}
		rows[i] = auditRow{
			RunID:             op.RunID,
			ColumnName:        op.ColumnName,
			OriginalValue:     toNullString(op.OriginalValue),
			NewValue:          op.NewValue,
			RowIdentifier:     op.RowIdentifier,
			CleaningOperation: op.CleaningOperation,
			CleaningReason:    op.CleaningReason,
			CleanedAt:         cleanedAt,
		}
	}
	return rows
}

// toNullString safely converts an interface to a nullable string
func toNullString(v interface{}) sql.NullString {
	if model.IsMissing(v) {
		return sql.NullString{}
	}
	return sql.NullString{String: fmt.Sprintf("%v", v), Valid: true}
}
