package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lantern-dev/lantern/internal/adapters/database"
	"github.com/lantern-dev/lantern/internal/config"
	"github.com/lantern-dev/lantern/internal/logging"
	"github.com/lantern-dev/lantern/internal/reporting"
	"github.com/lantern-dev/lantern/internal/strutils"
)

type PostgresStore struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresStore(db *sqlx.DB, schema string) *PostgresStore {
	return &PostgresStore{db, schema}
}

func (s *PostgresStore) Get(ctx context.Context, projectKey, fieldKey string) ([]byte, error) {
	if !strutils.ProjectKeyIsNormalized(projectKey) {
		err := fmt.Errorf("project key is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return nil, err
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		err := fmt.Errorf("failed to get connection: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return nil, err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(s.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
			"schema":   s.schema,
		})
		return nil, err
	}

	var payload []byte
	err = conn.GetContext(
		ctx,
		&payload,
		"SELECT payload FROM project_state WHERE project_key = $1 AND field_key = $2",
		projectKey,
		fieldKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to select project state: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return nil, err
	}

	return payload, nil
}

func (s *PostgresStore) Put(ctx context.Context, projectKey, fieldKey string, payload []byte) error {
	if !strutils.ProjectKeyIsNormalized(projectKey) {
		err := fmt.Errorf("project key is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return err
	}

	txx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return err
	}
	defer txx.Rollback()

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(s.schema)))
	if err != nil {
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
			"schema":   s.schema,
		})
		return err
	}

	if payload == nil {
		_, err = txx.ExecContext(
			ctx,
			"DELETE FROM project_state WHERE project_key = $1 AND field_key = $2",
			projectKey,
			fieldKey,
		)
		if err != nil {
			err := fmt.Errorf("failed to delete project state: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"project":  projectKey,
				"fieldKey": fieldKey,
			})
			return err
		}

		err = txx.Commit()
		if err != nil {
			err := fmt.Errorf("failed to commit transaction: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"project":  projectKey,
				"fieldKey": fieldKey,
			})
			return err
		}

		logging.FromContext(ctx).Info("Cleared project state", "project", projectKey, "fieldKey", fieldKey)
		return nil
	}

	// Don't touch the row when the stored document is unchanged
	var storedPayload []byte
	err = txx.QueryRowxContext(
		ctx,
		"SELECT payload FROM project_state WHERE project_key = $1 AND field_key = $2",
		projectKey,
		fieldKey,
	).Scan(&storedPayload)
	if err == nil {
		equal, err := strutils.JSONStringsEqual(payload, storedPayload)
		if err != nil {
			err := fmt.Errorf("failed to compare payload to previously stored payload: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"project":  projectKey,
				"fieldKey": fieldKey,
			})
			return err
		}
		if equal {
			return nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		err := fmt.Errorf("failed to query stored payload: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		`INSERT INTO project_state (project_key, field_key, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (project_key, field_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		projectKey,
		fieldKey,
		payload,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert project state: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"project":  projectKey,
			"fieldKey": fieldKey,
		})
		return err
	}

	logging.FromContext(ctx).Info("Stored project state", "project", projectKey, "fieldKey", fieldKey)

	return nil
}

func NewPostgresStoreOrMemory(ctx context.Context, conf config.Config, logger *slog.Logger) (Store, error) {
	storeSchemaName := database.GetSchemaName(!conf.IsProduction())

	logger.Info("Initializing database connection")
	db, err := database.NewHostPostgresDatabase(conf)

	if err == nil {
		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, storeSchemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return NewPostgresStore(db, storeSchemaName), nil
	}

	if conf.IsDevelopment() {
		logger.Warn("Failed to connect to database. Falling back to in-memory state store.", "error", err.Error())
		return NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("Failed to connect to database: %w", err)
}
