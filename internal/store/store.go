package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

const (
	// DriverSQLite selects the embedded sqlite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the postgres driver.
	DriverPostgres = "postgres"

	// SourceAny matches artifacts from every hypothesis source.
	SourceAny = "any"
	// SourceBaseline matches rule-table artifacts only.
	SourceBaseline = "baseline"
	// SourceModel matches artifacts from any non-baseline model.
	SourceModel = "model"

	batchSize = 200
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Counts summarises table sizes.
type Counts struct {
	Alerts    int64 `json:"alerts"`
	Incidents int64 `json:"incidents"`
	Artifacts int64 `json:"rca_artifacts"`
}

// Store persists alerts, incidents and hypothesis artifacts through gorm.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to driver/dsn and migrates the schema.
func Open(driver, dsn string, log *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		if dsn == "" {
			dsn = "teleops.db"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, utils.NewAppError(utils.KindConfig, "store.Open", fmt.Sprintf("unsupported driver %q", driver), nil)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, utils.NewAppError(utils.KindStore, "store.Open", "connect to database", err)
	}
	if dialector.Name() == DriverSQLite {
		// :memory: databases live per connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, utils.NewAppError(utils.KindStore, "store.Open", "access connection pool", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, log)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&alertRow{}, &incidentRow{}, &artifactRow{}); err != nil {
		return nil, utils.NewAppError(utils.KindStore, "store.New", "run migrations", err)
	}
	return &Store{db: db, logger: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAlerts upserts alerts by id.
func (s *Store) SaveAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	rows := make([]alertRow, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, alertToRow(a))
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
	if err != nil {
		return utils.NewAppError(utils.KindStore, "store.SaveAlerts", "insert alerts", err)
	}
	return nil
}

// AlertsByIDs returns the alerts with the given ids in the order requested.
// Unknown ids are skipped.
func (s *Store) AlertsByIDs(ctx context.Context, ids []string) ([]models.Alert, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[string]models.Alert, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		var rows []alertRow
		if err := s.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Find(&rows).Error; err != nil {
			return nil, utils.NewAppError(utils.KindStore, "store.AlertsByIDs", "query alerts", err)
		}
		for _, r := range rows {
			byID[r.ID] = r.toModel()
		}
	}
	out := make([]models.Alert, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListAlerts returns the most recent alerts, newest first. limit <= 0 means all.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []alertRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, utils.NewAppError(utils.KindStore, "store.ListAlerts", "query alerts", err)
	}
	out := make([]models.Alert, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SaveIncidents inserts incidents. Existing ids are replaced.
func (s *Store) SaveIncidents(ctx context.Context, incidents []models.Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	rows := make([]incidentRow, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, incidentToRow(inc))
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
	if err != nil {
		return utils.NewAppError(utils.KindStore, "store.SaveIncidents", "insert incidents", err)
	}
	return nil
}

// GetIncident loads one incident.
func (s *Store) GetIncident(ctx context.Context, id string) (models.Incident, error) {
	var row incidentRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Incident{}, utils.NewAppError(utils.KindNotFound, "store.GetIncident", fmt.Sprintf("incident %s", id), ErrNotFound)
	}
	if err != nil {
		return models.Incident{}, utils.NewAppError(utils.KindStore, "store.GetIncident", "query incident", err)
	}
	return row.toModel(), nil
}

// ListIncidents returns incidents ordered by start time, newest first.
func (s *Store) ListIncidents(ctx context.Context, limit int) ([]models.Incident, error) {
	q := s.db.WithContext(ctx).Order("start_time DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []incidentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, utils.NewAppError(utils.KindStore, "store.ListIncidents", "query incidents", err)
	}
	out := make([]models.Incident, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SetRootCause records the suspected root cause of an incident.
func (s *Store) SetRootCause(ctx context.Context, incidentID, rootCause string) error {
	res := s.db.WithContext(ctx).
		Model(&incidentRow{}).
		Where("id = ?", incidentID).
		Update("suspected_root_cause", rootCause)
	if res.Error != nil {
		return utils.NewAppError(utils.KindStore, "store.SetRootCause", "update incident", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewAppError(utils.KindNotFound, "store.SetRootCause", fmt.Sprintf("incident %s", incidentID), ErrNotFound)
	}
	return nil
}

// SaveArtifact stores a hypothesis artifact.
func (s *Store) SaveArtifact(ctx context.Context, artifact models.RCAArtifact) error {
	row := artifactToRow(artifact)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return utils.NewAppError(utils.KindStore, "store.SaveArtifact", "insert artifact", err)
	}
	return nil
}

// LatestArtifact returns the newest artifact for an incident, filtered by
// source: SourceAny (or empty), SourceBaseline or SourceModel.
func (s *Store) LatestArtifact(ctx context.Context, incidentID, source string) (models.RCAArtifact, error) {
	q := s.db.WithContext(ctx).Where("incident_id = ?", incidentID)
	switch source {
	case "", SourceAny:
	case SourceBaseline:
		q = q.Where("model = ?", models.ModelBaseline)
	case SourceModel:
		q = q.Where("model <> ?", models.ModelBaseline)
	default:
		return models.RCAArtifact{}, utils.NewAppError(utils.KindInput, "store.LatestArtifact", fmt.Sprintf("unknown source %q", source), nil)
	}

	var row artifactRow
	err := q.Order("timestamp DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RCAArtifact{}, utils.NewAppError(utils.KindNotFound, "store.LatestArtifact", fmt.Sprintf("artifact for %s", incidentID), ErrNotFound)
	}
	if err != nil {
		return models.RCAArtifact{}, utils.NewAppError(utils.KindStore, "store.LatestArtifact", "query artifact", err)
	}
	return row.toModel(), nil
}

// Counts returns the number of stored rows per table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&alertRow{}).Count(&c.Alerts).Error; err != nil {
		return Counts{}, utils.NewAppError(utils.KindStore, "store.Counts", "count alerts", err)
	}
	if err := db.Model(&incidentRow{}).Count(&c.Incidents).Error; err != nil {
		return Counts{}, utils.NewAppError(utils.KindStore, "store.Counts", "count incidents", err)
	}
	if err := db.Model(&artifactRow{}).Count(&c.Artifacts).Error; err != nil {
		return Counts{}, utils.NewAppError(utils.KindStore, "store.Counts", "count artifacts", err)
	}
	return c, nil
}

// Reset deletes every stored row.
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&artifactRow{}, &incidentRow{}, &alertRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return utils.NewAppError(utils.KindStore, "store.Reset", "delete rows", err)
			}
		}
		s.logger.Warn("store reset")
		return nil
	})
}
