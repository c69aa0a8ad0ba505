package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// AlertSink receives imported alerts.
type AlertSink interface {
	SaveAlerts(ctx context.Context, alerts []models.Alert) error
}

// Result reports what an import did.
type Result struct {
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count"`
	DryRun bool   `json:"dry_run"`
}

// Mode is the past-tense verb for the result.
func (r Result) Mode() string {
	if r.DryRun {
		return "validated"
	}
	return "imported"
}

// Importer loads JSONL alert exports into an AlertSink.
type Importer struct {
	sink   AlertSink
	now    func() time.Time
	logger *slog.Logger
}

// NewImporter constructs an Importer. sink may be nil for dry runs.
func NewImporter(sink AlertSink, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		sink:   sink,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ImportFile reads path and saves its alerts unless dryRun is set.
func (i *Importer) ImportFile(ctx context.Context, path string, dryRun bool) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, utils.NewAppError(utils.KindInput, "ingest.ImportFile", "open alert file", err)
	}
	defer f.Close()

	res, err := i.Import(ctx, f, dryRun)
	res.Path = path
	return res, err
}

// Import decodes r and saves its alerts unless dryRun is set.
func (i *Importer) Import(ctx context.Context, r io.Reader, dryRun bool) (Result, error) {
	alerts, err := Decode(r, i.now())
	if err != nil {
		return Result{}, err
	}
	res := Result{Count: len(alerts), DryRun: dryRun}
	if dryRun || len(alerts) == 0 {
		return res, nil
	}
	if i.sink == nil {
		return Result{}, utils.NewAppError(utils.KindStore, "ingest.Import", "no alert sink configured", nil)
	}
	if err := i.sink.SaveAlerts(ctx, alerts); err != nil {
		return Result{}, utils.NewAppError(utils.KindStore, "ingest.Import", "save alerts", err)
	}
	i.logger.Info("alerts imported", slog.Int("count", len(alerts)))
	return res, nil
}

// Decode parses JSONL alert records. Blank lines are skipped; a malformed line
// fails the whole batch.
func Decode(r io.Reader, now time.Time) ([]models.Alert, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var alerts []models.Alert
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, utils.NewAppError(utils.KindInput, "ingest.Decode", fmt.Sprintf("line %d", line), err)
		}
		alert, err := rec.ToAlert(now)
		if err != nil {
			return nil, utils.NewAppError(utils.KindInput, "ingest.Decode", fmt.Sprintf("line %d", line), err)
		}
		alerts = append(alerts, alert)
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewAppError(utils.KindInput, "ingest.Decode", "read alerts", err)
	}
	return alerts, nil
}

// ReadFile decodes a JSONL alert file without persisting it.
func ReadFile(path string) ([]models.Alert, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, utils.NewAppError(utils.KindInput, "ingest.ReadFile", "open alert file", err)
	}
	defer f.Close()
	return Decode(f, time.Now().UTC())
}
