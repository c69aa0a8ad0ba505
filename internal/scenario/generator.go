package scenario

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/teleops-rca/internal/models"
)

// NoiseTag is the correlation tag carried by background alerts.
const NoiseTag = "noise"

// DefaultTenant owns generated alerts.
const DefaultTenant = "tenant-a"

// Config controls scenario generation.
type Config struct {
	IncidentType    string
	AlertRatePerMin int
	DurationMin     int
	NoiseRatePerMin int
	Seed            int64
	// Start is the first minute of the scenario. Zero means now.
	Start time.Time
}

// DefaultConfig mirrors the rates used for evaluation runs.
func DefaultConfig() Config {
	return Config{
		IncidentType:    "network_degradation",
		AlertRatePerMin: 20,
		DurationMin:     10,
		NoiseRatePerMin: 5,
		Seed:            42,
	}
}

// GroundTruth is the known answer for a generated scenario.
type GroundTruth struct {
	IncidentType string   `json:"incident_type"`
	RootCause    string   `json:"root_cause"`
	Remediation  []string `json:"remediation_steps"`
}

// Scenario is a generated alert stream and its ground truth.
type Scenario struct {
	Alerts      []models.Alert
	GroundTruth GroundTruth
}

// IncidentAlerts returns only the alerts tagged with the scenario's incident type.
func (s Scenario) IncidentAlerts() []models.Alert {
	out := make([]models.Alert, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		if a.CorrelationTag() == s.GroundTruth.IncidentType {
			out = append(out, a)
		}
	}
	return out
}

// Generate produces a deterministic scenario for cfg. The same seed and start
// always give the same alerts, ids included.
func Generate(cfg Config) (Scenario, error) {
	profile, ok := Lookup(cfg.IncidentType)
	if !ok {
		return Scenario{}, fmt.Errorf("unsupported incident type: %q", cfg.IncidentType)
	}
	if cfg.AlertRatePerMin < 0 || cfg.DurationMin < 0 || cfg.NoiseRatePerMin < 0 {
		return Scenario{}, fmt.Errorf("scenario rates must be non-negative")
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(cfg.Seed))
	src := rand.NewChaCha8(seed)
	g := &generator{rng: rand.New(src), src: src, tenant: DefaultTenant}

	alerts := make([]models.Alert, 0, cfg.DurationMin*(cfg.AlertRatePerMin+cfg.NoiseRatePerMin))
	for minute := 0; minute < cfg.DurationMin; minute++ {
		ts := start.Add(time.Duration(minute) * time.Minute).UTC()
		for i := 0; i < cfg.AlertRatePerMin; i++ {
			alerts = append(alerts, g.incidentAlert(profile, ts))
		}
		for i := 0; i < cfg.NoiseRatePerMin; i++ {
			alerts = append(alerts, g.noiseAlert(ts))
		}
	}

	return Scenario{
		Alerts: alerts,
		GroundTruth: GroundTruth{
			IncidentType: profile.Type,
			RootCause:    profile.RootCause,
			Remediation:  append([]string(nil), profile.Remediation...),
		},
	}, nil
}

type generator struct {
	rng    *rand.Rand
	src    *rand.ChaCha8
	tenant string
}

func (g *generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

func (g *generator) id() string {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *generator) incidentAlert(p Profile, ts time.Time) models.Alert {
	host := g.pick(p.Hosts)
	return models.Alert{
		ID:           g.id(),
		Timestamp:    ts,
		SourceSystem: p.SourceSystem,
		Host:         host,
		Service:      g.pick(p.Services),
		Severity:     "critical",
		AlertType:    g.pick(p.AlertTypes),
		Message:      fmt.Sprintf(p.MessageTemplate, host),
		Tags:         map[string]string{models.CorrelationTagKey: p.Type},
		RawPayload:   map[string]any{"value": g.rng.IntN(100) + 1},
		TenantID:     g.tenant,
	}
}

func (g *generator) noiseAlert(ts time.Time) models.Alert {
	return models.Alert{
		ID:           g.id(),
		Timestamp:    ts,
		SourceSystem: g.pick([]string{"k8s-node", "db", "web-app"}),
		Host:         fmt.Sprintf("host-%d", g.rng.IntN(90)+10),
		Service:      g.pick([]string{"billing", "auth", "api-gateway"}),
		Severity:     g.pick([]string{"warning", "info"}),
		AlertType:    g.pick([]string{"cpu_spike", "disk_io", "http_5xx"}),
		Message:      "Unrelated transient alert",
		Tags:         map[string]string{models.CorrelationTagKey: NoiseTag},
		RawPayload:   map[string]any{"value": g.rng.IntN(100) + 1},
		TenantID:     g.tenant,
	}
}
