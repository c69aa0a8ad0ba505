package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/teleops-rca/internal/models"
	"github.com/miradorstack/teleops-rca/internal/utils"
)

// ErrInvalidRule reports a rule table entry that cannot be evaluated.
var ErrInvalidRule = errors.New("invalid rule")

// RuleTable is an immutable, ordered list of baseline rules. The last rule is
// the fallback used when nothing else matches.
type RuleTable struct {
	rules []models.Rule
}

// RuleConfigFile is the YAML root structure of a rule pack.
type RuleConfigFile struct {
	Rules []models.Rule `yaml:"rules"`
}

// NewRuleTable validates rules and returns a table owning a normalised copy.
func NewRuleTable(rules []models.Rule) (*RuleTable, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule table is empty", ErrInvalidRule)
	}

	seen := make(map[string]struct{}, len(rules))
	normalised := make([]models.Rule, 0, len(rules))
	for i, rule := range rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: rule %d has no id", ErrInvalidRule, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate rule id %q", ErrInvalidRule, id)
		}
		seen[id] = struct{}{}

		if len(rule.Patterns) == 0 {
			return nil, fmt.Errorf("%w: rule %q has no patterns", ErrInvalidRule, id)
		}
		// Padding is kept: " vpn " only matches vpn as a separate word.
		patterns := make([]string, 0, len(rule.Patterns))
		for j, p := range rule.Patterns {
			if strings.TrimSpace(p) == "" {
				return nil, fmt.Errorf("%w: rule %q pattern %d is blank", ErrInvalidRule, id, j)
			}
			patterns = append(patterns, strings.ToLower(p))
		}
		if strings.TrimSpace(rule.Hypothesis) == "" {
			return nil, fmt.Errorf("%w: rule %q has no hypothesis", ErrInvalidRule, id)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("%w: rule %q confidence %v outside [0,1]", ErrInvalidRule, id, rule.Confidence)
		}

		normalised = append(normalised, models.Rule{
			ID:         id,
			Patterns:   patterns,
			Hypothesis: rule.Hypothesis,
			Confidence: rule.Confidence,
			Evidence:   rule.Evidence,
		})
	}
	return &RuleTable{rules: normalised}, nil
}

// LoadRuleTable reads a YAML rule pack. An empty path or a missing file yields
// the built-in table; a malformed or invalid pack is an error.
func LoadRuleTable(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRuleTable(), nil
	}
	table, err := ReadRuleTable(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultRuleTable(), nil
	}
	return table, err
}

// ReadRuleTable reads a YAML rule pack with no fallback: a missing file is an
// error. Reloads use it so a deleted pack never replaces the active table.
func ReadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewAppError(utils.KindConfig, "engine.ReadRuleTable", "read rule pack", err)
	}
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, utils.NewAppError(utils.KindConfig, "engine.ReadRuleTable", "parse rule pack", err)
	}
	table, err := NewRuleTable(cfg.Rules)
	if err != nil {
		return nil, utils.NewAppError(utils.KindConfig, "engine.ReadRuleTable", path, err)
	}
	return table, nil
}

// Rules returns a copy of the table's rules in evaluation order.
func (t *RuleTable) Rules() []models.Rule {
	out := make([]models.Rule, len(t.rules))
	for i, r := range t.rules {
		r.Patterns = append([]string(nil), r.Patterns...)
		out[i] = r
	}
	return out
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// DefaultRuleTable returns the built-in telecom rule pack.
func DefaultRuleTable() *RuleTable {
	table, err := NewRuleTable(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("built-in rule table invalid: %v", err))
	}
	return table
}

var defaultRules = []models.Rule{
	{
		ID:         "dns-outage",
		Patterns:   []string{"dns", "servfail", "nx_domain", "resolver"},
		Hypothesis: "authoritative DNS cluster outage causing resolution failures",
		Confidence: 0.6,
		Evidence:   "dns_timeout/servfail burst across DNS resolvers",
	},
	{
		ID:         "bgp-flap",
		Patterns:   []string{"bgp", "session_flap", "route_withdrawal", "bgp instability"},
		Hypothesis: "unstable BGP session with upstream AS causing route flaps",
		Confidence: 0.6,
		Evidence:   "bgp_session_flap/route_withdrawal alerts on core routers",
	},
	{
		ID:         "fiber-cut",
		Patterns:   []string{"fiber", "link_down", "loss_of_signal", "optical"},
		Hypothesis: "fiber cut on metro ring segment",
		Confidence: 0.65,
		Evidence:   "link_down/loss_of_signal alerts on transport nodes",
	},
	{
		ID:         "router-freeze",
		Patterns:   []string{"control_plane", "control plane", "router_freeze", "stall"},
		Hypothesis: "control plane freeze on core router",
		Confidence: 0.6,
		Evidence:   "control_plane_hang/cpu_spike alerts on a single router",
	},
	{
		ID:         "isp-peering-congestion",
		Patterns:   []string{"peering", "isp_peering", "peering congestion", "peering-edge"},
		Hypothesis: "congestion on ISP peering link",
		Confidence: 0.55,
		Evidence:   "high_latency/packet_loss alerts on peering edges",
	},
	{
		ID:         "ddos-edge",
		Patterns:   []string{"ddos", "syn_flood", "traffic_spike", "scrubbing"},
		Hypothesis: "volumetric DDoS targeting edge router",
		Confidence: 0.65,
		Evidence:   "traffic_spike/syn_flood alerts on edge and scrubbing nodes",
	},
	{
		ID:         "mpls-vpn-leak",
		Patterns:   []string{"mpls", "vrf", "route_leak", "vpn"},
		Hypothesis: "VRF misconfiguration causing MPLS/L3VPN route leak",
		Confidence: 0.6,
		Evidence:   "route_leak_detected/vrf_mismatch alerts on PE routers",
	},
	{
		ID:         "cdn-cache-stampede",
		Patterns:   []string{"cdn", "cache_miss", "stampede", "origin_latency"},
		Hypothesis: "CDN cache stampede due to misconfigured TTLs",
		Confidence: 0.6,
		Evidence:   "cache_miss_spike/origin_latency alerts on CDN edges",
	},
	{
		ID:         "firewall-misconfig",
		Patterns:   []string{"firewall", "blocked_port", "policy_violation", "blocked traffic"},
		Hypothesis: "firewall rule misconfiguration blocking critical port",
		Confidence: 0.6,
		Evidence:   "blocked_port/policy_violation alerts on firewalls",
	},
	{
		ID:         "database-latency",
		Patterns:   []string{"database", "query_latency", "lock_waits", "contention"},
		Hypothesis: "database contention causing latency spike on hosted apps",
		Confidence: 0.6,
		Evidence:   "query_latency/lock_waits alerts on database hosts",
	},
	{
		ID:         "network-degradation",
		Patterns:   []string{"packet_loss", "high_latency", "degraded network", "congestion", "network_degradation"},
		Hypothesis: "link congestion on core-router-1 causing packet loss",
		Confidence: 0.55,
		Evidence:   "packet_loss/high_latency burst on core-router-1",
	},
}
