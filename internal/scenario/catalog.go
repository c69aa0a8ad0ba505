package scenario

// Profile describes how one incident type manifests in alerts and what its
// true root cause is.
type Profile struct {
	Type            string
	Hosts           []string
	Services        []string
	AlertTypes      []string
	SourceSystem    string
	MessageTemplate string
	RootCause       string
	Remediation     []string
}

var catalog = []Profile{
	{
		Type:            "network_degradation",
		Hosts:           []string{"core-router-1", "edge-router-3", "agg-switch-2"},
		Services:        []string{"backbone", "edge", "aggregation"},
		AlertTypes:      []string{"packet_loss", "high_latency"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports degraded network performance",
		RootCause:       "link congestion on core-router-1 causing packet loss",
		Remediation: []string{
			"Reroute traffic away from core-router-1",
			"Apply QoS policy to throttle non-critical traffic",
			"Inspect interface errors and clear if safe",
		},
	},
	{
		Type:            "dns_outage",
		Hosts:           []string{"dns-auth-1", "dns-auth-2", "dns-rec-1"},
		Services:        []string{"dns", "resolver"},
		AlertTypes:      []string{"dns_timeout", "servfail_spike", "nx_domain_spike"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports DNS failures",
		RootCause:       "authoritative DNS cluster outage in region-east",
		Remediation: []string{
			"Fail over DNS traffic to secondary region",
			"Restart unhealthy DNS pods or services",
			"Verify zone file integrity and replication",
		},
	},
	{
		Type:            "bgp_flap",
		Hosts:           []string{"core-router-1", "core-router-2"},
		Services:        []string{"routing"},
		AlertTypes:      []string{"bgp_session_flap", "route_withdrawal"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports BGP instability",
		RootCause:       "unstable BGP session with upstream AS65010",
		Remediation: []string{
			"Stabilize the affected BGP session and damp flaps",
			"Engage upstream to validate peering health",
			"Apply route dampening policy for noisy prefixes",
		},
	},
	{
		Type:            "fiber_cut",
		Hosts:           []string{"metro-ring-1", "dwdm-2", "edge-router-3"},
		Services:        []string{"transport", "backhaul"},
		AlertTypes:      []string{"link_down", "loss_of_signal"},
		SourceSystem:    "optical-nms",
		MessageTemplate: "%s reports optical link failure",
		RootCause:       "fiber cut on metro ring segment A",
		Remediation: []string{
			"Reroute traffic over redundant path",
			"Dispatch field team to inspect fiber segment",
			"Validate optical power levels post-repair",
		},
	},
	{
		Type:            "router_freeze",
		Hosts:           []string{"core-router-1"},
		Services:        []string{"control-plane"},
		AlertTypes:      []string{"cpu_spike", "control_plane_hang"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports control plane stall",
		RootCause:       "control plane freeze on core-router-1",
		Remediation: []string{
			"Fail over routing to standby control plane",
			"Collect core dump and reboot if required",
			"Upgrade firmware to latest stable release",
		},
	},
	{
		Type:            "isp_peering_congestion",
		Hosts:           []string{"peering-edge-1", "peering-edge-2"},
		Services:        []string{"peering"},
		AlertTypes:      []string{"high_latency", "packet_loss"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports peering congestion",
		RootCause:       "congestion on ISP peering link with AS64512",
		Remediation: []string{
			"Shift traffic to alternate peer",
			"Coordinate capacity upgrade with peer",
			"Apply traffic engineering for hot prefixes",
		},
	},
	{
		Type:            "ddos_edge",
		Hosts:           []string{"edge-router-3", "scrubbing-1"},
		Services:        []string{"edge", "security"},
		AlertTypes:      []string{"traffic_spike", "syn_flood"},
		SourceSystem:    "security-monitor",
		MessageTemplate: "%s reports DDoS indicators",
		RootCause:       "volumetric DDoS targeting edge-router-3",
		Remediation: []string{
			"Activate scrubbing center routing",
			"Apply rate limiting at edge",
			"Block offending IP ranges upstream",
		},
	},
	{
		Type:            "mpls_vpn_leak",
		Hosts:           []string{"pe-core-1", "pe-core-2"},
		Services:        []string{"mpls"},
		AlertTypes:      []string{"route_leak_detected", "vrf_mismatch"},
		SourceSystem:    "net-snmp",
		MessageTemplate: "%s reports VPN route leak",
		RootCause:       "VRF misconfiguration causing MPLS/L3VPN route leak",
		Remediation: []string{
			"Rollback recent VRF policy changes",
			"Validate route targets and import/export rules",
			"Flush leaked routes and monitor reconvergence",
		},
	},
	{
		Type:            "cdn_cache_stampede",
		Hosts:           []string{"cdn-edge-1", "cdn-edge-2"},
		Services:        []string{"cdn"},
		AlertTypes:      []string{"cache_miss_spike", "origin_latency"},
		SourceSystem:    "cdn-monitor",
		MessageTemplate: "%s reports cache stampede",
		RootCause:       "CDN cache stampede due to misconfigured TTLs",
		Remediation: []string{
			"Restore cache TTL defaults",
			"Warm cache for hot content",
			"Throttle origin requests temporarily",
		},
	},
	{
		Type:            "firewall_rule_misconfig",
		Hosts:           []string{"fw-edge-1", "fw-core-1"},
		Services:        []string{"security"},
		AlertTypes:      []string{"blocked_port", "policy_violation"},
		SourceSystem:    "firewall",
		MessageTemplate: "%s reports blocked traffic",
		RootCause:       "firewall rule misconfiguration blocking critical port",
		Remediation: []string{
			"Rollback recent firewall rule changes",
			"Add explicit allow rule for critical service",
			"Audit policy deployment pipeline",
		},
	},
	{
		Type:            "database_latency_spike",
		Hosts:           []string{"db-primary-1", "db-replica-2"},
		Services:        []string{"msp-database"},
		AlertTypes:      []string{"query_latency", "lock_waits"},
		SourceSystem:    "db",
		MessageTemplate: "%s reports database latency",
		RootCause:       "database contention causing latency spike on MSP hosted apps",
		Remediation: []string{
			"Identify top blocking queries",
			"Scale read replicas or route traffic",
			"Apply indexing or query optimization",
		},
	},
}

// Types lists the supported incident types in catalog order.
func Types() []string {
	out := make([]string, len(catalog))
	for i, p := range catalog {
		out[i] = p.Type
	}
	return out
}

// Lookup returns the profile for an incident type.
func Lookup(incidentType string) (Profile, bool) {
	for _, p := range catalog {
		if p.Type == incidentType {
			return p, true
		}
	}
	return Profile{}, false
}
