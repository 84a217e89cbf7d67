// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// probeTimeout bounds each health probe.
const probeTimeout = 2 * time.Second

// ProbeStatus is the result of one health endpoint probe.
type ProbeStatus struct {
	Probe     string `json:"probe"`
	Healthy   bool   `json:"healthy"`
	Status    int    `json:"status,omitempty"`
	Body      string `json:"body,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd(deps *Deps) *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe a running identityd's health endpoints",
		Long: `Query the liveness and readiness endpoints served on metrics.addr.
Exits non-zero when either probe fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, deps, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, deps *Deps, sc *statusConfig) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("metrics.addr is empty; health endpoints are disabled")
	}

	base := "http://" + cfg.Metrics.Addr
	client := &http.Client{Timeout: probeTimeout}
	probes := []ProbeStatus{
		probe(cmd.Context(), client, "liveness", base+"/healthz/liveness"),
		probe(cmd.Context(), client, "readiness", base+"/healthz/readiness"),
	}

	if sc.jsonOutput {
		data, err := json.MarshalIndent(probes, "", "  ")
		if err != nil {
			return oops.With("operation", "format status").Wrap(err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Print(formatStatusTable(probes))
	}

	for _, p := range probes {
		if !p.Healthy {
			return oops.Code("UNHEALTHY").
				With("probe", p.Probe).
				With("addr", cfg.Metrics.Addr).
				Errorf("%s probe failed", p.Probe)
		}
	}
	return nil
}

func probe(ctx context.Context, client *http.Client, name, url string) ProbeStatus {
	status := ProbeStatus{Probe: name}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		status.LatencyMS = time.Since(start).Milliseconds()
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	status.Status = resp.StatusCode
	status.Body = strings.TrimSpace(string(body))
	status.Healthy = resp.StatusCode == http.StatusOK
	status.LatencyMS = time.Since(start).Milliseconds()
	return status
}

// formatStatusTable formats probe results as a human-readable table.
func formatStatusTable(probes []ProbeStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tHTTP\tLATENCY\tDETAIL")
	for _, p := range probes {
		state := "ok"
		if !p.Healthy {
			state = "failing"
		}
		httpStatus := "-"
		if p.Status != 0 {
			httpStatus = fmt.Sprint(p.Status)
		}
		detail := p.Body
		if p.Error != "" {
			detail = p.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\n", p.Probe, state, httpStatus, p.LatencyMS, detail)
	}

	_ = w.Flush()
	return sb.String()
}
