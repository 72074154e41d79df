package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/miarh/pkg/cli"
	"mercator-hq/miarh/pkg/config"
	tlsutil "mercator-hq/miarh/pkg/security/tls"
)

var checkFlags struct {
	output string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect gateway configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and certificate coverage",
	Long: `Load and validate the configuration file, load the TLS identity and report
which virtual host names the certificate does not cover.

Output formats:
  - text (default): Human-readable summary
  - json: JSON-formatted output for scripting

Examples:
  # Check the default config
  miarh config check

  # Check a specific file and print JSON
  miarh config check --config /etc/miarh/miarh.yaml --output json`,
	Args: cobra.NoArgs,
	RunE: checkConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)

	configCheckCmd.Flags().StringVarP(&checkFlags.output, "output", "o", "text", "output format: text, json")
}

// hostSummary describes one virtual host in the check report.
type hostSummary struct {
	Name       string   `json:"name"`
	Hostnames  []string `json:"hostnames"`
	SocketPath string   `json:"socket_path"`
	StaticRoot string   `json:"static_root"`
	Uncovered  []string `json:"uncovered,omitempty"`
}

// checkReport is the result of config check.
type checkReport struct {
	ConfigFile      string        `json:"config_file"`
	HTTPSAddress    string        `json:"https_address"`
	HTTPAddress     string        `json:"http_address"`
	VirtualHosts    []hostSummary `json:"virtual_hosts"`
	Subject         string        `json:"certificate_subject"`
	Issuer          string        `json:"certificate_issuer"`
	NotAfter        time.Time     `json:"certificate_not_after"`
	DaysUntilExpiry int           `json:"days_until_expiry"`
	Warnings        []string      `json:"warnings,omitempty"`
}

func (r *checkReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Configuration valid: %s\n", r.ConfigFile)
	fmt.Fprintf(&b, "  HTTPS: %s\n", r.HTTPSAddress)
	fmt.Fprintf(&b, "  HTTP:  %s\n", r.HTTPAddress)
	fmt.Fprintf(&b, "✓ Certificate: %s\n", r.Subject)
	fmt.Fprintf(&b, "  Issuer:  %s\n", r.Issuer)
	fmt.Fprintf(&b, "  Expires: %s (%d days)\n", r.NotAfter.Format(time.RFC3339), r.DaysUntilExpiry)
	fmt.Fprintf(&b, "Virtual hosts (%d):\n", len(r.VirtualHosts))
	for _, vh := range r.VirtualHosts {
		fmt.Fprintf(&b, "  %s: %s -> %s (static %s)\n",
			vh.Name, strings.Join(vh.Hostnames, ", "), vh.SocketPath, vh.StaticRoot)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "⚠ %s\n", w)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func checkConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(checkFlags.output)
	if err != nil {
		return cli.NewCommandError("config check", err)
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	report, err := buildReport(cfg, time.Now())
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	report.ConfigFile = cfgFile

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
}

// buildReport loads the TLS identity named by cfg and summarizes it against
// the virtual host table.
func buildReport(cfg *config.Config, now time.Time) (*checkReport, error) {
	certs := tlsutil.NewCertificateReloader(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile, nil)
	if err := certs.Load(); err != nil {
		return nil, fmt.Errorf("failed to load TLS identity: %w", err)
	}
	leaf, err := tlsutil.Leaf(certs.GetCertificate())
	if err != nil {
		return nil, err
	}
	if _, err := tlsutil.ServerConfig(cfg.Security.TLS, certs); err != nil {
		return nil, err
	}

	info := tlsutil.ExtractCertificateInfo(leaf)
	report := &checkReport{
		HTTPSAddress: net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.HTTPSPort)),
		HTTPAddress:  net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.HTTPPort)),
		Subject:      info.Subject,
		Issuer:       info.Issuer,
		NotAfter:     info.NotAfter,
	}

	if err := tlsutil.ValidateX509Certificate(leaf, now); err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	}
	var warning string
	report.DaysUntilExpiry, warning = tlsutil.CheckCertificateExpiration(leaf, now)
	if warning != "" {
		report.Warnings = append(report.Warnings, warning)
	}

	for i := range cfg.VirtualHosts {
		vh := &cfg.VirtualHosts[i]
		summary := hostSummary{
			Name:       vh.Name,
			Hostnames:  vh.Hostnames,
			SocketPath: vh.SocketPath,
			StaticRoot: cfg.StaticRoot(vh),
			Uncovered:  tlsutil.Covers(leaf, vh.Hostnames),
		}
		if len(summary.Uncovered) > 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"certificate does not cover %s for virtual host %q",
				strings.Join(summary.Uncovered, ", "), vh.Name))
		}
		report.VirtualHosts = append(report.VirtualHosts, summary)
	}
	return report, nil
}
