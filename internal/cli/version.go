package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display build information, and with --remote the status of the configured gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion(cmd.Context(), remote)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "also check the configured gateway")

	return cmd
}

func (c *CLI) runVersion(ctx context.Context, remote bool) error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	serverStatus := "not checked"
	if remote {
		serverStatus = c.gatewayStatus(ctx)
	}

	if c.jsonOutput {
		output := struct {
			VersionInfo
			Server struct {
				Endpoint string `json:"endpoint,omitempty"`
				Status   string `json:"status"`
			} `json:"server"`
		}{
			VersionInfo: info,
		}
		output.Server.Endpoint = c.cfg.Endpoint
		output.Server.Status = serverStatus
		return c.outputJSON(output)
	}

	c.println("querygate")
	c.printf("  Version:    %s\n", info.Version)
	c.printf("  Git Commit: %s\n", info.GitCommit)
	c.printf("  Build Date: %s\n", info.BuildDate)
	c.printf("  Go Version: %s\n", info.GoVersion)
	c.printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)

	if remote {
		c.println("")
		c.println("Server:")
		c.printf("  Endpoint: %s\n", c.cfg.Endpoint)
		c.printf("  Status:   %s\n", serverStatus)
	}

	return nil
}

func (c *CLI) gatewayStatus(ctx context.Context) string {
	if c.cfg.Endpoint == "" {
		return "not configured"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthy, err := c.newGatewayClient().CheckHealth(ctx)
	switch {
	case err != nil:
		return "unavailable"
	case !healthy:
		return "unhealthy"
	default:
		return "healthy"
	}
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("querygate version %s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}
