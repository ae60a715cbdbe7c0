package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Long:  `Query the server health endpoint and report store and disk status.`,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

type healthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	DiskFreeBytes uint64 `json:"disk_free_bytes,omitempty"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", GetServerURL())

	resp, err := GetHTTPClient().Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result healthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")
		table.Append("Status", result.Status)
		table.Append("Store", result.Store)
		if result.DiskFreeBytes > 0 {
			table.Append("Disk Free", fmt.Sprintf("%.1f GiB", float64(result.DiskFreeBytes)/(1<<30)))
		}
		table.Render()
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server reported unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}
