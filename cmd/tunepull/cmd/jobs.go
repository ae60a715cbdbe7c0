package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	// Job submit flags
	playlistName string
	numTracks    int
	inputFile    string

	// Job status flags
	followStatus bool
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage download jobs",
	Long:  `Commands for submitting, listing, and inspecting download jobs.`,
}

// jobsSubmitCmd represents the jobs submit command
var jobsSubmitCmd = &cobra.Command{
	Use:   "submit <input>",
	Short: "Submit a new download job",
	Long: `Submit a URL, a search query, a vibe description, or pasted playlist
text (via --file) to the server. The server classifies the input itself.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobsSubmit,
}

// jobsStatusCmd represents the jobs status command
var jobsStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Get job status",
	Long:  `Retrieve the status of a specific job by its ID. If no ID is provided, lists all jobs.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJobsStatus,
}

// jobsFailuresCmd represents the jobs failures command
var jobsFailuresCmd = &cobra.Command{
	Use:   "failures <job-id>",
	Short: "List failed tracks for a job",
	Long:  `Show the tracks of a job that could not be downloaded, with their errors.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsFailures,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsSubmitCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsFailuresCmd)

	// Flags for job submit
	jobsSubmitCmd.Flags().StringVar(&playlistName, "name", "", "playlist name used for the output directory")
	jobsSubmitCmd.Flags().IntVar(&numTracks, "tracks", 0, "number of tracks to generate for vibe inputs")
	jobsSubmitCmd.Flags().StringVar(&inputFile, "file", "", "read the input from a file (for pasted playlist text)")

	// Flags for job status
	jobsStatusCmd.Flags().BoolVar(&followStatus, "follow", false, "poll job status every 2 seconds until completion")
}

type jobRequest struct {
	Input        string `json:"input"`
	PlaylistName string `json:"playlist_name,omitempty"`
	NumTracks    int    `json:"num_tracks,omitempty"`
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type failedTrack struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

type jobResponse struct {
	ID              string        `json:"job_id"`
	InputType       string        `json:"input_type"`
	InputValue      string        `json:"input_value"`
	Status          string        `json:"status"`
	TotalTracks     int           `json:"total_tracks"`
	CompletedTracks int           `json:"completed_tracks"`
	FailedTracks    int           `json:"failed_tracks"`
	ErrorMessages   []string      `json:"error_messages"`
	FailedDetails   []failedTrack `json:"failed_track_details"`
	OutputDirectory string        `json:"output_directory"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at"`
}

func isTerminal(status string) bool {
	return status == "completed" || status == "completed_with_errors" || status == "failed"
}

func runJobsSubmit(cmd *cobra.Command, args []string) error {
	var input string
	switch {
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		input = string(data)
	case len(args) == 1:
		input = args[0]
	default:
		return fmt.Errorf("provide an input argument or --file")
	}

	req := jobRequest{
		Input:        input,
		PlaylistName: playlistName,
		NumTracks:    numTracks,
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/jobs", GetServerURL())
	resp, err := GetHTTPClient().Post(url, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result submitResponse
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

		table.Append("Job ID", result.JobID)
		table.Append("Status", result.Status)
		table.Append("Message", result.Message)

		table.Render()
		fmt.Printf("\nJob submitted successfully! Track it with: tunepull jobs status %s\n", result.JobID)
	}

	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	// If no job ID provided, list all jobs
	if len(args) == 0 {
		return listAllJobs()
	}

	jobID := args[0]

	if followStatus {
		// Follow mode: poll every 2 seconds
		fmt.Printf("Following job %s (press Ctrl+C to stop)...\n\n", jobID)
		for {
			result, err := fetchJobStatus(jobID)
			if err != nil {
				return err
			}

			fmt.Print("\033[H\033[2J") // Clear screen
			displayJobStatus(result)

			if isTerminal(result.Status) {
				fmt.Println("\nJob reached terminal state")
				break
			}

			time.Sleep(2 * time.Second)
		}
	} else {
		result, err := fetchJobStatus(jobID)
		if err != nil {
			return err
		}
		displayJobStatus(result)
	}

	return nil
}

func listAllJobs() error {
	url := fmt.Sprintf("%s/api/jobs", GetServerURL())

	resp, err := GetHTTPClient().Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var jobs []jobResponse
	if err := json.Unmarshal(body, &jobs); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Job ID", "Type", "Input", "Status", "Tracks", "Created")

		for _, job := range jobs {
			input := job.InputValue
			if len(input) > 40 {
				input = input[:37] + "..."
			}
			input = strings.ReplaceAll(input, "\n", " ")

			tracks := "-"
			if job.TotalTracks > 0 {
				tracks = fmt.Sprintf("%d/%d", job.CompletedTracks, job.TotalTracks)
			}

			table.Append(
				shortID(job.ID),
				job.InputType,
				input,
				job.Status,
				tracks,
				job.CreatedAt.Format("2006-01-02 15:04"),
			)
		}

		table.Render()
		fmt.Printf("\nTotal jobs: %d\n", len(jobs))
	}

	return nil
}

func fetchJobStatus(jobID string) (*jobResponse, error) {
	url := fmt.Sprintf("%s/api/jobs/%s", GetServerURL(), jobID)

	resp, err := GetHTTPClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result jobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

func displayJobStatus(result *jobResponse) {
	if IsJSONOutput() {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Job ID", result.ID)
	table.Append("Type", result.InputType)
	table.Append("Status", result.Status)
	table.Append("Created At", result.CreatedAt.Format(time.RFC3339))

	if result.TotalTracks > 0 {
		table.Append("Tracks", fmt.Sprintf("%d/%d completed, %d failed",
			result.CompletedTracks, result.TotalTracks, result.FailedTracks))
	}
	if result.OutputDirectory != "" {
		table.Append("Output", result.OutputDirectory)
	}
	if result.CompletedAt != nil {
		table.Append("Completed At", result.CompletedAt.Format(time.RFC3339))
	}
	if len(result.ErrorMessages) > 0 {
		table.Append("Errors", strings.Join(result.ErrorMessages, "; "))
	}

	table.Render()
}

func runJobsFailures(cmd *cobra.Command, args []string) error {
	result, err := fetchJobStatus(args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(result.FailedDetails, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(result.FailedDetails) == 0 {
		fmt.Println("No failed tracks for this job")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Artist", "Title", "Error")
	for _, track := range result.FailedDetails {
		table.Append(track.Artist, track.Title, track.Error)
	}
	table.Render()
	fmt.Printf("\nFailed tracks: %d\n", len(result.FailedDetails))

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
