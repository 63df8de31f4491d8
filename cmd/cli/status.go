package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <repo_id>",
	Short: "Show working-tree and indexing status for a repository",
}

var statusRepoCmd = &cobra.Command{
	Use:   "repo <repo_id>",
	Short: "Show git porcelain status of the repository checkout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Modified []string `json:"modified"`
			Added    []string `json:"added"`
			Deleted  []string `json:"deleted"`
			Renamed  []string `json:"renamed"`
		}
		url := fmt.Sprintf("%s/repos/%s/status", serverURL, args[0])
		if err := getJSON(url, &resp); err != nil {
			return err
		}
		printGroup("modified", resp.Modified)
		printGroup("added", resp.Added)
		printGroup("deleted", resp.Deleted)
		printGroup("renamed", resp.Renamed)
		return nil
	},
}

var statusIndexCmd = &cobra.Command{
	Use:   "index <repo_id>",
	Short: "Show the last indexing run's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			RepoID                  string `json:"repo_id"`
			LastIndexedCommit       string `json:"last_indexed_commit"`
			LastIndexMode           string `json:"last_index_mode"`
			LastIndexStatus         string `json:"last_index_status"`
			LastIndexError          string `json:"last_index_error,omitempty"`
			LastIndexTotalFiles     int    `json:"last_index_total_files"`
			LastIndexProcessedFiles int    `json:"last_index_processed_files"`
			LastIndexCurrentFile    string `json:"last_index_current_file,omitempty"`
		}
		url := fmt.Sprintf("%s/repos/%s/index/status", serverURL, args[0])
		if err := getJSON(url, &resp); err != nil {
			return err
		}
		fmt.Printf("repo_id:         %s\n", resp.RepoID)
		fmt.Printf("last commit:     %s\n", resp.LastIndexedCommit)
		fmt.Printf("mode:            %s\n", resp.LastIndexMode)
		fmt.Printf("status:          %s\n", resp.LastIndexStatus)
		if resp.LastIndexError != "" {
			fmt.Printf("error:           %s\n", resp.LastIndexError)
		}
		fmt.Printf("progress:        %d/%d\n", resp.LastIndexProcessedFiles, resp.LastIndexTotalFiles)
		if resp.LastIndexCurrentFile != "" {
			fmt.Printf("current file:    %s\n", resp.LastIndexCurrentFile)
		}
		return nil
	},
}

func printGroup(label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, f := range files {
		fmt.Printf("  %s\n", f)
	}
}

func init() {
	statusCmd.AddCommand(statusRepoCmd)
	statusCmd.AddCommand(statusIndexCmd)
}
