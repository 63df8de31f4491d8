package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Trigger indexing on the server and stream progress",
}

var indexStackType string

var indexFullCmd = &cobra.Command{
	Use:   "full <repo_id>",
	Short: "Run a full (re)index of a repository at HEAD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoID := args[0]
		url := fmt.Sprintf("%s/repos/%s/index/full", serverURL, repoID)
		if indexStackType != "" {
			url += "?stack_type=" + indexStackType
		}
		return streamNDJSON(url, printIndexEvent)
	},
}

var indexUpdateCmd = &cobra.Command{
	Use:   "update <repo_id>",
	Short: "Incrementally index a repository from its last indexed commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoID := args[0]
		url := fmt.Sprintf("%s/repos/%s/index/update", serverURL, repoID)
		if indexStackType != "" {
			url += "?stack_type=" + indexStackType
		}
		return streamNDJSON(url, printIndexEvent)
	},
}

func printIndexEvent(line []byte) {
	var ev struct {
		Kind           string `json:"kind"`
		File           string `json:"file"`
		ProcessedFiles int    `json:"processed_files"`
		TotalFiles     int    `json:"total_files"`
		LastCommit     string `json:"last_commit"`
		Message        string `json:"message"`
	}
	if err := json.Unmarshal(line, &ev); err != nil {
		fmt.Println(string(line))
		return
	}
	switch ev.Kind {
	case "processing":
		fmt.Printf("[%d/%d] %s\n", ev.ProcessedFiles, ev.TotalFiles, ev.File)
	case "completed":
		fmt.Printf("done at %s\n", ev.LastCommit)
	case "noop":
		fmt.Println("nothing to index")
	case "error":
		fmt.Printf("error: %s\n", ev.Message)
	default:
		fmt.Println(string(line))
	}
}

func init() {
	indexCmd.PersistentFlags().StringVar(&indexStackType, "stack-type", "", "override the repository's stack type for this run")
	indexCmd.AddCommand(indexFullCmd)
	indexCmd.AddCommand(indexUpdateCmd)
}
