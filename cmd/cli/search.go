package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchK             int
	searchRepoID        string
	searchStackType     string
	searchComponentType string
	searchScreenName    string
	searchTags          []string
	searchExpandGraph   int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed code by natural-language query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"query": args[0],
		}
		if searchK > 0 {
			req["k"] = searchK
		}
		if searchRepoID != "" {
			req["repo_id"] = searchRepoID
		}
		if searchStackType != "" {
			req["stack_type"] = searchStackType
		}
		if searchComponentType != "" {
			req["component_type"] = searchComponentType
		}
		if searchScreenName != "" {
			req["screen_name"] = searchScreenName
		}
		if len(searchTags) > 0 {
			req["tags"] = searchTags
		}
		if searchExpandGraph > 0 {
			req["expand_call_graph"] = searchExpandGraph
		}

		var hits []struct {
			ID        string         `json:"id"`
			Score     float32        `json:"score"`
			Payload   map[string]any `json:"payload"`
			BlockText string         `json:"block_text"`
			FocusText string         `json:"focus_text"`
		}
		if err := postJSON(serverURL+"/search", req, &hits); err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("--- %s (score=%.4f) ---\n", h.ID, h.Score)
			if path, ok := h.Payload["path"].(string); ok {
				fmt.Println(path)
			}
			if h.FocusText != "" {
				fmt.Println(h.FocusText)
			} else if h.BlockText != "" {
				fmt.Println(h.BlockText)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchK, "k", 0, "number of results to return")
	searchCmd.Flags().StringVar(&searchRepoID, "repo", "", "restrict search to a repository id")
	searchCmd.Flags().StringVar(&searchStackType, "stack-type", "", "restrict search to a stack type")
	searchCmd.Flags().StringVar(&searchComponentType, "component-type", "", "restrict search to a component type")
	searchCmd.Flags().StringVar(&searchScreenName, "screen-name", "", "restrict search to a screen name")
	searchCmd.Flags().StringSliceVar(&searchTags, "tags", nil, "restrict search to any of these tags")
	searchCmd.Flags().IntVar(&searchExpandGraph, "expand-graph", 0, "widen results by following stored call-graph edges up to N extra hits")
}
