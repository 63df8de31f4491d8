package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List git checkouts the server can index",
	RunE: func(cmd *cobra.Command, args []string) error {
		var repos []string
		if err := getJSON(serverURL+"/repos/", &repos); err != nil {
			return err
		}
		for _, r := range repos {
			fmt.Println(r)
		}
		return nil
	},
}
