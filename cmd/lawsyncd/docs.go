// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDocsCmd(configPath *string) *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Document file queue operations",
	}
	docs.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one document queue pass (upload pending files, download missing ones)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.RunDocumentQueue(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("document queue pass complete")
			return nil
		},
	})
	return docs
}
