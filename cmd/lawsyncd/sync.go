// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync round against the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.Sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("sync complete")
			return nil
		},
	}
}

func newRefreshCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Pull and merge remote changes without pushing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("refresh complete")
			return nil
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show remote schema reachability and pending local work",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.store == nil {
				fmt.Println("remote: unconfigured")
			} else if err := rt.store.CheckSchema(cmd.Context()); err != nil {
				fmt.Printf("remote: %v\n", err)
			} else {
				fmt.Println("remote: reachable, schema complete")
			}

			del, err := rt.local.LoadDeletionSet(cmd.Context(), rt.cfg.OwnerID)
			if err != nil {
				return err
			}
			if del.IsEmpty() {
				fmt.Println("pending deletions: none")
			} else {
				fmt.Println("pending deletions: yes (will be pushed on next sync)")
			}
			return nil
		},
	}
}

func newInitSchemaCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the remote tables if they do not exist (development helper)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.store == nil {
				return fmt.Errorf("no database_url configured")
			}
			if err := rt.store.InitSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("schema ready")
			return nil
		},
	}
}
