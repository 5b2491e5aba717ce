package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/cache"
	"framesight/internal/config"
	"framesight/internal/pipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extracted-frame cache",
}

func openCache(cmd *cobra.Command) (*cache.Manager, error) {
	cfg := config.FromContext(cmd.Context())
	pipe, err := pipeline.New(log.Logger, cfg)
	if err != nil {
		return nil, err
	}
	return pipe.Cache(), nil
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCache(cmd)
		if err != nil {
			return err
		}
		count, bytes, err := mgr.Usage()
		if err != nil {
			return err
		}
		color.New(color.Bold).Printf("%d entries, %.1f MB\n", count, float64(bytes)/(1024*1024))

		entries, err := mgr.Entries()
		if err != nil {
			return err
		}
		dimStyle := color.New(color.Faint)
		for _, e := range entries {
			dimStyle.Printf("  %s  %.1f MB  %s\n",
				e.Key, float64(e.SizeBytes)/(1024*1024), e.ModTime.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop entries past the configured age and size limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCache(cmd)
		if err != nil {
			return err
		}
		n, err := mgr.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d entries\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openCache(cmd)
		if err != nil {
			return err
		}
		n, err := mgr.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
