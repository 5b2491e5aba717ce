package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/history"
	"framesight/internal/pipeline"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past analyses",
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg := config.FromContext(cmd.Context())
	pipe, err := pipeline.New(log.Logger, cfg)
	if err != nil {
		return nil, err
	}
	return pipe.History(), nil
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		records := store.List(historyLimit)
		if len(records) == 0 {
			color.New(color.Faint).Println("no analyses yet")
			return nil
		}
		dimStyle := color.New(color.Faint)
		for _, r := range records {
			color.New(color.Bold).Printf("%s  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.VideoName)
			dimStyle.Printf("  %s  %s, %d frames, %s\n",
				r.ID[:8], r.IntervalDescription(), r.FrameCount, r.Provider)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one analysis in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		rec, err := findRecord(store, args[0])
		if err != nil {
			return err
		}
		color.New(color.Bold, color.FgCyan).Printf("\n%s\n", rec.VideoName)
		color.New(color.Faint).Printf("%s  %s  %s, %d frames\n",
			rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.IntervalDescription(), rec.FrameCount)
		fmt.Printf("\n%s\n", rec.Result)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one analysis from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		rec, err := findRecord(store, args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(rec.ID); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", rec.ID[:8])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the entire history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		n, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d records\n", n)
		return nil
	},
}

// findRecord resolves a full or abbreviated record ID.
func findRecord(store *history.Store, id string) (*history.Record, error) {
	if rec, err := store.Get(id); err == nil {
		return rec, nil
	}
	var match *history.Record
	for _, r := range store.List(0) {
		if len(id) >= 4 && len(r.ID) >= len(id) && r.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("id %q is ambiguous", id)
			}
			r := r
			match = &r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no record with id %q", id)
	}
	return match, nil
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "max records to show (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
