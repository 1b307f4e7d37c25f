// Handles the "sfs mb", "sfs rb" and "sfs stat" bucket commands.
package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamfs/pkg/models"
)

// Filled in by cobra argument parsing in init().
var mbCmdConfig struct {
	description string
	ttl         string
	maxBytes    int64
	memory      bool
	compression bool
	replicas    int
}

// mbCmd represents the mb command.
var mbCmd = &cobra.Command{
	Use:   "mb <bucket>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.CreateBucketRequest{
			Description: mbCmdConfig.description,
			TTL:         mbCmdConfig.ttl,
			MaxBytes:    mbCmdConfig.maxBytes,
			Memory:      mbCmdConfig.memory,
			Compression: mbCmdConfig.compression,
			Replicas:    mbCmdConfig.replicas,
		}
		if err := gatewayClient().CreateBucket(cmd.Context(), args[0], req); err != nil {
			return err
		}

		fmt.Printf("Created bucket %q\n", args[0])
		return nil
	},
}

// rbCmd represents the rb command.
var rbCmd = &cobra.Command{
	Use:   "rb <bucket>",
	Short: "Delete a bucket and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gatewayClient().DeleteBucket(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted bucket %q\n", args[0])
		return nil
	},
}

// statCmd represents the stat command.
var statCmd = &cobra.Command{
	Use:   "stat <bucket>",
	Short: "Show bucket configuration and usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := gatewayClient().BucketStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Bucket:      %s\n", status.Bucket)
		if status.Description != "" {
			fmt.Printf("Description: %s\n", status.Description)
		}
		fmt.Printf("Storage:     %s\n", status.Storage)
		ttl := "none"
		if status.TTL > 0 {
			ttl = status.TTL.String()
		}
		fmt.Printf("TTL:         %s\n", ttl)
		fmt.Printf("Replicas:    %d\n", status.Replicas)
		fmt.Printf("Compression: %t\n", status.Compression)
		fmt.Printf("Size:        %s\n", humanize.IBytes(status.Size))
		fmt.Printf("Messages:    %d\n", status.Messages)
		fmt.Printf("Created:     %s\n", status.Created.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mbCmd)
	rootCmd.AddCommand(rbCmd)
	rootCmd.AddCommand(statCmd)

	mbCmd.Flags().StringVarP(&mbCmdConfig.description, "description", "d", "", "bucket description")
	mbCmd.Flags().StringVar(&mbCmdConfig.ttl, "ttl", "", "object time to live, e.g. 24h (default: keep forever)")
	mbCmd.Flags().Int64Var(&mbCmdConfig.maxBytes, "max-bytes", 0, "cap on total bucket size in bytes (default: unlimited)")
	mbCmd.Flags().BoolVar(&mbCmdConfig.memory, "memory", false, "use memory storage instead of file storage")
	mbCmd.Flags().BoolVar(&mbCmdConfig.compression, "compression", false, "compress chunk payloads at rest")
	mbCmd.Flags().IntVar(&mbCmdConfig.replicas, "replicas", 0, "stream replica count (default: 1)")
}
