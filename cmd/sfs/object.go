// Handles the "sfs ls", "sfs put", "sfs get", "sfs info" and "sfs rm"
// object commands.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamfs/pkg/client"
)

// lsCmd represents the ls command.
var lsCmd = &cobra.Command{
	Use:   "ls <bucket>",
	Short: "List objects in a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := gatewayClient().ListObjects(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Printf("Bucket %q is empty\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tCHUNKS\tMODIFIED")
		for _, obj := range objects {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				obj.Name, humanize.IBytes(obj.Size), obj.Chunks, humanize.Time(obj.ModTime))
		}
		return w.Flush()
	},
}

// Filled in by cobra argument parsing in init().
var putCmdConfig struct {
	description string
	meta        []string
}

// putCmd represents the put command.
var putCmd = &cobra.Command{
	Use:   "put <bucket> <key> [file]",
	Short: "Upload a file, or stdin when no file is given",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := parseMeta(putCmdConfig.meta)
		if err != nil {
			return err
		}

		source := io.Reader(os.Stdin)
		if len(args) == 3 && args[2] != "-" {
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			source = f
		}

		var opts []client.PutOption
		if putCmdConfig.description != "" {
			opts = append(opts, client.WithDescription(putCmdConfig.description))
		}
		if len(meta) > 0 {
			opts = append(opts, client.WithMeta(meta))
		}

		info, err := gatewayClient().Put(cmd.Context(), args[0], args[1], source, opts...)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %s/%s: %s in %d chunks\n",
			info.Bucket, info.Name, humanize.IBytes(info.Size), info.Chunks)
		return nil
	},
}

// getCmd represents the get command.
var getCmd = &cobra.Command{
	Use:   "get <bucket> <key> [file]",
	Short: "Download an object to a file, or stdout when no file is given",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _, err := gatewayClient().Get(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		defer func() { _ = body.Close() }()

		if len(args) < 3 || args[2] == "-" {
			if _, err := io.Copy(os.Stdout, body); err != nil {
				return fmt.Errorf("downloading %s/%s: %w", args[0], args[1], err)
			}
			return nil
		}

		f, err := os.Create(args[2])
		if err != nil {
			return err
		}
		n, err := io.Copy(f, body)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("downloading %s/%s: %w", args[0], args[1], err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", args[2], err)
		}

		fmt.Printf("Retrieved %s/%s: %s\n", args[0], args[1], humanize.IBytes(uint64(n)))
		return nil
	},
}

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info <bucket> <key>",
	Short: "Show object metadata without downloading it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := gatewayClient().GetInfo(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Object:      %s/%s\n", info.Bucket, info.Name)
		fmt.Printf("ID:          %s\n", info.ID)
		fmt.Printf("Size:        %s (%d bytes)\n", humanize.IBytes(info.Size), info.Size)
		fmt.Printf("Chunks:      %d\n", info.Chunks)
		if info.Digest != "" {
			fmt.Printf("Digest:      %s\n", info.Digest)
		}
		if !info.ModTime.IsZero() {
			fmt.Printf("Modified:    %s\n", info.ModTime.Format(time.RFC3339))
		}
		if info.Description != "" {
			fmt.Printf("Description: %s\n", info.Description)
		}
		if len(info.Headers) > 0 {
			keys := make([]string, 0, len(info.Headers))
			for key := range info.Headers {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				for _, value := range info.Headers[key] {
					fmt.Printf("Meta:        %s=%s\n", key, value)
				}
			}
		}
		return nil
	},
}

// rmCmd represents the rm command.
var rmCmd = &cobra.Command{
	Use:   "rm <bucket> <key>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gatewayClient().Delete(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Deleted %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(rmCmd)

	putCmd.Flags().StringVarP(&putCmdConfig.description, "description", "d", "", "object description")
	putCmd.Flags().StringArrayVarP(&putCmdConfig.meta, "meta", "m", nil, "object metadata as key=value, repeatable")
}
