// Handles the "sfs bench" command.
package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Filled in by cobra argument parsing in init().
var benchCmdConfig struct {
	count    int
	size     string
	parallel bool
	keep     bool
}

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench <bucket>",
	Short: "Measure upload and download throughput",
	Long: `Uploads a batch of random objects to the bucket, reads them all back
and reports throughput for both directions. The objects are removed
afterwards unless --keep is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := humanize.ParseBytes(benchCmdConfig.size)
		if err != nil {
			return fmt.Errorf("invalid object size %q: %w", benchCmdConfig.size, err)
		}
		if benchCmdConfig.count <= 0 {
			return fmt.Errorf("object count must be positive, got %d", benchCmdConfig.count)
		}
		return runBench(cmd, args[0], benchCmdConfig.count, size)
	},
}

func runBench(cmd *cobra.Command, bucket string, count int, size uint64) error {
	ctx := cmd.Context()
	cl := gatewayClient()

	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		return fmt.Errorf("generating payload: %w", err)
	}

	// A per-run key prefix keeps --keep runs from colliding.
	prefix := fmt.Sprintf("bench/%d", time.Now().UnixNano())
	keys := make([]string, count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s/%04d", prefix, i)
	}

	start := time.Now()
	err := runTransfers(count, benchCmdConfig.parallel, func(i int) error {
		if _, err := cl.Put(ctx, bucket, keys[i], bytes.NewReader(payload)); err != nil {
			return fmt.Errorf("uploading %s: %w", keys[i], err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	uploadTime := time.Since(start)

	start = time.Now()
	err = runTransfers(count, benchCmdConfig.parallel, func(i int) error {
		body, _, err := cl.Get(ctx, bucket, keys[i])
		if err != nil {
			return fmt.Errorf("downloading %s: %w", keys[i], err)
		}
		n, err := io.Copy(io.Discard, body)
		closeErr := body.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", keys[i], err)
		}
		if closeErr != nil {
			return fmt.Errorf("closing %s: %w", keys[i], closeErr)
		}
		if uint64(n) != size {
			return fmt.Errorf("object %s came back with %d bytes, want %d", keys[i], n, size)
		}
		return nil
	})
	if err != nil {
		return err
	}
	downloadTime := time.Since(start)

	if !benchCmdConfig.keep {
		for _, key := range keys {
			if err := cl.Delete(ctx, bucket, key); err != nil {
				return fmt.Errorf("removing %s: %w", key, err)
			}
		}
	}

	total := size * uint64(count)
	fmt.Printf("Uploaded   %d x %s in %v (%s)\n",
		count, humanize.IBytes(size), uploadTime.Round(time.Millisecond), rate(total, uploadTime))
	fmt.Printf("Downloaded %d x %s in %v (%s)\n",
		count, humanize.IBytes(size), downloadTime.Round(time.Millisecond), rate(total, downloadTime))
	return nil
}

// runTransfers runs fn for every index, sequentially or all at once.
func runTransfers(count int, parallel bool, fn func(int) error) error {
	if !parallel {
		for i := 0; i < count; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var waitGroup sync.WaitGroup
	errCh := make(chan error, count)

	for index := 0; index < count; index++ {
		waitGroup.Add(1)
		go func(idx int) {
			defer waitGroup.Done()
			if err := fn(idx); err != nil {
				errCh <- err
			}
		}(index)
	}

	waitGroup.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return nil
}

// rate formats bytes moved over a duration as a humanized rate.
func rate(total uint64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	perSecond := float64(total) / elapsed.Seconds()
	return humanize.IBytes(uint64(perSecond)) + "/s"
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVarP(&benchCmdConfig.count, "count", "n", 16, "number of objects to transfer")
	benchCmd.Flags().StringVarP(&benchCmdConfig.size, "size", "s", "1MiB", "size of each object, e.g. 64KiB or 4MB")
	benchCmd.Flags().BoolVar(&benchCmdConfig.parallel, "parallel", false, "transfer all objects concurrently instead of sequentially")
	benchCmd.Flags().BoolVar(&benchCmdConfig.keep, "keep", false, "leave the benchmark objects in the bucket")
}
