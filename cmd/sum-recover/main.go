// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// sum-recover is an operator tool for inspecting a status update
// manager's checkpoint logs after a crash, without embedding the
// library in a throwaway program. It replays the named streams'
// checkpoint files (or every *.log file under the configured
// checkpoint root, if none are named) and prints the resulting
// RecoveredState for each: how many updates the log held, whether the
// stream had reached its terminal update, and whether replay hit
// tolerated corruption.
//
// It expects each checkpoint payload to satisfy the minimal schema
// every embedder of this library is expected to produce: a map with
// "id" (the status UUID, text-encoded), "framework" and "has_fid", and
// "terminal". Payloads with extra fields decode fine; the extra fields
// are simply ignored.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/corestream/sum"
	"github.com/corestream/sum/lib/clock"
	"github.com/corestream/sum/lib/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var strict bool
	var help bool

	flagSet := pflag.NewFlagSet("sum-recover", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the sum config file (default: $SUM_CONFIG)")
	flagSet.BoolVar(&strict, "strict", false, "abort on the first corrupted checkpoint instead of counting and continuing")
	flagSet.BoolVarP(&help, "help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ids := flagSet.Args()
	if len(ids) == 0 {
		ids, err = streamIDsUnderRoot(cfg.Checkpoint.Root)
		if err != nil {
			return fmt.Errorf("listing checkpoint root: %w", err)
		}
	}
	if len(ids) == 0 {
		fmt.Println("no checkpoint files found")
		return nil
	}

	manager := sum.NewManager(sum.Options[string, string]{
		Forward:   printForward,
		Path:      cfg.PathForStream,
		NewUpdate: func() sum.Update[string] { return &recoveryRecord{} },
		Clock:     clock.Real(),
		RetryMin:  cfg.Retry.Min,
		RetryMax:  cfg.Retry.Max,
	})
	defer manager.Close()

	bundle, err := manager.Recover(context.Background(), ids, strict)
	if err != nil {
		return fmt.Errorf("recovering checkpoints: %w", err)
	}

	for _, id := range ids {
		state := bundle.States[id]
		if state == nil {
			fmt.Printf("%s: nothing to resume\n", id)
			continue
		}
		fmt.Printf("%s: %d update(s) recovered, terminated=%v, corrupted=%v\n",
			id, len(state.Updates), state.Terminated, state.Error)
		for _, u := range state.Updates {
			fmt.Printf("  - %s\n", u.StatusUUID())
		}
	}
	if bundle.ErrorCount > 0 {
		fmt.Printf("%d stream(s) had tolerated corruption\n", bundle.ErrorCount)
	}
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func streamIDsUnderRoot(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".log"))
	}
	return ids, nil
}

func printForward(u sum.Update[string]) {
	fmt.Printf("forward: %s\n", u.StatusUUID())
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sum-recover — replay status update manager checkpoint logs.

By default recovers every *.log file under the configured checkpoint
root. Pass one or more stream ids as positional arguments to recover
only those streams.

Usage:
  sum-recover [flags] [stream-id ...]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// recoveryRecord is the minimal Update[string] shape this tool decodes
// checkpoint payloads into. Fields beyond this set are ignored.
type recoveryRecord struct {
	ID        uuid.UUID `cbor:"id"`
	Framework string    `cbor:"framework,omitempty"`
	HasFID    bool      `cbor:"has_fid"`
	Terminal  bool      `cbor:"terminal"`
}

func (r *recoveryRecord) StatusUUID() uuid.UUID       { return r.ID }
func (r *recoveryRecord) FrameworkID() (string, bool) { return r.Framework, r.HasFID }
func (r *recoveryRecord) IsTerminal() bool            { return r.Terminal }
