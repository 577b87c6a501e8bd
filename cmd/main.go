package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"filesig/config"
	"filesig/logger"
	"filesig/output"
	"filesig/signature"
	"filesig/snapshot"
	"filesig/volume"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	startTime := time.Now()
	metrics := output.Metrics{
		StartTime: startTime.UTC().Format(time.RFC3339),
	}

	w, err := output.New(cfg, &metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	limiter := newLimiter(cfg.MaxIOPerSecond)

	switch {
	case len(cfg.ComparePaths) == 2:
		err = runCompare(ctx, cfg, w, &metrics)
	case cfg.CheckSnapshot:
		err = runCheck(ctx, cfg, w, &metrics, limiter)
	default:
		err = runResolve(ctx, cfg, w, &metrics, limiter)
	}
	if err != nil {
		logger.Fatalf("Run failed: %v", err)
	}

	metrics.EndTime = time.Now().UTC().Format(time.RFC3339)
	w.SetMetrics(metrics)
	logger.Debugf("Resolved %d path(s), %d failure(s)", metrics.PathsResolved, metrics.Failures)
}

func handleSignals(cancelFunc context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancelFunc()
}

func newLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// runResolve resolves each configured path one at a time and optionally
// records the results into the snapshot file.
func runResolve(ctx context.Context, cfg *config.Config, w *output.Writer, metrics *output.Metrics, limiter *rate.Limiter) error {
	var snap *snapshot.Snapshot
	if cfg.RecordSnapshot {
		var err error
		snap, err = snapshot.Load(cfg.SnapshotFile)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	for _, path := range cfg.Paths {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		record := resolveRecord(cfg, path)
		if record.Error == "" {
			metrics.PathsResolved++
			if snap != nil {
				if _, err := snap.Record(path); err != nil {
					logger.Warnf("Failed to record %s: %v", path, err)
				}
			}
		} else {
			metrics.Failures++
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	if snap != nil {
		if err := snap.Save(cfg.SnapshotFile); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Infof("Recorded %d path(s) in %s", snap.Len(), cfg.SnapshotFile)
	}
	return nil
}

// runCheck re-resolves every path in the snapshot and reports which
// ones now point at a different file object.
func runCheck(ctx context.Context, cfg *config.Config, w *output.Writer, metrics *output.Metrics, limiter *rate.Limiter) error {
	snap, err := snapshot.Load(cfg.SnapshotFile)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	paths := snap.Paths()
	if len(paths) == 0 {
		logger.Warnf("Snapshot %s has no recorded paths", cfg.SnapshotFile)
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Checking signatures"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(progressVisible()),
		progressbar.OptionSetWriter(os.Stderr),
	)

	changedCount := 0
	for _, path := range paths {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		record := resolveRecord(cfg, path)
		if record.Error == "" {
			changed, err := snap.Changed(path)
			if err == nil {
				record.Changed = &changed
				if changed {
					changedCount++
				}
			}
			metrics.PathsResolved++
		} else {
			metrics.Failures++
		}
		if err := w.Write(record); err != nil {
			return err
		}
		bar.Add(1)
	}
	fmt.Fprintln(os.Stderr)

	logger.Infof("Checked %d path(s): %d changed, %d unreachable", len(paths), changedCount, metrics.Failures)
	return nil
}

func runCompare(ctx context.Context, cfg *config.Config, w *output.Writer, metrics *output.Metrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pathA, pathB := cfg.ComparePaths[0], cfg.ComparePaths[1]

	record := output.CompareRecord{PathA: pathA, PathB: pathB}
	sigA, errA := signature.Resolve(pathA)
	sigB, errB := signature.Resolve(pathB)
	if errA != nil {
		metrics.Failures++
		return errA
	}
	if errB != nil {
		metrics.Failures++
		return errB
	}
	metrics.PathsResolved += 2

	record.SignatureA = &sigA
	record.SignatureB = &sigB
	record.SameFile = sigA.Equal(sigB)
	record.SameVolume = sigA.SameVolume(sigB)

	if record.SameFile {
		logger.Infof("%s and %s are the same file (%s)", pathA, pathB, sigA)
	} else if record.SameVolume {
		logger.Infof("%s and %s are different files on the same volume", pathA, pathB)
	} else {
		logger.Infof("%s and %s are on different volumes", pathA, pathB)
	}

	return w.Write(record)
}

// resolveRecord builds the output record for one path, including mount
// details when requested.
func resolveRecord(cfg *config.Config, path string) output.SignatureRecord {
	record := output.SignatureRecord{Path: path}

	sig, err := signature.Resolve(path)
	if err != nil {
		record.Error = err.Error()
		record.OSErrorCode = uint64(signature.Errno(err))
		return record
	}
	record.Signature = &sig

	if cfg.VolumeInfo {
		info, err := volume.ForPath(path)
		if err != nil {
			logger.Debugf("No volume info for %s: %v", path, err)
			return record
		}
		record.Volume = &info
		stable := volume.SupportsStableIDs(info.FSType)
		record.StableIDs = &stable
		if !stable {
			logger.Warnf("%s is on %s (%s): file IDs may not persist across remounts", path, info.Mountpoint, info.FSType)
		}
	}
	return record
}

func progressVisible() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
