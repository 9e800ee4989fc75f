// Package main is a small operator CLI that exercises a configured cloud
// storage environment end to end: write an IDENTITY file, check that it
// exists, print its size, and delete it again. It is not part of the library surface; it exists for smoke
// testing a bucket/credential pair before pointing a real engine at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lsmcloud/cloudenv"
	"github.com/lsmcloud/cloudenv/internal/logging"
)

func main() {
	cloudType := flag.String("cloud-type", "none", "none, aws, gcp, azure, rackspace")
	destBucket := flag.String("dest-bucket", "", "destination bucket name")
	destPrefix := flag.String("dest-prefix", "cloudenv-check", "destination object prefix")
	region := flag.String("region", "us-west-2", "bucket region")
	localDir := flag.String("local-dir", "", "local scratch directory (default: a temp dir)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "text, json")
	flag.Parse()

	logging.Setup(*logLevel, *logFormat, os.Stderr)

	dir := *localDir
	if dir == "" {
		d, err := os.MkdirTemp("", "cloudenv-check-")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create scratch dir: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(d)
		dir = d
	}

	cfg := cloudenv.Config{
		CloudType:         parseCloudType(*cloudType),
		KeepLocalSSTFiles: true,
	}
	if *destBucket != "" {
		cfg.Dest = cloudenv.BucketOptions{
			BucketPrefix: *destBucket,
			ObjectPrefix: *destPrefix,
			Region:       *region,
		}
		cfg.CreateBucketIfMissing = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	env, err := cloudenv.New(ctx, cfg, dir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "environment init failed: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	if err := runCheck(ctx, env, dir); err != nil {
		fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func runCheck(ctx context.Context, env *cloudenv.Environment, dir string) error {
	identityPath := dir + "/IDENTITY"

	w, err := env.NewWritableFile(ctx, identityPath)
	if err != nil {
		return fmt.Errorf("NewWritableFile: %w", err)
	}
	if _, err := w.Append([]byte("cloudenv-check\n")); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	if err := w.Close(ctx); err != nil {
		return fmt.Errorf("Close: %w", err)
	}

	exists, err := env.FileExists(ctx, identityPath)
	if err != nil {
		return fmt.Errorf("FileExists: %w", err)
	}
	if !exists {
		return fmt.Errorf("IDENTITY reported missing immediately after write")
	}

	size, err := env.GetFileSize(ctx, identityPath)
	if err != nil {
		return fmt.Errorf("GetFileSize: %w", err)
	}
	fmt.Printf("IDENTITY size=%d\n", size)

	return env.DeleteFile(ctx, identityPath)
}

func parseCloudType(s string) cloudenv.CloudType {
	switch s {
	case "aws":
		return cloudenv.CloudAWS
	case "gcp":
		return cloudenv.CloudGCP
	case "azure":
		return cloudenv.CloudAzure
	case "rackspace":
		return cloudenv.CloudRackspace
	default:
		return cloudenv.CloudNone
	}
}
