// Package envconfig holds the typed configuration surface the environment
// router validates and acts on. It deliberately does not read files or
// environment variables — callers build a Config in code (or unmarshal one
// themselves using the yaml tags below) and acquire credentials on their
// own; this package only validates and classifies what it's given.
package envconfig

import (
	"fmt"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// CloudType selects which object-store backend realizes src/dest bucket
// access.
type CloudType int

const (
	None CloudType = iota
	AWS
	GCP
	Azure
	Rackspace
)

func (c CloudType) String() string {
	switch c {
	case AWS:
		return "aws"
	case GCP:
		return "gcp"
	case Azure:
		return "azure"
	case Rackspace:
		return "rackspace"
	default:
		return "none"
	}
}

// Credentials is an opaque key/secret pair. Acquisition (env vars, IAM
// roles, credential files, ...) is the caller's responsibility.
type Credentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// BucketOptions identifies one bucket endpoint: a bucket name, an object
// key prefix within it, and a region. src is read-only; dest is
// read-write.
type BucketOptions struct {
	BucketPrefix string `yaml:"bucket_prefix"`
	ObjectPrefix string `yaml:"object_prefix"`
	Region       string `yaml:"region"`
}

func (b BucketOptions) isSet() bool { return b.BucketPrefix != "" }

// Config is the immutable configuration the environment is constructed
// from. Zero value BucketOptions on Src or Dest means that endpoint is
// absent.
type Config struct {
	CloudType   CloudType   `yaml:"cloud_type"`
	Credentials Credentials `yaml:"credentials"`

	Src  BucketOptions `yaml:"src"`
	Dest BucketOptions `yaml:"dest"`

	KeepLocalSSTFiles bool `yaml:"keep_local_sst_files"`
	KeepLocalLogFiles bool `yaml:"keep_local_log_files"`

	ManifestDurablePeriodicityMillis uint64 `yaml:"manifest_durable_periodicity_millis"`
	PurgerPeriodicityMillis          uint64 `yaml:"purger_periodicity_millis"`

	// FileDeletionDelaySeconds is the background deletion scheduler's fixed
	// delay, in seconds, between a DeleteFile call and the destination-bucket
	// object actually being removed (spec.md §4.5). Zero selects the
	// environment's default delay.
	FileDeletionDelaySeconds uint64 `yaml:"file_deletion_delay_seconds"`

	// ServerSideEncryption/EncryptionKeyID record the desired at-rest
	// encryption policy. They are config-surface only for now: Client.Put
	// has no parameter to carry them, so no backend reads these fields yet.
	// Wiring them through requires extending the Put signature (and every
	// implementation: AWSClient's ServerSideEncryption/SSEKMSKeyId,
	// GCPClient's KMSKeyName, AzureClient's CustomerProvidedKey) rather than
	// a change local to one backend.
	ServerSideEncryption bool   `yaml:"server_side_encryption"`
	EncryptionKeyID      string `yaml:"encryption_key_id"`

	CreateBucketIfMissing bool `yaml:"create_bucket_if_missing"`
	RunPurger             bool `yaml:"run_purger"`
	EphemeralResyncOnOpen bool `yaml:"ephemeral_resync_on_open"`
	SkipDbidVerification  bool `yaml:"skip_dbid_verification"`

	// TelemetryFunc, when set, is invoked synchronously on the calling
	// goroutine after every object-store operation with (opKind, bytes,
	// elapsed, ok). It must be safe for concurrent use.
	TelemetryFunc func(opKind string, bytes int64, elapsedMicros int64, ok bool)
}

// HasSrc/HasDest report whether the corresponding bucket endpoint was
// configured.
func (c Config) HasSrc() bool  { return c.Src.isSet() }
func (c Config) HasDest() bool { return c.Dest.isSet() }

// Validate enforces the invariants from spec.md §3: the periodicity/
// keep_local_log_files pairing, src/dest distinctness, and region
// equality when both endpoints are configured.
func (c Config) Validate() error {
	if c.ManifestDurablePeriodicityMillis != 0 && !c.KeepLocalLogFiles {
		return cerrors.InvalidArgumentf("Validate", "",
			fmt.Errorf("manifest_durable_periodicity_millis>0 requires keep_local_log_files=true"))
	}

	if c.HasSrc() && c.HasDest() {
		if c.Src.BucketPrefix == c.Dest.BucketPrefix && c.Src.ObjectPrefix == c.Dest.ObjectPrefix {
			return cerrors.InvalidArgumentf("Validate", "",
				fmt.Errorf("src and dest resolve to the same bucket/prefix"))
		}
		if c.Src.Region != c.Dest.Region {
			return cerrors.InvalidArgumentf("Validate", "",
				fmt.Errorf("src region %q and dest region %q must match", c.Src.Region, c.Dest.Region))
		}
	}

	if !c.KeepLocalSSTFiles && c.CloudType == None {
		return cerrors.InvalidArgumentf("Validate", "",
			fmt.Errorf("keep_local_sst_files=false requires a real object store (cloud_type=None has nowhere durable to read SSTs back from)"))
	}

	return nil
}
