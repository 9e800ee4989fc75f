package cloudenv

import "github.com/lsmcloud/cloudenv/internal/envconfig"

// Config is the environment's configuration surface: cloud_type,
// credentials, the src/dest bucket endpoints, durability knobs, and the
// optional telemetry hook. It is a type alias for envconfig.Config so
// that the validation logic lives in one place while remaining part of
// this package's public API, the way a library's primary configuration
// type normally would.
type Config = envconfig.Config

// BucketOptions identifies one bucket endpoint (bucket name, object
// prefix, region).
type BucketOptions = envconfig.BucketOptions

// Credentials is an opaque access key / secret key pair.
type Credentials = envconfig.Credentials

// CloudType selects the object-store backend.
type CloudType = envconfig.CloudType

const (
	CloudNone      = envconfig.None
	CloudAWS       = envconfig.AWS
	CloudGCP       = envconfig.GCP
	CloudAzure     = envconfig.Azure
	CloudRackspace = envconfig.Rackspace
)
