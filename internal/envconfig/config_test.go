package envconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

func validBaseConfig() Config {
	return Config{
		CloudType:         AWS,
		KeepLocalSSTFiles: true,
		KeepLocalLogFiles: true,
		Src:               BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db2", Region: "us-west-2"},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, validBaseConfig().Validate())
}

func TestValidateRejectsPeriodicityWithoutKeepLocalLog(t *testing.T) {
	cfg := validBaseConfig()
	cfg.ManifestDurablePeriodicityMillis = 60000
	cfg.KeepLocalLogFiles = false
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))
}

func TestValidateRejectsSameSrcAndDestBucket(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Dest = cfg.Src
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))
}

func TestValidateRejectsRegionMismatch(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Dest.Region = "us-east-1"
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))
}

func TestValidateRejectsNoKeepLocalSSTWithoutCloud(t *testing.T) {
	cfg := validBaseConfig()
	cfg.CloudType = None
	cfg.KeepLocalSSTFiles = false
	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))
}

func TestHasSrcHasDest(t *testing.T) {
	cfg := Config{}
	require.False(t, cfg.HasSrc())
	require.False(t, cfg.HasDest())

	cfg.Src = BucketOptions{BucketPrefix: "b"}
	require.True(t, cfg.HasSrc())
	require.False(t, cfg.HasDest())
}

func TestCloudTypeString(t *testing.T) {
	require.Equal(t, "aws", AWS.String())
	require.Equal(t, "gcp", GCP.String())
	require.Equal(t, "azure", Azure.String())
	require.Equal(t, "rackspace", Rackspace.String())
	require.Equal(t, "none", None.String())
}
