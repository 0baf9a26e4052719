package constants

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutConstants(t *testing.T) {
	t.Run("tool timeout is ten minutes", func(t *testing.T) {
		assert.Equal(t, 600*time.Second, DefaultToolTimeout)
	})

	t.Run("probe is shorter than pull", func(t *testing.T) {
		assert.Less(t, DefaultProbeTimeout, DefaultPullTimeout)
	})

	t.Run("LockRetryInterval is reasonable", func(t *testing.T) {
		assert.Less(t, LockRetryInterval, time.Second, "should retry quickly")
	})
}

func TestResultNamingConstants(t *testing.T) {
	assert.True(t, strings.HasSuffix(RawErrorsSuffix, ".txt"))
	assert.True(t, strings.HasSuffix(ParsedSuffix, ".json"))
	assert.NotEqual(t, RawOutputSuffix, ParsedSuffix)
}

func TestCompilerDefaults(t *testing.T) {
	assert.True(t, strings.HasPrefix(DefaultModernSolc, DefaultModernFloor+"."),
		"modern default should sit at or above the modern floor")
	assert.Equal(t, "0.4.9", DefaultLegacySolc)
}

func TestExtractPrefixesAreDistinct(t *testing.T) {
	assert.NotEqual(t, ExtractTempPrefix, ExtractWorkspacePrefix)
}
