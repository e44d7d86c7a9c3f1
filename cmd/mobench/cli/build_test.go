package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/builder"
	"github.com/worldcoin/mobench/internal/types"
)

func TestProfileFromFlag(t *testing.T) {
	assert.Equal(t, types.ProfileRelease, profileFromFlag(true))
	assert.Equal(t, types.ProfileDebug, profileFromFlag(false))
}

func TestBuilderFor_Android(t *testing.T) {
	b, err := builderFor(types.TargetAndroid, ".", "target/mobench")
	require.NoError(t, err)
	_, ok := b.(*builder.AndroidBuilder)
	assert.True(t, ok)
}

func TestBuilderFor_IOS(t *testing.T) {
	b, err := builderFor(types.TargetIOS, ".", "target/mobench")
	require.NoError(t, err)
	_, ok := b.(*builder.IOSBuilder)
	assert.True(t, ok)
}

func TestBuilderFor_UnsupportedTargetErrors(t *testing.T) {
	_, err := builderFor(types.TargetBoth, ".", "target/mobench")
	assert.Error(t, err)
}
