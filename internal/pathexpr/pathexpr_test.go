package pathexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoffat/supertag/internal/config"
)

func testSymbols() config.Symbols {
	return config.Symbols{
		InodeChar:   "-",
		DeviceChar:  "@",
		SyncChar:    "~",
		FiledirStr:  "⋂",
		FiledirCLI:  "_",
		TagGroupStr: "+",
	}
}

func TestParsePositiveAndNegative(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/photos/-deleted", sym)
	require.NoError(t, err)
	require.Len(t, e.Positive, 1)
	assert.Equal(t, "photos", e.Positive[0].Name)
	require.Len(t, e.Negative, 1)
	assert.Equal(t, "deleted", e.Negative[0].Name)
}

func TestParseDeduplicates(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/a/a/-b/-b", sym)
	require.NoError(t, err)
	assert.Len(t, e.Positive, 1)
	assert.Len(t, e.Negative, 1)
}

func TestParseGroupSuffix(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/people+", sym)
	require.NoError(t, err)
	require.Len(t, e.Positive, 1)
	assert.Equal(t, GroupRef, e.Positive[0].Kind)
}

func TestParseFiledirMustBeLast(t *testing.T) {
	sym := testSymbols()
	_, err := Parse("/"+sym.FiledirStr+"/tag", sym)
	assert.Error(t, err)
}

func TestParseFiledirTerminal(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/photos/"+sym.FiledirCLI, sym)
	require.NoError(t, err)
	assert.Equal(t, Filedir, e.Terminal)
}

func TestParseFullyQualifiedFileLeaf(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/photos/beach.jpg@42-7", sym)
	require.NoError(t, err)
	assert.Equal(t, FileLeaf, e.Terminal)
	assert.True(t, e.HasDevIno)
	assert.Equal(t, uint64(42), e.Device)
	assert.Equal(t, uint64(7), e.Inode)
	assert.Equal(t, "beach.jpg", e.FileName)
}

func TestContradictionDetectsSameTagBothWays(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/a/-a", sym)
	require.NoError(t, err)
	assert.True(t, e.Contradiction())
}

func TestCanonicalSortsByName(t *testing.T) {
	sym := testSymbols()
	e, err := Parse("/zebra/apple", sym)
	require.NoError(t, err)
	canon := e.Canonical()
	require.Len(t, canon, 2)
	assert.Equal(t, "apple", canon[0].Name)
	assert.Equal(t, "zebra", canon[1].Name)
}

func TestQualifiedName(t *testing.T) {
	sym := testSymbols()
	got := QualifiedName("beach.jpg", 42, 7, sym)
	assert.Equal(t, "beach.jpg@42-7", got)
}
