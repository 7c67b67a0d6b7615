package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amoffat/supertag/internal/config"
)

func TestTagDirInodeStableAndOrderIndependent(t *testing.T) {
	a := TagDirInode([]int64{1, 2, 3})
	b := TagDirInode([]int64{3, 2, 1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, uint64(RootInode), a)
}

func TestTagDirInodeDistinguishesNegation(t *testing.T) {
	positive := TagDirInode([]int64{1, 2})
	withNegated := TagDirInode([]int64{1, -2})
	assert.NotEqual(t, positive, withNegated)
}

func TestFileInodeNeverAliasesRoot(t *testing.T) {
	got := FileInode(0, 0)
	assert.NotEqual(t, uint64(0), got)
	assert.NotEqual(t, uint64(1), got)
}

func TestFileInodeDistinctFromTagDirInode(t *testing.T) {
	fileInode := FileInode(99, 100)
	dirInode := TagDirInode([]int64{99, 100})
	assert.NotEqual(t, fileInode, dirInode)
}

func TestResolveNamesQualifiesOnlyCollidingFiles(t *testing.T) {
	sym := config.Symbols{DeviceChar: "@", InodeChar: "-"}
	entries := []NameEntry{
		{DisplayName: "unique.txt", IsFile: true, Device: 1, Inode: 1},
		{DisplayName: "dup.txt", IsFile: true, Device: 1, Inode: 2},
		{DisplayName: "dup.txt", IsFile: true, Device: 1, Inode: 3},
	}
	out := ResolveNames(entries, sym)
	assert.Equal(t, "unique.txt", out[0])
	assert.Equal(t, "dup.txt@1-2", out[1])
	assert.Equal(t, "dup.txt@1-3", out[2])
}

func TestResolveNamesNeverQualifiesDirectories(t *testing.T) {
	sym := config.Symbols{DeviceChar: "@", InodeChar: "-"}
	entries := []NameEntry{
		{DisplayName: "shared", IsFile: false},
		{DisplayName: "shared", IsFile: false},
	}
	out := ResolveNames(entries, sym)
	assert.Equal(t, "shared", out[0])
	assert.Equal(t, "shared", out[1])
}

func TestStripAndHasSync(t *testing.T) {
	sym := config.Symbols{SyncChar: "~"}
	assert.True(t, HasSync("/a/~/b", sym))
	assert.Equal(t, "/a//b", StripSync("/a/~/b", sym))
}

func TestIsFiledir(t *testing.T) {
	sym := config.Symbols{FiledirStr: "⋂", FiledirCLI: "_"}
	assert.True(t, IsFiledir("⋂", sym))
	assert.True(t, IsFiledir("_", sym))
	assert.False(t, IsFiledir("tag", sym))
}
