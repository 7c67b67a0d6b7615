package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupMembershipAndProjection(t *testing.T) {
	st := newTestStore(t)
	g, err := st.CreateGroup("people+", 1, 1, 0755)
	require.NoError(t, err)

	alice, err := st.CreateTag("alice", 1, 1, 0755)
	require.NoError(t, err)
	bob, err := st.CreateTag("bob", 1, 1, 0755)
	require.NoError(t, err)

	require.NoError(t, st.AddGroupMember(g.ID, alice.ID))
	require.NoError(t, st.AddGroupMember(g.ID, bob.ID))

	members, err := st.GroupMembers(g.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	groups, err := st.TagGroupsOver([]int64{alice.ID, bob.ID})
	require.NoError(t, err)
	require.Contains(t, groups, alice.ID)
	require.Contains(t, groups, bob.ID)
	require.Equal(t, g.ID, groups[alice.ID][0].ID)
}

func TestResolveGroupNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.ResolveGroup("nope+")
	require.Error(t, err)
}
