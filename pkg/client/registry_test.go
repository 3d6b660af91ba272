package client_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/meridian-go/pkg/client"
)

func TestRegistry_RegisterLookupRemove(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xaaa#1", Event: "Transferred"}))
	assert.Equal(t, 1, reg.Len())

	sub, ok := reg.Lookup("0xaaa#1")
	require.True(t, ok)
	assert.Equal(t, "Transferred", sub.Event)

	_, ok = reg.Lookup("0xbbb#2")
	assert.False(t, ok)

	removed, err := reg.Remove("0xaaa#1")
	require.NoError(t, err)
	assert.Equal(t, "0xaaa#1", removed.ID)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xaaa#1", Event: "Transferred"}))

	err := reg.Register(&client.Subscription{ID: "0xaaa#1", Event: "Minted"})
	assert.ErrorIs(t, err, client.ErrDuplicateSubscription)

	// The first registration survives.
	sub, ok := reg.Lookup("0xaaa#1")
	require.True(t, ok)
	assert.Equal(t, "Transferred", sub.Event)
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	_, err := reg.Remove("0xmissing")
	assert.ErrorIs(t, err, client.ErrNotSubscribed)
}

func TestRegistry_Matching(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xaaa#1", Event: "Transferred"}))
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xbbb#2", Event: "Minted"}))

	// Envelope IDs embed the subscription ID; ownership is containment,
	// not equality.
	matched := reg.Matching("0xaaa#1#event#7")
	require.Len(t, matched, 1)
	assert.Equal(t, "0xaaa#1", matched[0].ID)

	assert.Empty(t, reg.Matching("0xccc#3#event#1"))
	assert.Len(t, reg.Matching("0xaaa#1"), 1)
}

func TestRegistry_MatchingOverlappingIDs(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xaaa#1"}))
	require.NoError(t, reg.Register(&client.Subscription{ID: "0xaaa#1#tx"}))

	// One subscription ID may be contained in another; an envelope ID
	// containing both matches both.
	matched := reg.Matching("0xaaa#1#tx#5")
	require.Len(t, matched, 2)

	var matchedIDs []string
	for _, sub := range matched {
		matchedIDs = append(matchedIDs, sub.ID)
	}
	assert.ElementsMatch(t, []string{"0xaaa#1", "0xaaa#1#tx"}, matchedIDs)

	matched = reg.Matching("0xaaa#1#event#9")
	require.Len(t, matched, 1)
	assert.Equal(t, "0xaaa#1", matched[0].ID)
}

func TestRegistry_Clear(t *testing.T) {
	t.Parallel()

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(&client.Subscription{ID: "a"}))
	require.NoError(t, reg.Register(&client.Subscription{ID: "b"}))

	assert.Equal(t, 2, reg.Clear())
	assert.Equal(t, 0, reg.Len())
}
