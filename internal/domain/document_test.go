package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiry_JSON(t *testing.T) {
	req := require.New(t)

	out, err := json.Marshal(map[string]Expiry{"a": PermanentExpiry(), "b": {Until: 1700000000}})
	req.NoError(err)
	req.JSONEq(`{"a":"permanent","b":1700000000}`, string(out))

	var in map[string]Expiry
	req.NoError(json.Unmarshal([]byte(`{"a":"permanent","b":1700000000,"c":"1700000001"}`), &in))
	req.True(in["a"].Permanent)
	req.Equal(int64(1700000000), in["b"].Until)
	req.Equal(int64(1700000001), in["c"].Until)

	req.Error(json.Unmarshal([]byte(`{"a":"forever"}`), &in))
}

func TestDocument_IsPremium(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	d := NewDocument()
	d.Premium[1] = PermanentExpiry()
	d.Premium[2] = ExpiresAt(now.Add(time.Second))
	d.Premium[3] = ExpiresAt(now)
	d.Premium[4] = ExpiresAt(now.Add(-time.Hour))

	assert.True(t, d.IsPremium(1, now))
	assert.True(t, d.IsPremium(2, now))
	// expiry equal to now is no longer premium
	assert.False(t, d.IsPremium(3, now))
	assert.False(t, d.IsPremium(4, now))
	assert.False(t, d.IsPremium(5, now))
}

func TestExpiry_Extend(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	inc := 48 * time.Hour

	// Given no grant, extension starts from now
	got := Expiry{}.Extend(now, inc)
	assert.Equal(t, now.Add(inc).Unix(), got.Until)

	// Given an expired grant, extension starts from now
	got = ExpiresAt(now.Add(-time.Hour)).Extend(now, inc)
	assert.Equal(t, now.Add(inc).Unix(), got.Until)

	// Given an active grant, extension never shortens it
	current := ExpiresAt(now.Add(5 * time.Hour))
	got = current.Extend(now, inc)
	assert.GreaterOrEqual(t, got.Until, current.Until+int64(inc/time.Second))

	// Permanent stays permanent
	assert.True(t, PermanentExpiry().Extend(now, inc).Permanent)
}

func TestDocument_NormalizeDefaults(t *testing.T) {
	var d Document
	require.NoError(t, json.Unmarshal([]byte(`{"groups":[-100,-100,"-200"],"user_group_count":{"7":-3}}`), &d))
	d.Normalize()

	assert.Equal(t, IDSet{-100, -200}, d.Groups)
	assert.Equal(t, 0, d.UserGroupCount[7])
	assert.Equal(t, DefaultCooldownMinutes, d.Settings.Cooldown.Default)
	assert.NotNil(t, d.Premium)
	assert.NotNil(t, d.Cooldowns.Share)
	assert.NotNil(t, d.Cooldowns.Broadcast)
	assert.Equal(t, 15*time.Minute, d.CooldownWindow())
	require.NoError(t, d.Validate())
}

func TestIDSet_AddRemove(t *testing.T) {
	var s IDSet

	assert.True(t, s.Add(1))
	assert.False(t, s.Add(1))
	assert.True(t, s.Add(2))
	assert.Equal(t, IDSet{1, 2}, s)

	assert.True(t, s.Remove(1))
	assert.False(t, s.Remove(1))
	assert.Equal(t, IDSet{2}, s)
}

func TestDocument_RecipientsDeduplicates(t *testing.T) {
	d := NewDocument()
	d.Users = IDSet{1, 2, 2, 3}
	d.Groups = IDSet{-1}

	assert.Equal(t, []int64{1, 2, 3}, d.Recipients(FeatureBroadcast))
	assert.Equal(t, []int64{-1}, d.Recipients(FeatureShare))
}

func TestCooldownError_Parts(t *testing.T) {
	err := &CooldownError{Feature: FeatureShare, Remaining: 4*time.Minute + 59*time.Second + 200*time.Millisecond}
	m, s := err.Parts()
	assert.Equal(t, 5, m)
	assert.Equal(t, 0, s)
}

func TestTier_Order(t *testing.T) {
	assert.True(t, TierMainOwner.AtLeast(TierDelegatedOwner))
	assert.False(t, TierPremium.AtLeast(TierDelegatedOwner))
	assert.False(t, TierBlacklisted.AtLeast(TierUser))
}
