package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskValid(t *testing.T) {
	for _, r := range AllRisks {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Risk("low").Valid())
	assert.False(t, Risk("").Valid())
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	b, err := json.Marshal(User{ID: "u1", Name: "Alice", Email: "alice@x.com", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
	assert.Contains(t, string(b), `"is_admin":false`)
	assert.Contains(t, string(b), `"photo":null`)
}

func TestDashboardSummaryJSONNames(t *testing.T) {
	b, err := json.Marshal(DashboardSummary{Total: 3, High: 1, Medium: 1, Low: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_uploads":3,"high_risk":1,"medium_risk":1,"low_risk":1}`, string(b))
}

func TestProfileUpdateEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	name := "Bob"
	assert.False(t, ProfileUpdate{Name: &name}.Empty())
}
