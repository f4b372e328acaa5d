package calendar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/localcalendar"
	"github.com/guilherme-santos/localcalendar/calendar"
)

func TestRegistry(t *testing.T) {
	r := calendar.NewRegistry()

	info, err := r.Get(localcalendar.AccountTypeLocal)
	require.NoError(t, err)
	assert.Equal(t, "Offline calendar", info.Label)

	_, err = r.Get("com.google")
	assert.Error(t, err)
	assert.Equal(t, "com.google", r.Label("com.google"))

	r.Register("com.google", calendar.TypeInfo{Label: "Google"})
	assert.Equal(t, "Google", r.Label("com.google"))
	assert.Equal(t, []string{localcalendar.AccountTypeLocal, "com.google"}, r.Types())
}
