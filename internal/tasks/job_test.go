package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/config"
)

func TestBuildJob_BadTimezone(t *testing.T) {
	cfg := &config.Config{Sync: config.SyncConfig{Timezone: "Mars/Olympus"}}

	_, err := BuildJob(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestExtDBOptions(t *testing.T) {
	opts := ExtDBOptions(config.ExtDBConfig{
		Type:          "mysqli",
		Host:          "records:3306",
		Name:          "sits",
		User:          "reader",
		Password:      "secret",
		Encoding:      "latin1",
		SetupSQL:      "SET NAMES latin1",
		SybaseQuoting: true,
		Debug:         true,
	})

	assert.Equal(t, "mysqli", opts.Type)
	assert.Equal(t, "records:3306", opts.Host)
	assert.Equal(t, "sits", opts.Name)
	assert.Equal(t, "reader", opts.User)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, "latin1", opts.Encoding)
	assert.Equal(t, "SET NAMES latin1", opts.SetupSQL)
	assert.True(t, opts.SybaseQuoting)
	assert.True(t, opts.Debug)
}

func TestMoodleOptions(t *testing.T) {
	opts := MoodleOptions(config.MoodleConfig{Type: "postgres", DSN: "host=db", TablePrefix: "mdl_"})

	assert.Equal(t, "postgres", opts.Type)
	assert.Equal(t, "host=db", opts.DSN)
	assert.Equal(t, "mdl_", opts.TablePrefix)
}

func TestSyncAssessmentExtensionsTask(t *testing.T) {
	task := SyncAssessmentExtensionsTask()
	require.NotNil(t, task)
	assert.Equal(t, SyncAssessmentExtensions, task.Type())
	assert.Empty(t, task.Payload())
}
