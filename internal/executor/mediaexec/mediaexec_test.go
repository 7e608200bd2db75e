package mediaexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbking/personal-digital-authority/internal/hostadapter"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	adapter := hostadapter.NewLocal(hostadapter.LocalConfig{Devices: []string{"living-room-tv", "kitchen-speaker"}})
	e, err := New(adapter, []string{"living-room-tv", "kitchen-speaker"})
	require.NoError(t, err)
	return e
}

func mediaManifest(capability string, inputs map[string]string) model.TaskManifest {
	return model.TaskManifest{
		TaskID:       "task-media-1",
		CapabilityID: capability,
		Inputs:       inputs,
		Constraints:  model.Constraints{Scope: "media", Reversible: true, Sensitivity: model.SensitivityLow},
		Provenance:   model.Provenance{ASTHash: "deadbeef"},
	}
}

func TestPlay(t *testing.T) {
	e := newExecutor(t)
	out, eerr := e.Run(mediaManifest("MEDIA_PLAY", map[string]string{
		"media_uri":     "file:///music/track.flac",
		"target_device": "living-room-tv",
	}))
	require.Nil(t, eerr)
	assert.Equal(t, "play", out.Summary["operation"])
	assert.Equal(t, "living-room-tv", out.Summary["device"])
}

func TestSeek_PositionValidation(t *testing.T) {
	e := newExecutor(t)

	base := map[string]string{
		"media_uri":     "file:///music/track.flac",
		"target_device": "living-room-tv",
	}

	for _, bad := range []string{"", "-1", "abc"} {
		inputs := map[string]string{"media_uri": base["media_uri"], "target_device": base["target_device"], "position_seconds": bad}
		_, eerr := e.Run(mediaManifest("MEDIA_SEEK", inputs))
		require.NotNil(t, eerr, "position %q", bad)
		assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
	}

	inputs := map[string]string{"media_uri": base["media_uri"], "target_device": base["target_device"], "position_seconds": "0"}
	out, eerr := e.Run(mediaManifest("MEDIA_SEEK", inputs))
	require.Nil(t, eerr)
	assert.Equal(t, "0", out.Summary["position_seconds"])
}

func TestQueryURIRejected(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(mediaManifest("MEDIA_PLAY", map[string]string{
		"media_uri":     "https://stream.example/track?autoplay=1",
		"target_device": "living-room-tv",
	}))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}

func TestDeviceAllowlist(t *testing.T) {
	e := newExecutor(t)
	_, eerr := e.Run(mediaManifest("MEDIA_PAUSE", map[string]string{
		"media_uri":     "file:///music/track.flac",
		"target_device": "neighbors-tv",
	}))
	require.NotNil(t, eerr)
	assert.Equal(t, model.CodeExecutionFailed, eerr.Code)
}
