package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zap.InfoLevel},
		{in: "debug", want: zap.DebugLevel},
		{in: "WARN", want: zap.WarnLevel},
		{in: " error ", want: zap.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lvl.Level())
		})
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "json", "text"} {
		logger, err := New("info", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := New("info", "xml")
	assert.Error(t, err)

	_, err = New("verbose", "json")
	assert.Error(t, err)
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	Component(zap.New(core), "fixture").Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "fixture", logs.All()[0].ContextMap()["component"])

	assert.NotNil(t, Component(nil, "x"))
}
