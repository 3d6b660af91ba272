package log_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/meridian-go/pkg/log"
)

// testWriteSyncer is a zapcore.WriteSyncer that captures the last written
// log entry so tests can assert on the exact output.
type testWriteSyncer struct {
	lastEntry []byte
}

func (tws *testWriteSyncer) Write(p []byte) (n int, err error) {
	tws.lastEntry = p
	return len(p), nil
}

func (tws *testWriteSyncer) Sync() error { return nil }

// AssertEntry verifies level, logger name, message, caller file and all
// key-value pairs of the last written entry.
func (tws *testWriteSyncer) AssertEntry(t *testing.T, level log.Level, name, message string, keysAndValues ...any) {
	t.Helper()

	entryMap := make(map[string]any)
	require.NoError(t, json.Unmarshal(tws.lastEntry, &entryMap), "failed to unmarshal log entry: %s", string(tws.lastEntry))

	assert.Contains(t, entryMap, "ts")
	assert.Equal(t, name, entryMap["logger"])
	assert.Equal(t, string(level), entryMap["level"])
	assert.Equal(t, message, entryMap["msg"])
	assert.True(t, strings.HasPrefix(entryMap["caller"].(string), "log/zap_logger_test.go:"),
		"unexpected caller %v", entryMap["caller"])

	for i := 0; i < len(keysAndValues); i += 2 {
		assert.EqualValues(t, keysAndValues[i+1], entryMap[keysAndValues[i].(string)])
	}
	assert.Equal(t, len(keysAndValues)/2, len(entryMap)-5) // -5 for ts, level, logger, caller and msg
}

func TestZapLogger(t *testing.T) {
	cfg := log.Config{
		Format: log.FormatJSON,
		Level:  log.LevelDebug,
	}
	tws := &testWriteSyncer{}
	logger := log.NewZapLogger(cfg, tws)

	testName := "testLogger"
	logger = logger.WithName(testName)

	keysAndValues := []any{"key1", "value1", "key2", "value2"}
	testMessage := "test message"

	logger.Debug(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelDebug, testName, testMessage, keysAndValues...)

	logger.Info(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelInfo, testName, testMessage, keysAndValues...)

	logger.Warn(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelWarn, testName, testMessage, keysAndValues...)

	logger.Error(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelError, testName, testMessage, keysAndValues...)

	// Naming hierarchy
	testSubsystem := "testSubsystem"
	newExpectedName := fmt.Sprintf("%s.%s", testName, testSubsystem)
	logger = logger.WithName(testSubsystem)
	assert.Equal(t, newExpectedName, logger.Name())

	// Key-value propagation
	newK := "newKey"
	newV := "newValue"
	logger = logger.WithKV(newK, newV)
	assert.Equal(t, []any{newK, newV}, logger.GetAllKV())
	allKeysAndValues := append([]any{newK, newV}, keysAndValues...)

	logger.Info(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelInfo, newExpectedName, testMessage, allKeysAndValues...)

	// AddCallerSkip keeps the caller pointing at the wrapper's caller
	wrapperWithLoggerInfo := func(msg string, keysAndValues ...any) {
		logger.AddCallerSkip(1).Info(msg, keysAndValues...)
	}

	wrapperWithLoggerInfo(testMessage, keysAndValues...)
	tws.AssertEntry(t, log.LevelInfo, newExpectedName, testMessage, allKeysAndValues...)
}

func TestZapLoggerLevelFiltering(t *testing.T) {
	tws := &testWriteSyncer{}
	logger := log.NewZapLogger(log.Config{Format: log.FormatJSON, Level: log.LevelWarn}, tws)

	logger.Info("should be filtered")
	assert.Empty(t, tws.lastEntry)

	logger.Warn("should pass")
	assert.NotEmpty(t, tws.lastEntry)
}

func TestNoopLogger(t *testing.T) {
	lg := log.NewNoopLogger()
	lg.Info("ignored", "k", "v")
	assert.Equal(t, "", lg.WithName("x").Name())
	assert.Nil(t, lg.WithKV("k", "v").GetAllKV())
}
