package debug

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// saveAndRestoreState saves debug state and returns a restore function
func saveAndRestoreState() func() {
	debugMutex.Lock()
	origEnable := EnableDebug
	origOutput := debugOutput
	origFile := debugFile
	debugMutex.Unlock()

	origEnv, envSet := os.LookupEnv("DEBUG")

	return func() {
		debugMutex.Lock()
		EnableDebug = origEnable
		debugOutput = origOutput
		debugFile = origFile
		debugMutex.Unlock()

		if envSet {
			os.Setenv("DEBUG", origEnv)
		} else {
			os.Unsetenv("DEBUG")
		}
	}
}

func TestIsDebugEnabled(t *testing.T) {
	restore := saveAndRestoreState()
	defer restore()

	EnableDebug = "false"
	os.Unsetenv("DEBUG")
	assert.False(t, IsDebugEnabled(), "debug should be disabled by default")

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled(), "build flag should enable debug")

	EnableDebug = "false"
	os.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled(), "DEBUG=1 should enable debug")

	os.Setenv("DEBUG", "true")
	assert.True(t, IsDebugEnabled(), "DEBUG=true should enable debug")

	os.Setenv("DEBUG", "0")
	assert.False(t, IsDebugEnabled(), "DEBUG=0 should not enable debug")
}

func TestPrintf(t *testing.T) {
	restore := saveAndRestoreState()
	defer restore()

	var buf bytes.Buffer
	SetDebugOutput(&buf)

	EnableDebug = "false"
	os.Unsetenv("DEBUG")
	Printf("hidden %d\n", 1)
	assert.Empty(t, buf.String(), "output should be suppressed when debug is disabled")

	EnableDebug = "true"
	Printf("visible %d\n", 2)
	assert.Equal(t, "[DEBUG] visible 2\n", buf.String())
}

func TestPrintfNoWriter(t *testing.T) {
	restore := saveAndRestoreState()
	defer restore()

	EnableDebug = "true"
	SetDebugOutput(nil)

	// Should not panic with no writer configured
	Printf("goes nowhere %d\n", 3)
	Println("also nowhere")
}

func TestLog(t *testing.T) {
	restore := saveAndRestoreState()
	defer restore()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"

	Log("RUNNER", "processed %d files\n", 7)
	assert.Equal(t, "[DEBUG:RUNNER] processed 7 files\n", buf.String())

	buf.Reset()
	LogParse("parsed %s\n", "main.py")
	assert.Equal(t, "[DEBUG:PARSE] parsed main.py\n", buf.String())
}

func TestInitDebugLogFile(t *testing.T) {
	restore := saveAndRestoreState()
	defer restore()

	EnableDebug = "true"

	logPath, err := InitDebugLogFile()
	assert.NoError(t, err)
	assert.NotEmpty(t, logPath)

	Printf("written to file\n")
	assert.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] written to file")

	assert.NoError(t, os.Remove(logPath))
}
