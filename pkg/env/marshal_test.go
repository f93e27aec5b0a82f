package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string        `env:"SAMPLE_NAME"`
	Port     int           `env:"SAMPLE_PORT"`
	Gap      uint64        `env:"SAMPLE_GAP"`
	Temp     float32       `env:"SAMPLE_TEMP"`
	Enabled  bool          `env:"SAMPLE_ENABLED"`
	Timeout  time.Duration `env:"SAMPLE_TIMEOUT"`
	Token    string        `env:"SAMPLE_TOKEN,required,notEmpty"`
	Untagged string
	private  string `env:"SAMPLE_PRIVATE"`
}

func TestMarshalEnv(t *testing.T) {
	s := &sample{
		Name:    "tusk bot",
		Port:    9999,
		Gap:     30,
		Temp:    0.5,
		Timeout: 5 * time.Second,
		Token:   "abc",
		private: "hidden",
	}

	out, err := MarshalEnv(s)
	require.NoError(t, err)
	assert.Equal(t, "SAMPLE_NAME=\"tusk bot\"\n"+
		"SAMPLE_PORT=9999\n"+
		"SAMPLE_GAP=30\n"+
		"SAMPLE_TEMP=0.5\n"+
		"SAMPLE_TIMEOUT=5s\n"+
		"SAMPLE_TOKEN=abc\n", out)
}

func TestMarshalEnv_WithZeroValues(t *testing.T) {
	out, err := MarshalEnv(&sample{Token: "abc"}, WithZeroValues())
	require.NoError(t, err)
	assert.Contains(t, out, "SAMPLE_NAME=\"\"\n")
	assert.Contains(t, out, "SAMPLE_ENABLED=false\n")
	assert.Contains(t, out, "SAMPLE_TIMEOUT=0s\n")
	assert.NotContains(t, out, "SAMPLE_PRIVATE")
}

func TestMarshalEnv_RejectsNonPointer(t *testing.T) {
	_, err := MarshalEnv(sample{})
	require.Error(t, err)
}

func TestMarshalEnv_RoundTrip(t *testing.T) {
	in := &sample{
		Name:    "tusk # bot",
		Port:    8080,
		Enabled: true,
		Timeout: 90 * time.Second,
		Token:   "abc",
	}
	out, err := MarshalEnv(in, WithZeroValues())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))
	vars, err := godotenv.Read(path)
	require.NoError(t, err)

	var parsed sample
	require.NoError(t, env.ParseWithOptions(&parsed, env.Options{Environment: vars}))
	assert.Equal(t, in.Name, parsed.Name)
	assert.Equal(t, in.Port, parsed.Port)
	assert.Equal(t, in.Enabled, parsed.Enabled)
	assert.Equal(t, in.Timeout, parsed.Timeout)
}
