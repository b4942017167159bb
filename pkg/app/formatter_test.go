package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleListing() *Listing {
	return &Listing{
		Image: "disk.img",
		Entries: []FileEntry{
			{Name: ".", Ino: 0, Mode: FormatMode(0o040777), Size: 4096, Blocks: 8, Modified: time.Unix(0, 0).UTC()},
			{Name: "notes", Ino: 1, Mode: FormatMode(0o100644), Size: 10, Blocks: 8, Modified: time.Unix(0, 0).UTC()},
		},
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantErr  bool
		validate func(*testing.T, string)
	}{
		{
			name:   "table format",
			format: "table",
			validate: func(t *testing.T, output string) {
				assert.Contains(t, output, "INO")
				assert.Contains(t, output, "notes")
				assert.Contains(t, output, "2 entries")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output string) {
				var got Listing
				require.NoError(t, json.Unmarshal([]byte(output), &got))
				assert.Len(t, got.Entries, 2)
				assert.Equal(t, "notes", got.Entries[1].Name)
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output string) {
				var got map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(output), &got))
				assert.Equal(t, "disk.img", got["image"])
			},
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := FormatOutput(&buf, sampleListing(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.String())
		})
	}
}

func TestVolumeInfoTable(t *testing.T) {
	info := &VolumeInfo{
		Image: "disk.img", SizeBytes: 1 << 20, BlockSize: 4096,
		Blocks: 256, FreeBlocks: 251, Inodes: 32, FreeInodes: 31,
		DataRegion: 4, NameMax: 252,
	}
	var buf bytes.Buffer
	require.NoError(t, info.WriteTable(&buf))
	out := buf.String()
	assert.Contains(t, out, "1.0 MB")
	assert.Contains(t, out, "256 total, 251 free")
	assert.Contains(t, out, "251 bytes")
}

func TestCheckResultTable(t *testing.T) {
	var buf bytes.Buffer
	clean := &CheckResult{Image: "disk.img", Consistent: true, InodesInUse: 1, BlocksInUse: 5, Entries: 2}
	require.NoError(t, clean.WriteTable(&buf))
	assert.Contains(t, buf.String(), "disk.img: clean")
	assert.NotContains(t, buf.String(), "RULE")

	buf.Reset()
	bad := &CheckResult{Image: "disk.img", Problems: []CheckProblem{{Rule: "counters", Message: "free blocks 3, counted 4"}}}
	require.NoError(t, bad.WriteTable(&buf))
	assert.Contains(t, buf.String(), "1 problems")
	assert.Contains(t, buf.String(), "counters")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "4.0 KB", FormatBytes(4096))
	assert.Equal(t, "1.5 MB", FormatBytes(3<<19))
}

func TestFormatMode(t *testing.T) {
	assert.Equal(t, "drwxrwxrwx", FormatMode(0o040777))
	assert.Equal(t, "-rw-r--r--", FormatMode(0o100644))
	assert.Equal(t, "----------", FormatMode(0o100000))
}
