package main

import (
	"testing"
)

func TestClassesCommand(t *testing.T) {
	tests := []struct {
		name        string
		granularity int64
		smallmax    int64
		maxblock    int64
		poolsize    int64
		wantErr     bool
		wantContain []string
		wantJSON    bool
	}{
		{
			name:        "default table",
			granularity: 16,
			smallmax:    512,
			maxblock:    8192,
			poolsize:    65536,
			wantContain: []string{"CLASS", "BLOCKS/POOL", "44 classes", "8192"},
			wantErr:     false,
		},
		{
			name:        "coarse granularity",
			granularity: 64,
			smallmax:    512,
			maxblock:    512,
			poolsize:    4096,
			wantContain: []string{"8 classes", "requests above 512 bytes"},
			wantErr:     false,
		},
		{
			name:        "default table as JSON",
			granularity: 16,
			smallmax:    512,
			maxblock:    8192,
			poolsize:    65536,
			wantJSON:    true,
			wantContain: []string{"\"BlockSize\": 8192", "\"Granularity\": 16"},
			wantErr:     false,
		},
		{
			name:        "granularity not a power of two",
			granularity: 7,
			smallmax:    512,
			maxblock:    8192,
			poolsize:    65536,
			wantErr:     true,
		},
		{
			name:        "poolsize below maxblock",
			granularity: 16,
			smallmax:    512,
			maxblock:    8192,
			poolsize:    4096,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = false
			jsonOut = tt.wantJSON
			classGranularity = tt.granularity
			classSmallmax = tt.smallmax
			classMaxblock = tt.maxblock
			classPoolsize = tt.poolsize

			output, err := captureOutput(t, func() error {
				return runClasses()
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runClasses() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}

			if tt.wantJSON && !tt.wantErr {
				assertJSON(t, output)
			}

			assertContains(t, output, tt.wantContain)
		})
	}
}
