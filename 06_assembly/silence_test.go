package assembly

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// wavDuration reads the data chunk size out of a canonical 44-byte WAV
// header and converts it to seconds.
func wavDuration(t *testing.T, path string) float64 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 44 {
		t.Fatalf("file too short for a WAV header: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("not a RIFF/WAVE file")
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	return float64(dataSize) / float64(sampleRate*2) // mono, 16-bit
}

func TestWriteSilence(t *testing.T) {
	cases := []float64{0.5, 1.5, 10.5}
	for _, want := range cases {
		path := filepath.Join(t.TempDir(), "s.wav")
		if err := WriteSilence(path, want); err != nil {
			t.Fatalf("WriteSilence(%v): %v", want, err)
		}
		got := wavDuration(t, path)
		if diff := got - want; diff > 0.001 || diff < -0.001 {
			t.Errorf("duration = %v, want %v", got, want)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range data[44:] {
			if b != 0 {
				t.Fatal("silence contains non-zero samples")
			}
		}
	}
}

func TestWriteSilenceZeroDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z.wav")
	if err := WriteSilence(path, 0); err != nil {
		t.Fatalf("WriteSilence(0): %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 44 {
		t.Errorf("size = %d, want bare 44-byte header", fi.Size())
	}
}
