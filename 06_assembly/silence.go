package assembly

import (
	"encoding/binary"
	"fmt"
	"os"
)

const silenceSampleRate = 44100

// WriteSilence synthesizes a mono 16-bit PCM WAV file containing only
// silence of the requested duration. It is the terminal fallback of the
// sound fetcher chain and must always succeed on a writable path.
func WriteSilence(path string, duration float64) error {
	if duration < 0 {
		duration = 0
	}
	frames := int(duration * silenceSampleRate)
	dataLen := frames * 2 // 16-bit mono

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create silence file: %w", err)
	}
	defer f.Close()

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], silenceSampleRate)
	binary.LittleEndian.PutUint32(header[28:32], silenceSampleRate*2)
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := f.Write(header[:]); err != nil {
		return err
	}

	// Write zeroed samples in chunks rather than one frame at a time.
	zeros := make([]byte, 64*1024)
	remaining := dataLen
	for remaining > 0 {
		n := len(zeros)
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(zeros[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}
