package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// ParseWAV extracts the format and sample data of a PCM WAV file.
// Only 16-bit samples are accepted since the output device is opened
// as signed 16-bit little-endian.
func ParseWAV(data []byte) (Format, []byte, error) {
	var format Format
	r := bytes.NewReader(data)

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return format, nil, fmt.Errorf("read wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return format, nil, errors.New("not a RIFF/WAVE file")
	}

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return format, nil, errors.New("wav file has no data chunk")
			}
			return format, nil, fmt.Errorf("read wav chunk: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var fmtChunk struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &fmtChunk); err != nil {
				return format, nil, fmt.Errorf("read wav format: %w", err)
			}
			format = Format{
				SampleRate: int(fmtChunk.SampleRate),
				Channels:   int(fmtChunk.Channels),
				BitDepth:   int(fmtChunk.BitsPerSample),
			}
			if extra := size - 16; extra > 0 {
				if _, err := r.Seek(extra, io.SeekCurrent); err != nil {
					return format, nil, err
				}
			}
		case "data":
			if format.SampleRate == 0 {
				return format, nil, errors.New("wav data chunk before format chunk")
			}
			if format.BitDepth != 16 {
				return format, nil, fmt.Errorf("unsupported wav bit depth %d", format.BitDepth)
			}
			pcm := make([]byte, size)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return format, nil, fmt.Errorf("read wav data: %w", err)
			}
			return format, pcm, nil
		default:
			if _, err := r.Seek(size, io.SeekCurrent); err != nil {
				return format, nil, err
			}
		}
	}
}

// LoadClip reads a WAV file to be looped in place of the synthesized tone.
// It must match the format the output device is opened with.
func LoadClip(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alarm sound: %w", err)
	}
	format, pcm, err := ParseWAV(data)
	if err != nil {
		return nil, fmt.Errorf("parse alarm sound %s: %w", path, err)
	}
	if format.SampleRate != SampleRate || format.Channels != ChannelCount {
		return nil, fmt.Errorf("alarm sound %s is %dHz/%dch, want %dHz/%dch",
			path, format.SampleRate, format.Channels, SampleRate, ChannelCount)
	}
	return pcm, nil
}
