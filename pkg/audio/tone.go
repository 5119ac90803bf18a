package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	SampleRate   = 44100
	ChannelCount = 1

	toneFrequency = 800.0
	toneLength    = 500 * time.Millisecond
	toneStartGain = 0.3
	toneEndGain   = 0.01
)

// Tone synthesizes the alarm beep: a short sine at 800Hz whose gain decays
// exponentially. The result is signed 16-bit little-endian mono PCM.
func Tone(sampleRate int) []byte {
	n := int(float64(sampleRate) * toneLength.Seconds())
	pcm := make([]byte, n*2)
	decay := math.Log(toneEndGain/toneStartGain) / float64(n)

	for i := 0; i < n; i++ {
		gain := toneStartGain * math.Exp(decay*float64(i))
		v := gain * math.Sin(2*math.Pi*toneFrequency*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return pcm
}
