package noisesuppression

// Gate silences frames unless a voice-confident frame was seen recently.
//
// Every frame whose voice probability reaches the threshold passes and
// re-arms the countdown to the release length; after that, the next
// `releaseFrames` frames pass regardless of their probability, and then the
// gate closes until the next confident frame.
//
// So `releaseFrames` counts the frames passing after the last confident
// one; a per-frame countdown that also decrements on confident frames keeps
// the gate open one frame less for the same value.
type Gate struct {
	// Remaining is the amount of frames that will still pass without a
	// confident voice detection.
	Remaining uint
}

// Advance accounts one frame and reports whether it passes.
func (g *Gate) Advance(
	voiceProbability float32,
	threshold float32,
	releaseFrames uint,
) bool {
	if voiceProbability >= threshold {
		g.Remaining = releaseFrames
		return true
	}
	if g.Remaining > 0 {
		g.Remaining--
		return true
	}
	return false
}

// IsOpen reports whether the next frame passes even without voice.
func (g *Gate) IsOpen() bool {
	return g.Remaining > 0
}

func (g *Gate) Reset() {
	g.Remaining = 0
}
