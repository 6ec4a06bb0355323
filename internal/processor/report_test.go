package processor

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

// fullReport is a representative afinfo dump for a Sound Check encoded
// stereo master, including the surrounding lines the parser must ignore.
const fullReport = `File:           /tmp/mastercheck-1234/intermediate.m4a
File type ID:   m4af
Num Tracks:     1
----
Data format:     2 ch,  44100 Hz, 'aac ' (0x00000000) 0 bits/channel, 0 bytes/packet, 1024 frames/packet, 0 bytes/frame
Channel layout: Stereo (L R)
estimated duration: 415.512018 sec
audio bytes: 13297152
audio packets: 17901
bit rate: 255903 bits per second
packet size upper bound: 1148
maximum packet size: 1148
audio data file offset: 44
optimized
audio 18324080 valid frames + 2112 priming + 1616 remainder = 18327808
source bit depth: I16
----
Loudness Info:
sound check volume normalization gain: 6.48 dB
sound check max level: 0.27
sound check max sample: 8749
aa itu loudness                  : -21.0245
aa itu true peak               : -3.92289
aa ebu max momentary loudness    : -17.3011
aa ebu max short-term loudness   : -18.3304
aa ebu loudness range            : 4.3
aa noise floor master            : "-129.15 -129.03"
bit depth pcm master             : 24
----
`

func TestParseReportFull(t *testing.T) {
	info := ParseReport(fullReport)

	checkInt := func(name string, got *int, want int) {
		t.Helper()
		if got == nil {
			t.Fatalf("%s not extracted", name)
		}
		if *got != want {
			t.Errorf("%s = %d, want %d", name, *got, want)
		}
	}
	checkFloat := func(name string, got *float64, want float64) {
		t.Helper()
		if got == nil {
			t.Fatalf("%s not extracted", name)
		}
		if *got != want {
			t.Errorf("%s = %v, want %v", name, *got, want)
		}
	}

	checkInt("channels", info.Channels, 2)
	checkFloat("sample rate", info.SampleRateKHz, 44.1)
	checkFloat("length", info.LengthSecs, 415.512018)
	checkFloat("true peak", info.TruePeak, -3.92289)
	checkFloat("max short-term loudness", info.MaxShortTermLUFS, -18.3304)
	checkFloat("loudness range", info.LoudnessRange, 4.3)
	checkFloat("integrated loudness", info.IntegratedLUFS, -21.0245)
	checkInt("bit depth", info.BitDepth, 24)
	checkFloat("normalization gain", info.NormalizationGain, 6.48)
	checkFloat("max momentary loudness", info.MaxMomentaryLUFS, -17.3011)

	if info.NoiseFloor == nil {
		t.Fatal("noise floor not extracted")
	}
	if info.NoiseFloor.Left != -129.15 || info.NoiseFloor.Right != -129.03 {
		t.Errorf("noise floor = (%v, %v), want (-129.15, -129.03)",
			info.NoiseFloor.Left, info.NoiseFloor.Right)
	}

	if info.CrestFactor != nil {
		t.Error("crest factor must not be set by parsing alone")
	}
}

func TestParseReportDataFormat(t *testing.T) {
	info := ParseReport("Data format:     2 ch,  48000 Hz, 'lpcm' (0x00000029) 32-bit little-endian float\n")

	if info.Channels == nil || *info.Channels != 2 {
		t.Fatalf("channels = %v, want 2", info.Channels)
	}
	if info.SampleRateKHz == nil || *info.SampleRateKHz != 48.0 {
		t.Fatalf("sample rate = %v, want 48.0", info.SampleRateKHz)
	}
}

func TestParseReportLineEndings(t *testing.T) {
	lines := []string{
		`aa itu loudness                  : -14.3081`,
		`aa itu true peak               : -0.161641`,
	}

	for _, tt := range []struct {
		name string
		sep  string
	}{
		{"unix", "\n"},
		{"windows", "\r\n"},
		{"classic mac", "\r"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseReport(strings.Join(lines, tt.sep))
			if info.IntegratedLUFS == nil || *info.IntegratedLUFS != -14.3081 {
				t.Errorf("integrated loudness = %v, want -14.3081", info.IntegratedLUFS)
			}
			if info.TruePeak == nil || *info.TruePeak != -0.161641 {
				t.Errorf("true peak = %v, want -0.161641", info.TruePeak)
			}
		})
	}
}

func TestParseReportWhitespaceTolerance(t *testing.T) {
	// Label spacing drifts between afinfo versions; the parser accepts
	// arbitrary leading whitespace and spacing around the separator.
	variants := []string{
		`aa ebu loudness range            : 4.3`,
		`aa ebu loudness range: 4.3`,
		`   aa ebu loudness range :   4.3   `,
		"\taa ebu loudness range\t:\t4.3",
	}
	for _, line := range variants {
		info := ParseReport(line)
		if info.LoudnessRange == nil || *info.LoudnessRange != 4.3 {
			t.Errorf("loudness range not extracted from %q", line)
		}
	}
}

func TestParseReportIdempotent(t *testing.T) {
	a := ParseReport(fullReport)
	b := ParseReport(fullReport)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two parses of the same report differ: %+v vs %+v", a, b)
	}
}

func TestParseReportIgnoresUnknownLines(t *testing.T) {
	info := ParseReport("nothing to see here\nCopyright: none\n")
	if !reflect.DeepEqual(info, &MasteringInfo{}) {
		t.Errorf("unknown lines populated fields: %+v", info)
	}
}

// ruleSamples holds one canonical report line per extraction rule.
var ruleSamples = map[string]string{
	"data format":             `Data format:     2 ch,  44100 Hz, 'aac ' (0x00000000) 0 bits/channel`,
	"estimated duration":      `estimated duration: 415.512018 sec`,
	"noise floor":             `aa noise floor master            : "-129.15 -129.03"`,
	"true peak":               `aa itu true peak               : -0.161641`,
	"max short-term loudness": `aa ebu max short-term loudness   : -18.3304`,
	"loudness range":          `aa ebu loudness range            : 4.3`,
	"integrated loudness":     `aa itu loudness                  : -14.3081`,
	"bit depth":               `bit depth pcm master             : 24`,
	"normalization gain":      `sound check volume normalization gain: 6.48 dB`,
	"max momentary loudness":  `aa ebu max momentary loudness    : -17.3011`,
}

// TestExtractRulesMutuallyExclusive pins down the property that makes
// rule order irrelevant: no sample line satisfies more than one rule.
func TestExtractRulesMutuallyExclusive(t *testing.T) {
	if len(ruleSamples) != len(extractRules) {
		t.Fatalf("have %d samples for %d rules", len(ruleSamples), len(extractRules))
	}

	for name, line := range ruleSamples {
		var matched []string
		for _, rule := range extractRules {
			if rule.re.MatchString(line) {
				matched = append(matched, rule.name)
			}
		}
		if len(matched) != 1 || matched[0] != name {
			t.Errorf("line for rule %q matched %v", name, matched)
		}
	}
}

func TestVerifyStereo(t *testing.T) {
	t.Run("stereo passes", func(t *testing.T) {
		info := ParseReport(`Data format:     2 ch,  48000 Hz, 'aac '`)
		if err := info.VerifyStereo(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("wrong channel count carries the count", func(t *testing.T) {
		for _, channels := range []int{1, 6} {
			info := ParseReport(fmt.Sprintf("Data format:     %d ch,  48000 Hz, 'aac '", channels))
			err := info.VerifyStereo()
			var ccErr *ChannelCountError
			if !errors.As(err, &ccErr) {
				t.Fatalf("got %v, want *ChannelCountError", err)
			}
			if ccErr.Count != channels {
				t.Errorf("error count = %d, want %d", ccErr.Count, channels)
			}
		}
	})

	t.Run("missing data format line", func(t *testing.T) {
		info := ParseReport("estimated duration: 5.0 sec\n")
		if err := info.VerifyStereo(); !errors.Is(err, ErrChannelsUndetermined) {
			t.Errorf("got %v, want ErrChannelsUndetermined", err)
		}
	})
}

func TestAddDerivedMetrics(t *testing.T) {
	t.Run("crest factor from report fragment", func(t *testing.T) {
		info := ParseReport("aa itu loudness                  : -14.3081\naa itu true peak               : -0.161641\n")
		if err := info.AddDerivedMetrics(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.CrestFactor == nil {
			t.Fatal("crest factor not set")
		}
		want := -14.3081 - (-0.161641)
		if math.Abs(*info.CrestFactor-want) > 1e-9 {
			t.Errorf("crest factor = %v, want %v", *info.CrestFactor, want)
		}
	})

	t.Run("missing integrated loudness", func(t *testing.T) {
		info := ParseReport("aa itu true peak               : -0.161641\n")
		err := info.AddDerivedMetrics()
		var mfErr *MissingFieldError
		if !errors.As(err, &mfErr) {
			t.Fatalf("got %v, want *MissingFieldError", err)
		}
		if mfErr.Field != "integrated loudness" {
			t.Errorf("missing field = %q, want %q", mfErr.Field, "integrated loudness")
		}
		if info.CrestFactor != nil {
			t.Error("crest factor set despite missing operand")
		}
	})

	t.Run("missing true peak", func(t *testing.T) {
		info := ParseReport("aa itu loudness                  : -14.3081\n")
		err := info.AddDerivedMetrics()
		var mfErr *MissingFieldError
		if !errors.As(err, &mfErr) {
			t.Fatalf("got %v, want *MissingFieldError", err)
		}
		if mfErr.Field != "true peak" {
			t.Errorf("missing field = %q, want %q", mfErr.Field, "true peak")
		}
	})
}
