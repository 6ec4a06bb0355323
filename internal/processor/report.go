// Package processor handles the pre-mastering analysis pipeline: it runs
// the external toolchain and turns afinfo's free-text report into a
// structured record.
package processor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StereoPair holds one measurement per channel of a stereo master.
type StereoPair struct {
	Left  float64
	Right float64
}

// MasteringInfo is the structured record extracted from one afinfo report.
// Every field is pointer-typed: nil means the corresponding line was not
// present in the report. The record lives for a single invocation.
type MasteringInfo struct {
	Channels          *int
	SampleRateKHz     *float64
	LengthSecs        *float64
	NoiseFloor        *StereoPair
	TruePeak          *float64
	MaxShortTermLUFS  *float64
	LoudnessRange     *float64
	IntegratedLUFS    *float64
	BitDepth          *int
	NormalizationGain *float64
	MaxMomentaryLUFS  *float64

	// Derived by AddDerivedMetrics, never parsed directly.
	CrestFactor *float64
}

// ErrChannelsUndetermined is returned by VerifyStereo when the report
// contained no recognisable "Data format" line.
var ErrChannelsUndetermined = errors.New("channel count could not be determined from analysis report")

// ChannelCountError reports a master that is not two-channel.
type ChannelCountError struct {
	Count int
}

func (e *ChannelCountError) Error() string {
	return fmt.Sprintf("expected a 2-channel master, got %d channel(s)", e.Count)
}

// MissingFieldError reports a field that the pipeline needs but the
// upstream report did not contain, e.g. because it was truncated or the
// intermediate was encoded without Sound Check metadata.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "analysis report is missing " + e.Field
}

// extractRule binds one afinfo line pattern to the field(s) it populates.
// Rules are mutually exclusive: no report line can match more than one
// pattern. The test suite verifies this, so rule order carries no meaning.
type extractRule struct {
	name  string
	re    *regexp.Regexp
	apply func(info *MasteringInfo, m []string)
}

const decimal = `(-?\d+(?:\.\d+)?)`

var extractRules = []extractRule{
	{
		name: "data format",
		re:   regexp.MustCompile(`Data format:\s*(\d+)\s+ch,\s*(\d+(?:\.\d+)?)\s+Hz`),
		apply: func(info *MasteringInfo, m []string) {
			if ch, err := strconv.Atoi(m[1]); err == nil {
				info.Channels = &ch
			}
			if hz, err := strconv.ParseFloat(m[2], 64); err == nil {
				khz := hz / 1000
				info.SampleRateKHz = &khz
			}
		},
	},
	{
		name: "estimated duration",
		re:   regexp.MustCompile(`estimated duration:\s*` + decimal + `\s*sec`),
		apply: func(info *MasteringInfo, m []string) {
			info.LengthSecs = parseFloat(m[1])
		},
	},
	{
		name: "noise floor",
		re:   regexp.MustCompile(`aa noise floor master\s*:\s*"([^"]+)"`),
		apply: func(info *MasteringInfo, m []string) {
			fields := strings.Fields(m[1])
			if len(fields) != 2 {
				return
			}
			left, errL := strconv.ParseFloat(fields[0], 64)
			right, errR := strconv.ParseFloat(fields[1], 64)
			if errL == nil && errR == nil {
				info.NoiseFloor = &StereoPair{Left: left, Right: right}
			}
		},
	},
	{
		name: "true peak",
		re:   regexp.MustCompile(`aa itu true peak\s*:\s*` + decimal),
		apply: func(info *MasteringInfo, m []string) {
			info.TruePeak = parseFloat(m[1])
		},
	},
	{
		name: "max short-term loudness",
		re:   regexp.MustCompile(`aa ebu max short-term loudness\s*:\s*` + decimal),
		apply: func(info *MasteringInfo, m []string) {
			info.MaxShortTermLUFS = parseFloat(m[1])
		},
	},
	{
		name: "loudness range",
		re:   regexp.MustCompile(`aa ebu loudness range\s*:\s*` + decimal),
		apply: func(info *MasteringInfo, m []string) {
			info.LoudnessRange = parseFloat(m[1])
		},
	},
	{
		name: "integrated loudness",
		re:   regexp.MustCompile(`aa itu loudness\s*:\s*` + decimal),
		apply: func(info *MasteringInfo, m []string) {
			info.IntegratedLUFS = parseFloat(m[1])
		},
	},
	{
		name: "bit depth",
		re:   regexp.MustCompile(`bit depth pcm master\s*:\s*(\d+)`),
		apply: func(info *MasteringInfo, m []string) {
			if depth, err := strconv.Atoi(m[1]); err == nil {
				info.BitDepth = &depth
			}
		},
	},
	{
		name: "normalization gain",
		re:   regexp.MustCompile(`sound check volume normalization gain\s*:\s*` + decimal + `\s*dB`),
		apply: func(info *MasteringInfo, m []string) {
			info.NormalizationGain = parseFloat(m[1])
		},
	},
	{
		name: "max momentary loudness",
		re:   regexp.MustCompile(`aa ebu max momentary loudness\s*:\s*` + decimal),
		apply: func(info *MasteringInfo, m []string) {
			info.MaxMomentaryLUFS = parseFloat(m[1])
		},
	},
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseReport scans an afinfo report line by line and extracts every
// recognised measurement. Lines matching no rule are ignored; parsing
// itself never fails. Missing fields surface later through VerifyStereo,
// AddDerivedMetrics and the renderer.
func ParseReport(text string) *MasteringInfo {
	info := &MasteringInfo{}
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		for _, rule := range extractRules {
			if m := rule.re.FindStringSubmatch(line); m != nil {
				rule.apply(info, m)
				break
			}
		}
	}
	return info
}

// splitLines splits on LF, CRLF or bare CR.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// VerifyStereo checks that the report described exactly two channels.
// The Sound Check noise floor measurement carries one value per channel,
// so the rest of the pipeline assumes a stereo master.
func (info *MasteringInfo) VerifyStereo() error {
	if info.Channels == nil {
		return ErrChannelsUndetermined
	}
	if *info.Channels != 2 {
		return &ChannelCountError{Count: *info.Channels}
	}
	return nil
}

// AddDerivedMetrics computes the crest factor (integrated loudness minus
// true peak). Both operands must have been extracted; an absent operand
// means the upstream report was malformed or truncated.
func (info *MasteringInfo) AddDerivedMetrics() error {
	if info.IntegratedLUFS == nil {
		return &MissingFieldError{Field: "integrated loudness"}
	}
	if info.TruePeak == nil {
		return &MissingFieldError{Field: "true peak"}
	}
	cf := *info.IntegratedLUFS - *info.TruePeak
	info.CrestFactor = &cf
	return nil
}
