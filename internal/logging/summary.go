package logging

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pressline/mastercheck/internal/processor"
)

// Column offsets of the rendered summary. Labels are left-aligned and
// padded to valueColumn; the right channel of the noise floor table
// starts at rightColumn.
const (
	valueColumn = 24
	rightColumn = 40
)

// RenderSummary formats one parsed record into the report shown to the
// engineer. Every referenced field must be present; an absent field
// yields a *processor.MissingFieldError and no partial output.
func RenderSummary(info *processor.MasteringInfo, sourceLabel string) (string, error) {
	for _, f := range []struct {
		present bool
		name    string
	}{
		{info.LengthSecs != nil, "estimated duration"},
		{info.BitDepth != nil, "bit depth"},
		{info.SampleRateKHz != nil, "sample rate"},
		{info.IntegratedLUFS != nil, "integrated loudness"},
		{info.MaxShortTermLUFS != nil, "max short-term loudness"},
		{info.LoudnessRange != nil, "loudness range"},
		{info.TruePeak != nil, "true peak"},
		{info.CrestFactor != nil, "crest factor"},
		{info.MaxMomentaryLUFS != nil, "max momentary loudness"},
		{info.NormalizationGain != nil, "normalization gain"},
		{info.NoiseFloor != nil, "noise floor"},
	} {
		if !f.present {
			return "", &processor.MissingFieldError{Field: f.name}
		}
	}

	var sb strings.Builder

	title := "Sound Check Info for " + sourceLabel
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)) + "\n\n")

	writeMetric(&sb, "Approx Length", FormatDuration(*info.LengthSecs, false))
	writeMetric(&sb, "Bit Depth", strconv.Itoa(*info.BitDepth))
	writeMetric(&sb, "Sample Rate", formatNumber(*info.SampleRateKHz)+" kbps")
	writeMetric(&sb, "Loudness iLUFS", formatNumber(*info.IntegratedLUFS))
	writeMetric(&sb, "Max Short-term LUFS", formatNumber(*info.MaxShortTermLUFS))
	writeMetric(&sb, "Loudness Range", formatNumber(*info.LoudnessRange))
	writeMetric(&sb, "True Peak", formatNumber(*info.TruePeak))
	writeMetric(&sb, "Crest Factor", fmt.Sprintf("%.2f", *info.CrestFactor))
	writeMetric(&sb, "Max Momentary LUFS", formatNumber(*info.MaxMomentaryLUFS))
	writeMetric(&sb, "Sound Check Norm Gain", formatNumber(*info.NormalizationGain)+" dB")
	sb.WriteString("\n")

	sb.WriteString(twoColumnLine("", "Left", "Right"))
	sb.WriteString(twoColumnLine("Noise Floor:",
		fmt.Sprintf("%.2f", info.NoiseFloor.Left),
		fmt.Sprintf("%.2f", info.NoiseFloor.Right)))

	return sb.String(), nil
}

func writeMetric(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "%-*s%s\n", valueColumn, label+":", value)
}

// twoColumnLine lays out a label plus a per-channel value pair, padding
// so the right channel always starts at rightColumn.
func twoColumnLine(label, left, right string) string {
	line := fmt.Sprintf("%-*s%s", valueColumn, label, left)
	if pad := rightColumn - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	return line + right + "\n"
}

// formatNumber renders a parsed measurement at its source precision: the
// shortest decimal string that round-trips, so "-21.0245" in the afinfo
// report comes back out as "-21.0245".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
