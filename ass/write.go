package ass

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, " +
		"OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, " +
		"Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, " +
		"MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// WriteTo writes d to w. It implements [io.WriterTo].
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	d.writeInfo(bw)
	d.writeStyles(bw)
	d.writeEvents(bw)

	err := bw.Flush()
	if err != nil {
		return cw.n, fmt.Errorf("writing subtitle document: %w", err)
	}

	return cw.n, nil
}

// String returns the document text.
func (d *Document) String() string {
	var sb strings.Builder
	//nolint:errcheck // strings.Builder never fails.
	d.WriteTo(&sb)

	return sb.String()
}

func (d *Document) writeInfo(w *bufio.Writer) {
	info := d.Info

	w.WriteString("[Script Info]\n")

	for _, c := range info.Comments {
		w.WriteString("; " + c + "\n")
	}

	if info.Title != "" {
		w.WriteString("Title: " + info.Title + "\n")
	}

	w.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(w, "WrapStyle: %d\n", info.WrapStyle)

	if info.ScaledBorderAndShadow {
		w.WriteString("ScaledBorderAndShadow: yes\n")
	} else {
		w.WriteString("ScaledBorderAndShadow: no\n")
	}

	fmt.Fprintf(w, "PlayResX: %d\n", info.PlayResX)
	fmt.Fprintf(w, "PlayResY: %d\n", info.PlayResY)
	w.WriteString("\n")
}

func (d *Document) writeStyles(w *bufio.Writer) {
	w.WriteString("[V4+ Styles]\n")
	w.WriteString(styleFormat + "\n")

	for _, s := range d.Styles {
		fields := []string{
			s.Name,
			s.FontName,
			num(s.FontSize),
			s.PrimaryColour.String(),
			s.SecondaryColour.String(),
			s.OutlineColour.String(),
			s.BackColour.String(),
			flag(s.Bold),
			flag(s.Italic),
			flag(s.Underline),
			flag(s.StrikeOut),
			num(s.ScaleX),
			num(s.ScaleY),
			num(s.Spacing),
			num(s.Angle),
			strconv.Itoa(s.BorderStyle),
			num(s.Outline),
			num(s.Shadow),
			strconv.Itoa(s.Alignment),
			strconv.Itoa(s.MarginL),
			strconv.Itoa(s.MarginR),
			strconv.Itoa(s.MarginV),
			strconv.Itoa(s.Encoding),
		}

		w.WriteString("Style: " + strings.Join(fields, ",") + "\n")
	}

	w.WriteString("\n")
}

func (d *Document) writeEvents(w *bufio.Writer) {
	w.WriteString("[Events]\n")
	w.WriteString(eventFormat + "\n")

	for _, e := range d.Events {
		fmt.Fprintf(w, "Dialogue: %d,%s,%s,%s,%s,%d,%d,%d,%s,%s\n",
			e.Layer,
			FormatTime(e.Start),
			FormatTime(e.End),
			e.Style,
			e.Name,
			e.MarginL,
			e.MarginR,
			e.MarginV,
			e.Effect,
			e.Text,
		)
	}
}

// flag formats a boolean the way ASS styles expect: -1 for true.
func flag(b bool) string {
	if b {
		return "-1"
	}

	return "0"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
