package util

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strings"
	"text/tabwriter"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e9:
		return fmt.Sprintf("%.3f G%s", value/1e9, unit)
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1 || absValue == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatComplex prints a+bj with a fixed number of decimals. Negative zero
// prints as zero.
func FormatComplex(v complex128, precision int) string {
	re, im := real(v)+0, imag(v)+0
	sign := "+"
	if im < 0 {
		sign = "-"
		im = -im
	}
	return fmt.Sprintf("%.*f%s%.*fj", precision, re, sign, precision, im)
}

func FormatMagnitudePhase(name string, value complex128) string {
	mag, phase := cmplx.Polar(value)
	var magStr string
	if mag >= 1000 || (mag < 0.001 && mag != 0) {
		magStr = fmt.Sprintf("%8.2e", mag) // e.g., "1.00e+03"
	} else {
		magStr = fmt.Sprintf("%8.3g", mag) // e.g., "  49.86 "
	}
	phaseStr := fmt.Sprintf("%6.1f", phase*180/math.Pi) // e.g., " -85.7"
	return fmt.Sprintf("%s=%s<%sdeg", name, magStr, phaseStr)
}

// FormatMatrix writes a labelled square matrix, one row per line.
func FormatMatrix(w io.Writer, names []string, rows [][]complex128, precision int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(names, "\t"))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatComplex(v, precision)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", names[i], strings.Join(cells, "\t"))
	}

	return tw.Flush()
}
