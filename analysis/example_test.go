package analysis_test

import (
	"fmt"

	"github.com/cwbudde/algo-wavqa/analysis"
)

func ExampleCompare() {
	reference := []int16{1000, -1000, 1000, -1000}
	test := []int16{1000, -1000, 1010, -990}

	m, err := analysis.Compare(reference, test)
	if err != nil {
		panic(err)
	}
	fmt.Printf("MSE %.1f, max error %.0f\n", m.MSE, m.MaxAbsError)
	fmt.Printf("SNR %.2f dB, PSNR %.2f dB\n", m.SNRDB, m.PSNRDB)
	// Output:
	// MSE 50.0, max error 10
	// SNR 43.01 dB, PSNR 73.32 dB
}
