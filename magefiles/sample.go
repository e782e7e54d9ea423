//go:build mage

package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

const sampleFile = "data/sample.csv"

// Sample block model dimensions. Blocks are 15 m cubes.
const (
	sampleNX   = 20
	sampleNY   = 20
	sampleNZ   = 40
	sampleSize = 15.0
)

// Sample writes a synthetic block model with an ellipsoidal ore body to
// data/sample.csv. The profit of a block is its metal value minus the
// mining cost, with seeded noise so the file is reproducible.
func Sample() error {
	if err := os.MkdirAll(filepath.Dir(sampleFile), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(sampleFile), err)
	}
	f, err := os.Create(sampleFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", sampleFile, err)
	}
	defer f.Close()

	rng := rand.New(rand.NewPCG(1, 2))
	w := csv.NewWriter(f)
	if err := w.Write([]string{"x", "y", "z", "grade", "profit"}); err != nil {
		return err
	}

	cx, cy, cz := sampleNX*sampleSize/2, sampleNY*sampleSize/2, sampleNZ*sampleSize*0.6
	rows := 0
	for k := 0; k < sampleNZ; k++ {
		for i := 0; i < sampleNX; i++ {
			for j := 0; j < sampleNY; j++ {
				x, y, z := float64(i)*sampleSize, float64(j)*sampleSize, float64(k)*sampleSize
				d := math.Pow((x-cx)/120, 2) + math.Pow((y-cy)/120, 2) + math.Pow((z-cz)/180, 2)
				grade := math.Max(0, 1.2*math.Exp(-d)+rng.NormFloat64()*0.05)
				profit := grade*9000 - 3000
				err := w.Write([]string{
					strconv.FormatFloat(x, 'f', -1, 64),
					strconv.FormatFloat(y, 'f', -1, 64),
					strconv.FormatFloat(z, 'f', -1, 64),
					strconv.FormatFloat(grade, 'f', 4, 64),
					strconv.FormatFloat(profit, 'f', 2, 64),
				})
				if err != nil {
					return err
				}
				rows++
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", sampleFile, err)
	}
	fmt.Printf("Wrote %d blocks to %s\n", rows, sampleFile)
	return nil
}
