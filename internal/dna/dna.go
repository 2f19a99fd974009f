// Package dna provides nucleotide helpers shared by the sequence tools.
package dna

import "github.com/shenwei356/bio/seq"

// Complement returns the Watson-Crick partner of an IUPAC nucleotide code.
// Case is preserved; symbols outside the IUPAC DNA alphabet map to 'N'.
func Complement(b byte) byte {
	p, err := seq.DNAredundant.PairLetter(b)
	if err != nil {
		return 'N'
	}
	return p
}

// RevComp returns the reverse complement of seq as a new slice.
func RevComp(s []byte) []byte {
	n := len(s)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i, b := range s {
		out[n-1-i] = Complement(b)
	}
	return out
}

// IsACGT reports whether seq contains only unambiguous upper-case bases.
func IsACGT(s []byte) bool {
	for _, b := range s {
		switch b {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}
