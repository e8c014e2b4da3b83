package analytics

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stopwords are Indonesian function words, plus site boilerplate, left out
// of word frequencies.
var stopwords = toSet(`
ada adalah agar akan aku anda antara apa apakah atas atau bagi bahwa baru
bila bisa boleh buat bukan dalam dan dapat dari daripada demi dengan di dia
dirinya ini itu jadi jika juga kami kamu karena ke kepada ketika kita lagi
lain lalu maka mana masih mereka meski mungkin namun nya oleh pada para
pun saat saja sama sampai sangat sebagai sebelum sedang sehingga sejak
sekarang seperti serta setelah siapa sudah tak tanpa tapi telah tentang
tetapi tidak untuk walau yaitu yakni yang
no description image baca juga wib
`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// WordCount is one entry of a word-frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TopWords tokenizes texts on non-letters, drops stopwords and words
// shorter than three letters, and returns the n most frequent words.
// Ties are broken alphabetically.
func TopWords(texts []string, n int) []WordCount {
	caser := cases.Lower(language.Indonesian)
	counts := make(map[string]int)
	for _, text := range texts {
		words := strings.FieldsFunc(caser.String(text), func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		for _, w := range words {
			if len([]rune(w)) < 3 {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			counts[w]++
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
