// Package lexicon provides vocabulary lookup for the router: canonical terms
// folded once at load, matched in free text exactly first and by bounded edit
// distance second
package lexicon

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Lexicon holds a folded vocabulary
// construct once per process and share; lookups are read only
type Lexicon struct {
	// folded form to canonical term
	byFolded map[string]string
	// folded forms ordered longest first, so "CENTRAL AREA" wins over "CENTRAL"
	folded []string
	// widest term in words, bounds the n-gram scan window
	maxWords int
}

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			width.Fold,
		)
	},
}

// Fold normalizes a term or query fragment for comparison
func Fold(s string) string {
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	return strings.Join(strings.Fields(ns), " ")
}

// New builds a Lexicon from canonical terms; blanks are dropped
func New(terms []string) *Lexicon {
	l := &Lexicon{byFolded: make(map[string]string, len(terms))}
	for _, t := range terms {
		f := Fold(t)
		if f == "" {
			continue
		}
		if _, dup := l.byFolded[f]; !dup {
			l.byFolded[f] = t
			l.folded = append(l.folded, f)
		}
		if n := len(strings.Fields(f)); n > l.maxWords {
			l.maxWords = n
		}
	}
	// longest first so multi word terms are preferred during the scan
	sortByLengthDesc(l.folded)
	return l
}

// Terms returns the number of canonical terms loaded
func (l *Lexicon) Terms() int { return len(l.folded) }

// Match scans text for a vocabulary term
// exact fold matches win; otherwise the closest term within maxDist edits on
// any word window is taken. exact reports which path matched
func (l *Lexicon) Match(text string, maxDist int) (canonical string, exact, ok bool) {
	if l == nil || len(l.folded) == 0 {
		return "", false, false
	}
	ft := Fold(text)
	for _, f := range l.folded {
		if containsTerm(ft, f) {
			return l.byFolded[f], true, true
		}
	}
	if maxDist <= 0 {
		return "", false, false
	}

	words := strings.Fields(ft)
	bestDist := maxDist + 1
	for _, f := range l.folded {
		span := len(strings.Fields(f))
		for i := 0; i+span <= len(words); i++ {
			window := strings.Join(words[i:i+span], " ")
			if d := editDistance(window, f, bestDist-1); d < bestDist {
				bestDist = d
				canonical = l.byFolded[f]
			}
		}
	}
	if bestDist <= maxDist {
		return canonical, false, true
	}
	return "", false, false
}

// containsTerm reports whether term occurs in text on word boundaries
func containsTerm(text, term string) bool {
	idx := 0
	for {
		j := strings.Index(text[idx:], term)
		if j < 0 {
			return false
		}
		start := idx + j
		end := start + len(term)
		leftOK := start == 0 || text[start-1] == ' '
		rightOK := end == len(text) || text[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

// editDistance is Levenshtein with an early-out bound
// returns bound+1 when the true distance exceeds bound
func editDistance(a, b string, bound int) int {
	if bound < 0 {
		bound = 0
	}
	la, lb := len(a), len(b)
	if abs(la-lb) > bound {
		return bound + 1
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > bound {
			return bound + 1
		}
		prev, curr = curr, prev
	}
	if prev[lb] > bound {
		return bound + 1
	}
	return prev[lb]
}

func sortByLengthDesc(ss []string) {
	sort.SliceStable(ss, func(i, j int) bool {
		if len(ss[i]) != len(ss[j]) {
			return len(ss[i]) > len(ss[j])
		}
		return ss[i] < ss[j]
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
