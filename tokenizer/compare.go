package tokenizer

import (
	"maps"
	"slices"
)

// Report describes how a trained result differs from a reference vocabulary
// and merge list.
type Report struct {
	// FirstMergeDiff is the index of the first differing merge, or -1 when
	// one merge list is a prefix of the other.
	FirstMergeDiff int
	Got, Want      Merge

	Merges, RefMerges int

	// OnlyOurs and OnlyRef hold token values present on one side only.
	OnlyOurs, OnlyRef []string
	IDsMatch          bool
}

func (r Report) Match() bool {
	return r.FirstMergeDiff < 0 && r.Merges == r.RefMerges &&
		len(r.OnlyOurs) == 0 && len(r.OnlyRef) == 0 && r.IDsMatch
}

// Compare checks got against a reference. Vocabularies are compared as sets of
// ids and sets of values since equal vocabularies may order ties differently.
func Compare(got *Result, refVocab map[int][]byte, refMerges []Merge) Report {
	r := Report{
		FirstMergeDiff: -1,
		Merges:         len(got.Merges),
		RefMerges:      len(refMerges),
	}

	for i := range min(len(got.Merges), len(refMerges)) {
		a, b := got.Merges[i], refMerges[i]
		if string(a.Left) != string(b.Left) || string(a.Right) != string(b.Right) {
			r.FirstMergeDiff, r.Got, r.Want = i, a, b
			break
		}
	}

	ours := make(map[string]struct{}, len(got.Vocab))
	for _, v := range got.Vocab {
		ours[string(v)] = struct{}{}
	}

	theirs := make(map[string]struct{}, len(refVocab))
	for _, v := range refVocab {
		theirs[string(v)] = struct{}{}
	}

	for v := range ours {
		if _, ok := theirs[v]; !ok {
			r.OnlyOurs = append(r.OnlyOurs, v)
		}
	}

	for v := range theirs {
		if _, ok := ours[v]; !ok {
			r.OnlyRef = append(r.OnlyRef, v)
		}
	}

	slices.Sort(r.OnlyOurs)
	slices.Sort(r.OnlyRef)

	r.IDsMatch = len(refVocab) == len(got.Vocab)
	if r.IDsMatch {
		ids := slices.Sorted(maps.Keys(refVocab))
		for i, id := range ids {
			if id != i {
				r.IDsMatch = false
				break
			}
		}
	}

	return r
}
