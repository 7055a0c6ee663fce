package recommendation

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const nmfEpsilon = 1e-10

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "with": {},
	"our": {}, "your": {}, "you": {}, "we": {}, "per": {}, "all": {}, "any": {}, "each": {},
}

// ContentModel holds TF-IDF statistics and the factorization of the
// document-term matrix. Embeddings are the document factors, one row per
// group-buy. The model is read-only once built.
type ContentModel struct {
	Vocabulary map[string]int
	IDF        []float64
	Rank       int
	// Rank x len(Vocabulary) term factors
	H          [][]float64
	Embeddings map[uint64][]float64
	// relative Frobenius reconstruction error per evaluated rank
	RankErrors          map[int]float64
	ReconstructionError float64
	Degenerate          bool
}

func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// BuildContentModel fits TF-IDF and NMF over the documents. With fewer than
// two documents or an empty vocabulary the model is degenerate and has no
// embeddings; every similarity is then unknown.
func BuildContentModel(docs map[uint64]string, cfg Config) *ContentModel {
	m := &ContentModel{
		Vocabulary: make(map[string]int),
		Embeddings: make(map[uint64][]float64),
		RankErrors: make(map[int]float64),
	}

	ids := make([]uint64, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tokens := make([][]string, len(ids))
	df := make(map[string]int)
	for i, id := range ids {
		tokens[i] = Tokenize(docs[id])
		seen := make(map[string]struct{})
		for _, t := range tokens[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if cfg.MaxVocabulary > 0 && len(terms) > cfg.MaxVocabulary {
		terms = terms[:cfg.MaxVocabulary]
	}
	sort.Strings(terms)

	if len(ids) < 2 || len(terms) == 0 {
		m.Degenerate = true
		m.ReconstructionError = math.NaN()
		return m
	}

	n := float64(len(ids))
	m.IDF = make([]float64, len(terms))
	for j, t := range terms {
		m.Vocabulary[t] = j
		m.IDF[j] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	v := mat.NewDense(len(ids), len(terms), nil)
	for i := range ids {
		v.SetRow(i, m.tfidf(tokens[i]))
	}

	upper := min(cfg.MaxRank, len(ids), len(terms))
	lower := min(cfg.MinRank, upper)
	step := max(cfg.RankStep, 1)

	type fit struct {
		w, h *mat.Dense
		err  float64
	}
	fits := make(map[int]fit)
	ranks := make([]int, 0)
	for r := lower; r <= upper; r += step {
		ranks = append(ranks, r)
	}
	if ranks[len(ranks)-1] != upper {
		ranks = append(ranks, upper)
	}
	best := math.Inf(1)
	for _, r := range ranks {
		w, h, e := nmf(v, r, cfg.NMFMaxIter, cfg.Seed+int64(r))
		fits[r] = fit{w: w, h: h, err: e}
		m.RankErrors[r] = e
		if e < best {
			best = e
		}
	}

	// smallest rank whose error is within tolerance of the best one
	chosen := ranks[len(ranks)-1]
	for _, r := range ranks {
		if fits[r].err <= best+cfg.RankTolerance {
			chosen = r
			break
		}
	}

	f := fits[chosen]
	m.Rank = chosen
	m.ReconstructionError = f.err
	m.H = make([][]float64, chosen)
	for k := 0; k < chosen; k++ {
		m.H[k] = mat.Row(nil, k, f.h)
	}
	for i, id := range ids {
		row := mat.Row(nil, i, f.w)
		if floats.Norm(row, 2) == 0 {
			continue
		}
		m.Embeddings[id] = row
	}

	return m
}

// tfidf builds an L2-normalized TF-IDF row for the fitted vocabulary.
func (m *ContentModel) tfidf(tokens []string) []float64 {
	row := make([]float64, len(m.IDF))
	if len(tokens) == 0 {
		return row
	}
	for _, t := range tokens {
		if j, ok := m.Vocabulary[t]; ok {
			row[j]++
		}
	}
	for j := range row {
		row[j] = row[j] / float64(len(tokens)) * m.IDF[j]
	}
	if norm := floats.Norm(row, 2); norm > 0 {
		floats.Scale(1/norm, row)
	}
	return row
}

func (m *ContentModel) Embedding(id uint64) ([]float64, bool) {
	if m == nil {
		return nil, false
	}
	e, ok := m.Embeddings[id]
	return e, ok
}

// Similarity is the cosine of two group-buy embeddings. ok is false when
// either side has no embedding, which callers must treat as unknown.
func (m *ContentModel) Similarity(a, b uint64) (float64, bool) {
	ea, ok := m.Embedding(a)
	if !ok {
		return 0, false
	}
	eb, ok := m.Embedding(b)
	if !ok {
		return 0, false
	}
	return cosine(ea, eb)
}

// Embed projects unseen text onto the fitted term factors by solving the
// non-negative least squares problem with H held fixed.
func (m *ContentModel) Embed(text string) ([]float64, bool) {
	if m == nil || m.Degenerate || m.Rank == 0 {
		return nil, false
	}
	v := m.tfidf(Tokenize(text))
	if floats.Norm(v, 2) == 0 {
		return nil, false
	}

	h := mat.NewDense(m.Rank, len(m.IDF), nil)
	for k, row := range m.H {
		h.SetRow(k, row)
	}
	vRow := mat.NewDense(1, len(v), v)

	w := mat.NewDense(1, m.Rank, nil)
	for k := 0; k < m.Rank; k++ {
		w.Set(0, k, 1.0/float64(m.Rank))
	}

	var hht, num, den mat.Dense
	hht.Mul(h, h.T())
	num.Mul(vRow, h.T())
	for iter := 0; iter < 100; iter++ {
		den.Mul(w, &hht)
		for k := 0; k < m.Rank; k++ {
			w.Set(0, k, w.At(0, k)*num.At(0, k)/(den.At(0, k)+nmfEpsilon))
		}
	}

	out := mat.Row(nil, 0, w)
	if floats.Norm(out, 2) == 0 {
		return nil, false
	}
	return out, true
}

// nmf factorizes v ~ w*h with Lee-Seung multiplicative updates and returns
// the relative Frobenius reconstruction error.
func nmf(v *mat.Dense, rank, maxIter int, seed int64) (*mat.Dense, *mat.Dense, float64) {
	rows, cols := v.Dims()
	rng := rand.New(rand.NewSource(seed))

	avg := mat.Sum(v) / float64(rows*cols)
	scale := math.Sqrt(avg / float64(rank))
	if scale == 0 {
		scale = 1e-3
	}
	w := mat.NewDense(rows, rank, nil)
	h := mat.NewDense(rank, cols, nil)
	w.Apply(func(_, _ int, _ float64) float64 { return scale * (rng.Float64() + nmfEpsilon) }, w)
	h.Apply(func(_, _ int, _ float64) float64 { return scale * (rng.Float64() + nmfEpsilon) }, h)

	vNorm := mat.Norm(v, 2)
	if vNorm == 0 {
		return w, h, 0
	}

	var num, den, tmp, wh, diff mat.Dense
	prevErr := math.Inf(1)
	for iter := 0; iter < maxIter; iter++ {
		// h <- h .* (w'v) ./ (w'wh)
		num.Mul(w.T(), v)
		tmp.Mul(w.T(), w)
		den.Mul(&tmp, h)
		h.Apply(func(i, j int, x float64) float64 {
			return x * num.At(i, j) / (den.At(i, j) + nmfEpsilon)
		}, h)

		// w <- w .* (vh') ./ (whh')
		num.Reset()
		den.Reset()
		tmp.Reset()
		num.Mul(v, h.T())
		tmp.Mul(h, h.T())
		den.Mul(w, &tmp)
		w.Apply(func(i, j int, x float64) float64 {
			return x * num.At(i, j) / (den.At(i, j) + nmfEpsilon)
		}, w)
		num.Reset()
		den.Reset()
		tmp.Reset()

		if iter%10 == 9 {
			wh.Reset()
			diff.Reset()
			wh.Mul(w, h)
			diff.Sub(v, &wh)
			e := mat.Norm(&diff, 2) / vNorm
			if prevErr-e < 1e-6 {
				break
			}
			prevErr = e
		}
	}

	wh.Reset()
	diff.Reset()
	wh.Mul(w, h)
	diff.Sub(v, &wh)
	return w, h, mat.Norm(&diff, 2) / vNorm
}
